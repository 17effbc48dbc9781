package models

import (
	"time"
)

type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CompanyID  uint      `gorm:"not null;index" json:"companyId"`
	Company    Company   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ParentID   *uint     `gorm:"index" json:"parentId"` // nil for top-level comments
	UserID     uint      `gorm:"not null;index" json:"userId"`
	Author     User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsApproved bool      `gorm:"default:false;index" json:"isApproved"`
	IsDeleted  bool      `gorm:"default:false;index" json:"isDeleted"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`

	Replies []Comment `gorm:"foreignKey:ParentID" json:"-"`
}
