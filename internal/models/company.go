package models

import (
	"time"
)

// Company 受监管的医疗器械企业（评论的主体）
type Company struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Name               string     `gorm:"not null;index" json:"name"`
	RegistrationNumber string     `gorm:"uniqueIndex;size:32;not null" json:"registrationNumber"` // openFDA establishment registration
	FEINumber          string     `gorm:"size:32;index" json:"feiNumber"`
	Address            string     `json:"address"`
	City               string     `json:"city"`
	State              string     `gorm:"size:8" json:"state"`
	Country            string     `gorm:"size:8;index" json:"country"`
	ProductCodes       string     `json:"productCodes"` // comma separated FDA product codes
	DeviceClass        string     `gorm:"size:8" json:"deviceClass"`
	SyncedAt           *time.Time `json:"syncedAt"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`

	// 非数据库字段，查询时填充
	CommentCount int `gorm:"-" json:"commentCount"`
}
