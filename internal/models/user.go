package models

import (
	"time"
)

// 角色等级，guest 为最低权限
const (
	RoleGuest = "guest"
	RoleUser  = "user"
	RoleVIP   = "vip"
	RoleAdmin = "admin"
)

type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DisplayName string    `gorm:"size:100;not null" json:"displayName"`
	Email       string    `gorm:"uniqueIndex;not null" json:"-"` // contact, never rendered publicly
	Password    string    `json:"-"`                             // bcrypt hash, empty for OAuth-only accounts
	Avatar      string    `json:"avatar"`
	Role        string    `gorm:"size:20;default:'user';not null" json:"role"`
	GoogleID    string    `gorm:"index" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CanComment reports whether the role is above the guest tier.
func (u *User) CanComment() bool {
	return u.Role != "" && u.Role != RoleGuest
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
