package model

import (
	"time"
)

// User 用户主表，同时作为对外公开的个人资料（profile）
type User struct {
	ID        uint64  `gorm:"primaryKey"`
	Username  string  `gorm:"type:varchar(50);uniqueIndex:idx_username;not null"`
	Password  string  `gorm:"type:varchar(255);not null"`
	AvatarURL *string `gorm:"type:varchar(255)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string {
	return "users"
}
