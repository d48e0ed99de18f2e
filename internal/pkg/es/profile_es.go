package es

import "time"

// ProfileES 对应 profile_index 的文档结构
type ProfileES struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
