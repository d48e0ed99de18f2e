package model

import "time"

// Conversation 会话主表
// 单聊（IsGroup=false）固定两名成员，且按成员对去重；群聊必须有名称
type Conversation struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      *string `gorm:"type:varchar(100)" json:"name"` // 群聊名称，单聊忽略
	IsGroup   bool    `gorm:"not null;default:0;index" json:"isGroup"`
	CreatedAt time.Time
	// UpdatedAt 随每条新消息在同一事务内刷新，会话列表按它倒序
	UpdatedAt time.Time `gorm:"index"`

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID;references:ID"`
}

func (Conversation) TableName() string { return "conversations" }

// ConversationParticipant 会话成员表
type ConversationParticipant struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64 `gorm:"uniqueIndex:idx_conv_user;not null" json:"conversationId"`
	UserID         uint64 `gorm:"uniqueIndex:idx_conv_user;index;not null" json:"userId"`
	IsAdmin        bool   `gorm:"not null;default:0" json:"isAdmin"` // 创建者为 true
	JoinedAt       time.Time

	User User `gorm:"foreignKey:UserID;references:ID"`
}

func (ConversationParticipant) TableName() string { return "conversation_participants" }
