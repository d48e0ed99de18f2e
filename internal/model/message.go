package model

import "time"

// 消息内容类型
const (
	ContentTypeText  = "text"
	ContentTypeImage = "image"
	ContentTypeVideo = "video"
	ContentTypeAudio = "audio"
	ContentTypeFile  = "file"
)

// Message 消息表
// SenderID 可空以支持系统消息/已注销用户；Content 在纯附件消息时可空
type Message struct {
	ID             uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64  `gorm:"index:idx_conv_created;not null" json:"conversationId"`
	SenderID       *uint64 `gorm:"index" json:"senderId"`
	Content        *string `gorm:"type:text" json:"content"`
	ContentType    string  `gorm:"type:varchar(10);not null;default:text" json:"contentType"`
	FileURL        *string `gorm:"type:varchar(512)" json:"fileUrl"`
	ThumbnailURL   *string `gorm:"type:varchar(512)" json:"thumbnailUrl"`
	RepliedToID    *uint64 `gorm:"index" json:"repliedToId"`
	IsForwarded    bool    `gorm:"not null;default:0" json:"isForwarded"`
	// DisappearsAt 到期后由定时任务删除
	DisappearsAt *time.Time `gorm:"index" json:"disappearsAt"`

	// 链接预览，发送后异步补全
	PreviewURL   *string `gorm:"type:varchar(512)" json:"previewUrl"`
	PreviewTitle *string `gorm:"type:varchar(255)" json:"previewTitle"`
	PreviewImage *string `gorm:"type:varchar(512)" json:"previewImage"`

	CreatedAt time.Time `gorm:"index:idx_conv_created"`
	UpdatedAt time.Time

	Sender    *User             `gorm:"foreignKey:SenderID;references:ID"`
	RepliedTo *Message          `gorm:"foreignKey:RepliedToID;references:ID"` // 仅加载一层
	Reactions []MessageReaction `gorm:"foreignKey:MessageID;references:ID"`
}

func (Message) TableName() string { return "messages" }

// MessageReaction 表情回应表
// (message_id, user_id, reaction) 唯一，重复插入即视为取消（toggle）
type MessageReaction struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID uint64 `gorm:"uniqueIndex:idx_msg_user_reaction;not null" json:"messageId"`
	UserID    uint64 `gorm:"uniqueIndex:idx_msg_user_reaction;not null" json:"userId"`
	Reaction  string `gorm:"type:varchar(16);uniqueIndex:idx_msg_user_reaction;not null" json:"reaction"`
	CreatedAt time.Time
}

func (MessageReaction) TableName() string { return "message_reactions" }
