package dto

import "time"

// CreateConversationReq 创建（或命中已有单聊）会话请求
type CreateConversationReq struct {
	UserIDs []uint64 `json:"user_ids" binding:"required,min=1"`
	Name    *string  `json:"name"`
	IsGroup bool     `json:"is_group"`
}

// CreateConversationRes 返回会话 ID，命中已有单聊时 Existed 为 true
type CreateConversationRes struct {
	ConversationID uint64 `json:"conversation_id"`
	Existed        bool   `json:"existed"`
}

// ParticipantDTO 会话成员
type ParticipantDTO struct {
	UserID   uint64    `json:"user_id"`
	IsAdmin  bool      `json:"is_admin"`
	JoinedAt time.Time `json:"joined_at"`
	User     *UserDTO  `json:"user"`
}

// ConversationDTO 会话列表项
type ConversationDTO struct {
	ID           uint64            `json:"id"`
	Name         *string           `json:"name"`
	IsGroup      bool              `json:"is_group"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Participants []*ParticipantDTO `json:"participants"`
	LastMessage  *MessageDTO       `json:"last_message"`
}

// SendMessageReq 发送消息请求体
type SendMessageReq struct {
	ConversationID uint64  `json:"conversation_id" binding:"required"`
	Content        string  `json:"content"`
	ContentType    string  `json:"content_type"` // text/image/video/audio/file，缺省 text
	FileURL        *string `json:"file_url"`
	ThumbnailURL   *string `json:"thumbnail_url"`
	RepliedToID    *uint64 `json:"replied_to_id"`
	IsForwarded    bool    `json:"is_forwarded"`
	// DisappearAfterSec 大于 0 时消息在该秒数后过期删除
	DisappearAfterSec int64 `json:"disappear_after_sec"`
}

// ReactionDTO 表情回应
type ReactionDTO struct {
	ID        uint64    `json:"id"`
	MessageID uint64    `json:"message_id"`
	UserID    uint64    `json:"user_id"`
	Reaction  string    `json:"reaction"`
	CreatedAt time.Time `json:"created_at"`
}

// ToggleReactionReq 表情回应开关请求
type ToggleReactionReq struct {
	MessageID uint64 `json:"message_id" binding:"required"`
	Reaction  string `json:"reaction" binding:"required,max=16"`
}

// RepliedToDTO 被回复消息的摘要，仅加载一层
type RepliedToDTO struct {
	ID          uint64   `json:"id"`
	Content     *string  `json:"content"`
	ContentType string   `json:"content_type"`
	SenderID    *uint64  `json:"sender_id"`
	Sender      *UserDTO `json:"sender"`
}

// LinkPreviewDTO 文本消息中首个链接的预览
type LinkPreviewDTO struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Image string `json:"image,omitempty"`
}

// MessageDTO 消息明细响应
type MessageDTO struct {
	ID             uint64          `json:"id"`
	ConversationID uint64          `json:"conversation_id"`
	SenderID       *uint64         `json:"sender_id"`
	Content        *string         `json:"content"`
	ContentType    string          `json:"content_type"`
	FileURL        *string         `json:"file_url"`
	ThumbnailURL   *string         `json:"thumbnail_url"`
	RepliedToID    *uint64         `json:"replied_to_id"`
	RepliedTo      *RepliedToDTO   `json:"replied_to_message"`
	IsForwarded    bool            `json:"is_forwarded"`
	DisappearsAt   *time.Time      `json:"disappears_at"`
	LinkPreview    *LinkPreviewDTO `json:"link_preview,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Sender         *UserDTO        `json:"sender"`
	Reactions      []*ReactionDTO  `json:"reactions"`
}

// ChangeEventDTO 数据变更事件
// 经 Kafka 进入推送总线，客户端收到后对受影响的集合做整表重拉
type ChangeEventDTO struct {
	Table          string `json:"table"`
	Event          string `json:"event"`
	ConversationID uint64 `json:"conversation_id,omitempty"`
	UserID         uint64 `json:"user_id,omitempty"`
}

// WsControlReq WebSocket 连接上的订阅控制帧
type WsControlReq struct {
	Action         string `json:"action"` // subscribe / unsubscribe
	ConversationID uint64 `json:"conversation_id"`
}
