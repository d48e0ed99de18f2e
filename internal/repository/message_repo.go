package repository

import (
	"murmur/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type MessageRepo interface {
	CreateMessage(ctx context.Context, msg *model.Message) error
	GetMessage(ctx context.Context, msgID uint64) (*model.Message, error)
	ListByConversation(ctx context.Context, convID uint64) ([]*model.Message, error)
	GetLastMessage(ctx context.Context, convID uint64) (*model.Message, error)
	DeleteMessage(ctx context.Context, msgID uint64) error
	SetLinkPreview(ctx context.Context, msgID uint64, url, title, image string) error

	AddReaction(ctx context.Context, reaction *model.MessageReaction) error
	DeleteReaction(ctx context.Context, msgID, userID uint64, reaction string) error

	ListExpired(ctx context.Context, now time.Time, limit int) ([]*model.Message, error)
}

type messageRepoImpl struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepo {
	return &messageRepoImpl{db: db}
}

// CreateMessage 插入消息并在同一事务内刷新会话的 updated_at
// 会话列表的排序不变式依赖这次刷新
func (s *messageRepoImpl) CreateMessage(ctx context.Context, msg *model.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Update("updated_at", time.Now()).Error
	})
}

// GetMessage 消息不存在时返回 (nil, nil)
func (s *messageRepoImpl) GetMessage(ctx context.Context, msgID uint64) (*model.Message, error) {
	var msg model.Message
	err := s.db.WithContext(ctx).First(&msg, msgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// ListByConversation 按创建时间正序加载全量消息，带发送者、一层回复目标及回应
func (s *messageRepoImpl) ListByConversation(ctx context.Context, convID uint64) ([]*model.Message, error) {
	var messages []*model.Message
	err := s.db.WithContext(ctx).
		Preload("Sender").
		Preload("RepliedTo.Sender").
		Preload("Reactions").
		Where("conversation_id = ?", convID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// GetLastMessage 会话最新一条消息，空会话返回 (nil, nil)
func (s *messageRepoImpl) GetLastMessage(ctx context.Context, convID uint64) (*model.Message, error) {
	var msg model.Message
	err := s.db.WithContext(ctx).
		Preload("Sender").
		Where("conversation_id = ?", convID).
		Order("created_at DESC, id DESC").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage 删除消息及其回应，并解开指向它的回复引用
func (s *messageRepoImpl) DeleteMessage(ctx context.Context, msgID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", msgID).
			Delete(&model.MessageReaction{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Message{}).
			Where("replied_to_id = ?", msgID).
			Update("replied_to_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Message{}, msgID).Error
	})
}

func (s *messageRepoImpl) SetLinkPreview(ctx context.Context, msgID uint64, url, title, image string) error {
	return s.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ?", msgID).
		Updates(map[string]interface{}{
			"preview_url":   url,
			"preview_title": title,
			"preview_image": image,
		}).Error
}

// AddReaction 插入回应；唯一键冲突原样上抛，由服务层识别为 toggle 信号
func (s *messageRepoImpl) AddReaction(ctx context.Context, reaction *model.MessageReaction) error {
	return s.db.WithContext(ctx).Create(reaction).Error
}

func (s *messageRepoImpl) DeleteReaction(ctx context.Context, msgID, userID uint64, reaction string) error {
	return s.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ? AND reaction = ?", msgID, userID, reaction).
		Delete(&model.MessageReaction{}).Error
}

// ListExpired 到期的阅后即焚消息
func (s *messageRepoImpl) ListExpired(ctx context.Context, now time.Time, limit int) ([]*model.Message, error) {
	var messages []*model.Message
	err := s.db.WithContext(ctx).
		Where("disappears_at IS NOT NULL AND disappears_at <= ?", now).
		Order("disappears_at ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}
