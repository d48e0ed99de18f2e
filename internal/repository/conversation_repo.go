package repository

import (
	"murmur/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type ConversationRepo interface {
	CreateConversation(ctx context.Context, conv *model.Conversation, participants []*model.ConversationParticipant) error
	GetConversationIDsByUser(ctx context.Context, userID uint64) ([]uint64, error)
	GetConversationsWithParticipants(ctx context.Context, convIDs []uint64) ([]*model.Conversation, error)
	FindDirectConversation(ctx context.Context, userID, otherID uint64) (uint64, error)
	IsParticipant(ctx context.Context, convID uint64, userID uint64) (bool, error)
	GetParticipants(ctx context.Context, convID uint64) ([]*model.ConversationParticipant, error)
}

type conversationRepoImpl struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepoImpl{db: db}
}

// CreateConversation 开启事务创建会话及初始成员
func (s *conversationRepoImpl) CreateConversation(ctx context.Context, conv *model.Conversation, participants []*model.ConversationParticipant) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		for _, p := range participants {
			p.ConversationID = conv.ID
			p.JoinedAt = time.Now()
			if err := tx.Create(p).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetConversationIDsByUser 用户参与的全部会话 ID
func (s *conversationRepoImpl) GetConversationIDsByUser(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("user_id = ?", userID).
		Pluck("conversation_id", &ids).Error
	return ids, err
}

// GetConversationsWithParticipants 按 updated_at 倒序加载会话及成员（含成员公开资料）
func (s *conversationRepoImpl) GetConversationsWithParticipants(ctx context.Context, convIDs []uint64) ([]*model.Conversation, error) {
	if len(convIDs) == 0 {
		return []*model.Conversation{}, nil
	}

	var convs []*model.Conversation
	err := s.db.WithContext(ctx).
		Preload("Participants.User").
		Where("id IN ?", convIDs).
		Order("updated_at DESC").
		Find(&convs).Error
	return convs, err
}

// FindDirectConversation 查找两名用户之间已存在的单聊，未命中返回 0
// 与成员列表传入顺序无关：按两名成员各自的参与行做自连接
func (s *conversationRepoImpl) FindDirectConversation(ctx context.Context, userID, otherID uint64) (uint64, error) {
	var id uint64
	err := s.db.WithContext(ctx).Table("conversation_participants a").
		Select("a.conversation_id").
		Joins("JOIN conversation_participants b ON a.conversation_id = b.conversation_id").
		Joins("JOIN conversations c ON c.id = a.conversation_id").
		Where("a.user_id = ? AND b.user_id = ? AND c.is_group = 0", userID, otherID).
		Limit(1).
		Scan(&id).Error
	return id, err
}

// IsParticipant 检查用户是否是会话成员
func (s *conversationRepoImpl) IsParticipant(ctx context.Context, convID uint64, userID uint64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Count(&count).Error
	return count > 0, err
}

// GetParticipants 会话成员列表（含成员公开资料）
func (s *conversationRepoImpl) GetParticipants(ctx context.Context, convID uint64) ([]*model.ConversationParticipant, error) {
	var participants []*model.ConversationParticipant
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("conversation_id = ?", convID).
		Order("joined_at ASC").
		Find(&participants).Error
	return participants, err
}
