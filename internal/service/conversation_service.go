package service

import (
	"murmur/internal/api/dto"
	"murmur/internal/model"
	"murmur/internal/pkg/consts"
	"murmur/internal/repository"
	"context"
	log "log/slog"

	"github.com/jinzhu/copier"
)

// ConversationService 会话域服务接口定义
type ConversationService interface {
	ListConversations(ctx context.Context, userID uint64) ([]*dto.ConversationDTO, error)
	CreateConversation(ctx context.Context, userID uint64, req *dto.CreateConversationReq) (*dto.CreateConversationRes, error)
	ListParticipants(ctx context.Context, userID uint64, convID uint64) ([]*dto.ParticipantDTO, error)
}

type conversationServiceImpl struct {
	convRepo  repository.ConversationRepo
	msgRepo   repository.MessageRepo
	userRepo  repository.UserRepo
	publisher EventPublisher
}

func NewConversationService(
	convRepo repository.ConversationRepo,
	msgRepo repository.MessageRepo,
	userRepo repository.UserRepo,
	publisher EventPublisher,
) ConversationService {
	return &conversationServiceImpl{
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		userRepo:  userRepo,
		publisher: publisher,
	}
}

// ListConversations 当前用户的会话列表，按最近活跃倒序
// 任意一步失败则整体失败，调用方保留上一次的旧列表
func (s *conversationServiceImpl) ListConversations(ctx context.Context, userID uint64) ([]*dto.ConversationDTO, error) {
	if userID == 0 {
		return nil, UnauthorizedError
	}

	convIDs, err := s.convRepo.GetConversationIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(convIDs) == 0 {
		return []*dto.ConversationDTO{}, nil
	}

	convs, err := s.convRepo.GetConversationsWithParticipants(ctx, convIDs)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ConversationDTO, 0, len(convs))
	for _, conv := range convs {
		item := s.toConversationDTO(conv)

		// last_message 不是会话表的列，始终单独取最新一条
		last, err := s.msgRepo.GetLastMessage(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			item.LastMessage = toMessageDTO(last)
		}

		res = append(res, item)
	}
	return res, nil
}

// CreateConversation 创建会话；单聊按成员对去重，命中时直接返回已有会话
func (s *conversationServiceImpl) CreateConversation(ctx context.Context, userID uint64, req *dto.CreateConversationReq) (*dto.CreateConversationRes, error) {
	if userID == 0 {
		return nil, UnauthorizedError
	}

	// 调用方总是成员，幂等并入
	memberIDs := make([]uint64, 0, len(req.UserIDs)+1)
	seen := map[uint64]struct{}{}
	for _, id := range append([]uint64{userID}, req.UserIDs...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		memberIDs = append(memberIDs, id)
	}

	if !req.IsGroup && len(memberIDs) > 2 {
		return nil, ErrConversation
	}

	if !req.IsGroup && len(memberIDs) == 2 {
		other := memberIDs[0]
		if other == userID {
			other = memberIDs[1]
		}
		existingID, err := s.convRepo.FindDirectConversation(ctx, userID, other)
		if err != nil {
			return nil, err
		}
		if existingID != 0 {
			return &dto.CreateConversationRes{ConversationID: existingID, Existed: true}, nil
		}
	}

	if req.IsGroup && (req.Name == nil || *req.Name == "") {
		return nil, ErrGroupNameRequired
	}

	users, err := s.userRepo.GetUsersByIDs(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	if len(users) != len(memberIDs) {
		return nil, ErrUserNotFound
	}

	conv := &model.Conversation{
		IsGroup: req.IsGroup,
	}
	if req.IsGroup {
		conv.Name = req.Name
	}

	participants := make([]*model.ConversationParticipant, 0, len(memberIDs))
	for _, id := range memberIDs {
		participants = append(participants, &model.ConversationParticipant{
			UserID:  id,
			IsAdmin: id == userID, // 创建者为管理员
		})
	}

	if err = s.convRepo.CreateConversation(ctx, conv, participants); err != nil {
		return nil, err
	}

	// 新会话要出现在每个成员的列表里，逐成员推到用户频道
	for _, id := range memberIDs {
		event := &dto.ChangeEventDTO{
			Table:          consts.TableConversations,
			Event:          consts.EventInsert,
			ConversationID: conv.ID,
			UserID:         id,
		}
		if err = s.publisher.PublishChange(ctx, event); err != nil {
			log.ErrorContext(ctx, "Failed to publish conversation change", "convID", conv.ID, "err", err)
		}
	}

	return &dto.CreateConversationRes{ConversationID: conv.ID}, nil
}

// ListParticipants 群成员查看，要求调用方是会话成员
func (s *conversationServiceImpl) ListParticipants(ctx context.Context, userID uint64, convID uint64) ([]*dto.ParticipantDTO, error) {
	if userID == 0 {
		return nil, UnauthorizedError
	}

	isMember, err := s.convRepo.IsParticipant(ctx, convID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotParticipant
	}

	participants, err := s.convRepo.GetParticipants(ctx, convID)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ParticipantDTO, 0, len(participants))
	for _, p := range participants {
		res = append(res, toParticipantDTO(p))
	}
	return res, nil
}

func (s *conversationServiceImpl) toConversationDTO(conv *model.Conversation) *dto.ConversationDTO {
	item := &dto.ConversationDTO{
		ID:        conv.ID,
		Name:      conv.Name,
		IsGroup:   conv.IsGroup,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
	item.Participants = make([]*dto.ParticipantDTO, 0, len(conv.Participants))
	for i := range conv.Participants {
		item.Participants = append(item.Participants, toParticipantDTO(&conv.Participants[i]))
	}
	return item
}

func toParticipantDTO(p *model.ConversationParticipant) *dto.ParticipantDTO {
	item := &dto.ParticipantDTO{
		UserID:   p.UserID,
		IsAdmin:  p.IsAdmin,
		JoinedAt: p.JoinedAt,
	}
	if p.User.ID > 0 {
		user := &dto.UserDTO{}
		_ = copier.Copy(user, &p.User)
		item.User = user
	}
	return item
}
