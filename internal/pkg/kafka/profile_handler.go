package kafka

import (
	"murmur/internal/pkg/consts"
	"murmur/internal/pkg/es"
	"murmur/internal/repository"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ProfileHandler 用户资料索引消费者，把用户表变更同步进 ES
type ProfileHandler struct {
	userRepo    repository.UserRepo
	profileRepo es.ProfileRepo
}

func NewProfileHandler(userRepo repository.UserRepo, profileRepo es.ProfileRepo) *ProfileHandler {
	return &ProfileHandler{
		userRepo:    userRepo,
		profileRepo: profileRepo,
	}
}

func (s *ProfileHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("profile consumer setup")
	return nil
}

func (s *ProfileHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("profile consumer cleanup")
	return nil
}

func (s *ProfileHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-profile consume claim")
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("process batch error", "err", err)
		return err
	}
	log.Info("topic-profile consume claim end")
	return nil
}

func (s *ProfileHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	event, err := toChangeEvent(msg)
	if err != nil {
		return nil
	}
	if event.Table != consts.TableUsers || event.UserID == 0 {
		log.Warn("unexpected event on profile topic", "table", event.Table)
		return nil
	}

	if event.Event == consts.EventDelete {
		return s.profileRepo.DeleteProfile(ctx, event.UserID)
	}

	// 事件只带 ID，资料以数据库当前值为准
	user, err := s.userRepo.GetUserByID(ctx, event.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		log.Warn("user gone before indexing", "userID", event.UserID)
		return nil
	}

	return s.profileRepo.IndexProfile(ctx, &es.ProfileES{
		ID:        user.ID,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
	})
}
