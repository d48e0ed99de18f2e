package kafka

import (
	"murmur/internal/pkg/consts"
	"murmur/internal/pkg/redis"
	"context"
	"fmt"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ChangeHandler 数据变更事件消费者
// 把事件转发到 Redis 频道，由各实例的 WebSocket 层推给在线客户端
type ChangeHandler struct {
}

func NewChangeHandler() *ChangeHandler {
	return &ChangeHandler{}
}

func (s *ChangeHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("change consumer setup")
	return nil
}

func (s *ChangeHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("change consumer cleanup")
	return nil
}

func (s *ChangeHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-change consume claim")
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("process batch error", "err", err)
		return err
	}
	log.Info("topic-change consume claim end")
	return nil
}

func (s *ChangeHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	event, err := toChangeEvent(msg)
	if err != nil {
		// 解码失败只能丢弃，重试不会让消息变得可解析
		return nil
	}

	// 带 UserID 的事件（新会话等）走用户频道，客户端无需预先订阅对应会话
	if event.UserID != 0 {
		channel := fmt.Sprintf("%s%d", consts.IMUserKey, event.UserID)
		return redis.Publish(ctx, channel, msg.Value)
	}

	if event.ConversationID != 0 {
		channel := fmt.Sprintf("%s%d", consts.IMConversationKey, event.ConversationID)
		return redis.Publish(ctx, channel, msg.Value)
	}

	log.Warn("change event without routing key", "table", event.Table, "event", event.Event)
	return nil
}
