package kafka

import (
	"murmur/internal/api/config"
	"murmur/internal/pkg/es"
	"murmur/internal/repository"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	changeConsumer sarama.ConsumerGroup
	changeHandler  sarama.ConsumerGroupHandler

	profileConsumer sarama.ConsumerGroup
	profileHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(
	cfg *config.Config,
	userRepo repository.UserRepo,
	profileRepo es.ProfileRepo,
) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	changeConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaChangeConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}
	changeHandler := NewChangeHandler()

	profileConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaProfileConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}
	profileHandler := NewProfileHandler(userRepo, profileRepo)

	return &ConsumerManager{
		changeConsumer:  changeConsumer,
		changeHandler:   changeHandler,
		profileConsumer: profileConsumer,
		profileHandler:  profileHandler,
	}, nil
}

// Start 启动所有消费者，阻塞到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context, cfg *config.Config) error {
	go func() {
		topic := cfg.KafkaChangeConsumer.Topic
		log.Info("Change consumer started", "topic", topic)
		for {
			if err := m.changeConsumer.Consume(ctx, []string{topic}, m.changeHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	go func() {
		topic := cfg.KafkaProfileConsumer.Topic
		log.Info("Profile consumer started", "topic", topic)
		for {
			if err := m.profileConsumer.Consume(ctx, []string{topic}, m.profileHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.changeConsumer.Close(); err != nil {
		log.Error("Failed to close change consumer", "err", err)
	}
	if err := m.profileConsumer.Close(); err != nil {
		log.Error("Failed to close profile consumer", "err", err)
	}

	return nil
}
