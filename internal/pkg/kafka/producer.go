package kafka

import (
	"murmur/internal/api/config"
	"murmur/internal/api/dto"
	"murmur/internal/pkg/consts"
	"context"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Producer 变更事件生产者
// users 表事件进 profile 主题，其余进 change 主题
// key 取会话 ID（用户事件取用户 ID），同一会话的事件保持分区内有序
type Producer struct {
	sync         sarama.SyncProducer
	changeTopic  string
	profileTopic string
}

func NewProducer(cfg *config.Config) (*Producer, error) {
	sync, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, newProducerConfig(cfg.Kafka))
	if err != nil {
		return nil, errors.Wrap(err, "create sync producer")
	}
	return &Producer{
		sync:         sync,
		changeTopic:  cfg.KafkaChangeConsumer.Topic,
		profileTopic: cfg.KafkaProfileConsumer.Topic,
	}, nil
}

func (p *Producer) PublishChange(_ context.Context, event *dto.ChangeEventDTO) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal change event")
	}

	topic := p.changeTopic
	key := strconv.FormatUint(event.ConversationID, 10)
	if event.Table == consts.TableUsers {
		topic = p.profileTopic
		key = strconv.FormatUint(event.UserID, 10)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}
	_, _, err = p.sync.SendMessage(msg)
	return errors.Wrap(err, "send change event")
}

func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}
