package job

import (
	"murmur/internal/api/dto"
	"murmur/internal/model"
	"murmur/internal/pkg/consts"
	"murmur/internal/pkg/minio"
	"murmur/internal/repository"
	"murmur/internal/service"
	"context"
	log "log/slog"
	"time"
)

const expiryBatchLimit = 200

// MessageExpiryJob 阅后即焚清理任务
// 到期消息批量删除并推送变更，客户端收到后重拉列表
type MessageExpiryJob struct {
	msgRepo   repository.MessageRepo
	publisher service.EventPublisher
}

func NewMessageExpiryJob(msgRepo repository.MessageRepo, publisher service.EventPublisher) *MessageExpiryJob {
	return &MessageExpiryJob{
		msgRepo:   msgRepo,
		publisher: publisher,
	}
}

func (s *MessageExpiryJob) Run() {
	ctx := context.Background()

	total := 0
	for {
		expired, err := s.msgRepo.ListExpired(ctx, time.Now(), expiryBatchLimit)
		if err != nil {
			log.Error("failed to list expired messages", "err", err)
			return
		}
		if len(expired) == 0 {
			break
		}

		// 同一会话只推一次
		touched := map[uint64]struct{}{}
		deleted := 0
		for _, msg := range expired {
			if err = s.msgRepo.DeleteMessage(ctx, msg.ID); err != nil {
				log.Error("failed to delete expired message", "msgID", msg.ID, "err", err)
				continue
			}
			deleteAttachmentObjects(ctx, msg)
			touched[msg.ConversationID] = struct{}{}
			deleted++
		}
		total += deleted

		for convID := range touched {
			event := &dto.ChangeEventDTO{
				Table:          consts.TableMessages,
				Event:          consts.EventDelete,
				ConversationID: convID,
			}
			if err = s.publisher.PublishChange(ctx, event); err != nil {
				log.Error("failed to publish expiry change", "convID", convID, "err", err)
			}
		}

		// 整批删除都失败时再取只会拿到同一批行，留给下一轮调度
		if deleted == 0 || len(expired) < expiryBatchLimit {
			break
		}
	}

	if total > 0 {
		log.Info("message expiry job finished", "deleted_count", total)
	}
}

// deleteAttachmentObjects 已过期消息的附件对象一并清掉
func deleteAttachmentObjects(ctx context.Context, msg *model.Message) {
	for _, u := range []*string{msg.FileURL, msg.ThumbnailURL} {
		if u == nil || *u == "" {
			continue
		}
		name := minio.ObjectNameFromURL(*u)
		if name == "" {
			continue
		}
		if err := minio.DeleteFile(ctx, name); err != nil {
			log.Warn("failed to delete attachment object", "object", name, "err", err)
		}
	}
}
