package service

import (
	"murmur/internal/api/dto"
	"context"
)

// EventPublisher 数据变更事件的出口
// 事件最终经推送总线下发，客户端收到后对受影响的集合整表重拉，
// 这是本系统唯一的缓存一致性机制
type EventPublisher interface {
	PublishChange(ctx context.Context, event *dto.ChangeEventDTO) error
}
