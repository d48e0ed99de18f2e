package cron

import (
	"murmur/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine           *cron.Cron
	messageExpiryJob *job.MessageExpiryJob
}

func NewCronManager(messageExpiryJob *job.MessageExpiryJob) *Manager {
	return &Manager{
		engine:           cron.New(cron.WithSeconds()),
		messageExpiryJob: messageExpiryJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	// 阅后即焚按秒级精度没有意义，半分钟扫一轮足够
	if _, err := s.engine.AddJob("*/30 * * * * *", s.messageExpiryJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	s.engine.Stop()
}
