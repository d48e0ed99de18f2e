package wire

import (
	"murmur/internal/api"
	"murmur/internal/api/config"
	"murmur/internal/api/handler"
	"murmur/internal/job"
	"murmur/internal/pkg/cron"
	"murmur/internal/pkg/es"
	"murmur/internal/pkg/kafka"
	"murmur/internal/pkg/linkpreview"
	"murmur/internal/repository"
	"murmur/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	Producer     *kafka.Producer
	KafkaManager *kafka.ConsumerManager
	CronMgr      *cron.Manager
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	userRepo := repository.NewUserRepo(db)
	convRepo := repository.NewConversationRepo(db)
	msgRepo := repository.NewMessageRepo(db)
	profileRepo := es.NewProfileRepo()

	producer, err := kafka.NewProducer(cfg)
	if err != nil {
		return nil, err
	}

	// nil fetcher 关闭链接预览
	var previewFetcher linkpreview.Fetcher
	if cfg.LinkPreview.Enable {
		previewFetcher = linkpreview.NewFetcher()
	}

	userService := service.NewUserService(userRepo, profileRepo, producer)
	convService := service.NewConversationService(convRepo, msgRepo, userRepo, producer)
	msgService := service.NewMessageService(msgRepo, convRepo, producer, previewFetcher)

	handlers := &api.HandlersGroup{
		UserHandler:         handler.NewUserHandler(userService),
		ConversationHandler: handler.NewConversationHandler(convService),
		MessageHandler:      handler.NewMessageHandler(msgService),
		MediaHandler:        handler.NewMediaHandler(userService),
		WsHandler:           handler.NewWsHandler(convRepo),
	}

	router := api.SetupRouter(handlers)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, userRepo, profileRepo)
	if err != nil {
		return nil, err
	}

	expiryJob := job.NewMessageExpiryJob(msgRepo, producer)
	cronMgr := cron.NewCronManager(expiryJob)

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		Producer:     producer,
		KafkaManager: kafkaMgr,
		CronMgr:      cronMgr,
	}, nil
}
