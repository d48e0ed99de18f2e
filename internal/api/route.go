package api

import (
	"murmur/internal/api/middleware"
	"murmur/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		userGroup := apiGroup.Group("/user")
		{
			// 无需登录即可访问的接口
			userGroup.POST("/register", group.UserHandler.Register)
			userGroup.POST("/login", group.UserHandler.Login)

			authGroup := userGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("/logout", group.UserHandler.Logout)
				authGroup.GET("/info", group.UserHandler.GetMe)
				authGroup.GET("/search", group.UserHandler.SearchUsers)
				authGroup.GET("/:id", group.UserHandler.GetUser)
				authGroup.POST("/avatar", group.MediaHandler.UploadAvatar)
			}
		}

		convGroup := apiGroup.Group("/conversations")
		convGroup.Use(middleware.AuthMiddleware())
		{
			convGroup.GET("", group.ConversationHandler.List)
			convGroup.POST("", group.ConversationHandler.Create)
			convGroup.GET("/:id/participants", group.ConversationHandler.Participants)
			convGroup.GET("/:id/messages", group.MessageHandler.List)
		}

		msgGroup := apiGroup.Group("/messages")
		msgGroup.Use(middleware.AuthMiddleware())
		{
			msgGroup.POST("", group.MessageHandler.Send)
			msgGroup.DELETE("/:id", group.MessageHandler.Delete)
			msgGroup.POST("/reaction", group.MessageHandler.ToggleReaction)
		}

		mediaGroup := apiGroup.Group("/media")
		mediaGroup.Use(middleware.AuthMiddleware())
		{
			mediaGroup.POST("/upload", group.MediaHandler.Upload)
		}

		// WS 在查询串里带 token，不走 Auth 中间件
		apiGroup.GET("/ws", group.WsHandler.Connect)
	}

	return r
}
