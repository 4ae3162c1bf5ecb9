package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/vivahsetu/vivahsetu-backend/internal/config"
	"github.com/vivahsetu/vivahsetu-backend/internal/handler"
	"github.com/vivahsetu/vivahsetu-backend/internal/middleware"
	"github.com/vivahsetu/vivahsetu-backend/pkg/jwt"
)

// Handlers groups everything Setup mounts
type Handlers struct {
	Chat        *handler.ChatHandler
	Block       *handler.BlockHandler
	Attachments *handler.AttachmentHandler
	WS          *handler.WSHandler
}

// Setup configures all API routes
func Setup(router *gin.Engine, h Handlers, jwtManager *jwt.Manager, redisClient *redis.Client, cfg *config.Config) {
	api := router.Group("/api/v1", middleware.JWTAuth(jwtManager))
	api.Use(middleware.RateLimitPerUser(redisClient, cfg.Chat.RequestsPerMinute))

	chat := api.Group("/chat")
	{
		chat.GET("/messages/:userId", h.Chat.ListMessages)
		chat.DELETE("/messages/:messageId", h.Chat.DeleteMessage)
		chat.GET("/unread", h.Chat.UnreadCounts)
		chat.GET("/online", h.Chat.OnlineStatus)
		chat.GET("/search", h.Chat.SearchMessages)
		chat.GET("/list", h.Chat.ChatList)
		chat.GET("/conversations/:userId", h.Chat.ConversationInfo)
		chat.DELETE("/conversations/:userId", h.Chat.DeleteConversation)
		chat.POST("/read", h.Chat.MarkAllRead)
		chat.POST("/read/:userId", h.Chat.MarkRead)
		chat.POST("/attachments", h.Attachments.Upload)
	}

	users := api.Group("/users")
	{
		users.GET("/me/blocks", h.Block.ListBlocks)
		users.POST("/:userId/block", h.Block.BlockUser)
		users.DELETE("/:userId/block", h.Block.UnblockUser)
	}

	// browsers cannot set headers on the upgrade request
	router.GET("/ws/chat", middleware.JWTAuthWithQuery(jwtManager), h.WS.Connect)
}

// Docs mounts the Swagger UI
func Docs(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
