package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "docuchat/internal/app"
	"docuchat/internal/bootstrap"
	"docuchat/internal/cache"
	"docuchat/internal/repository"
	"docuchat/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	sessionRepo := repository.NewChatSessionRepository(app.MySQL)
	turnRepo := repository.NewTurnRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)
	transcriptCache := cache.NewTranscriptCache(
		app.Redis,
		time.Duration(app.Config.Redis.TranscriptTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.TranscriptDirtyTTLSeconds)*time.Second,
	)

	chatService := appsvc.NewChatService(
		sessionRepo,
		turnRepo,
		docRepo,
		transcriptCache,
		app.LLM,
		app.LLM,
		app.Index,
		appsvc.ChatServiceOptions{
			TopK:           app.Config.RAG.TopK,
			HistoryWindow:  app.Config.RAG.HistoryWindow,
			SessionTTL:     time.Duration(app.Config.RAG.SessionTTLHours) * time.Hour,
			DisableRewrite: !app.Config.RAG.RewriteEnabled,
		},
	)

	healthHandler := handler.NewHealthHandler(app)
	documentHandler := handler.NewDocumentHandler(app.IngestService, app.Config.MaxUploadBytes())
	chatHandler := handler.NewChatHandler(chatService)

	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.Check)

	documents := router.Group("/documents")
	documents.POST("/upload", documentHandler.Upload)
	documents.GET("", documentHandler.List)
	documents.GET("/:id", documentHandler.Get)
	documents.DELETE("/:id", documentHandler.Delete)

	chat := router.Group("/chat")
	chat.POST("", chatHandler.Ask)
	chat.GET("/history", chatHandler.History)

	return router
}
