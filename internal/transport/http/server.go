package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "github.com/Gopikaa27/Rag-Agent/internal/app"
	"github.com/Gopikaa27/Rag-Agent/internal/bootstrap"
	"github.com/Gopikaa27/Rag-Agent/internal/cache"
	"github.com/Gopikaa27/Rag-Agent/internal/platform/rabbitmq"
	"github.com/Gopikaa27/Rag-Agent/internal/rag"
	"github.com/Gopikaa27/Rag-Agent/internal/repository"
	"github.com/Gopikaa27/Rag-Agent/internal/transport/http/handler"
	"github.com/Gopikaa27/Rag-Agent/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	sessionRepo := repository.NewSessionRepository(app.MySQL)
	turnRepo := repository.NewTurnRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	publisher := rabbitmq.NewTurnPublisher(app.MQConn, app.Config.RabbitMQ.TurnPersistQueue)

	reformulator := rag.NewReformulator(app.AIClient, app.Config.RAG.HistoryWindow, app.Log)
	retriever := rag.NewRetriever(reformulator, app.AIClient, app.VectorStore)
	synthesizer := rag.NewSynthesizer(app.AIClient, app.Config.RAG.ContextBudgetChars, app.Config.RAG.HistoryWindow)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	docService := appsvc.NewDocumentService(
		docRepo,
		app.AIClient,
		app.VectorStore,
		app.Config.RAG.ChunkSize,
		app.Config.RAG.ChunkOverlap,
		app.Log,
	)
	chatService := appsvc.NewChatService(
		sessionRepo,
		turnRepo,
		publisher,
		historyCache,
		retriever,
		synthesizer,
		app.Config.RAG.DefaultTopK,
		app.Config.RAG.MaxTopK,
		app.Log,
	)

	authHandler := handler.NewAuthHandler(authService)
	docHandler := handler.NewDocumentHandler(docService)
	chatHandler := handler.NewChatHandler(chatService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	docGroup := v1.Group("/documents")
	docGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	docGroup.POST("", docHandler.Upload)
	docGroup.GET("", docHandler.List)
	docGroup.DELETE("/:id", docHandler.Delete)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	chatGroup.POST("/sessions", chatHandler.CreateSession)
	chatGroup.GET("/sessions", chatHandler.ListSessions)
	chatGroup.PATCH("/sessions/:id", chatHandler.RenameSession)
	chatGroup.DELETE("/sessions/:id", chatHandler.DeleteSession)
	chatGroup.GET("/sessions/:id/history", chatHandler.GetHistory)
	chatGroup.POST("/ask", chatHandler.Ask)

	return router
}
