package http

import (
	"github.com/gin-gonic/gin"

	"docqa/internal/bootstrap"
	"docqa/internal/transport/http/handler"
	"docqa/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	documentHandler := handler.NewDocumentHandler(app.IngestService, app.IngestWorker, app.Config.Ingest.MaxUploadMB)
	chatHandler := handler.NewChatHandler(app.AnswerService, app.Retriever)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Identity())

	docGroup := v1.Group("/documents")
	docGroup.POST("", documentHandler.Upload)
	docGroup.GET("", documentHandler.List)
	docGroup.GET("/:id", documentHandler.Get)
	docGroup.DELETE("/:id", documentHandler.Delete)

	chatGroup := v1.Group("/chat")
	chatGroup.POST("/ask", chatHandler.Ask)
	chatGroup.POST("/history/search", chatHandler.HistorySearch)

	return router
}
