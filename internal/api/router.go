package api

import (
	"github.com/gin-gonic/gin"

	"github.com/hakalabs/hakabot/internal/api/middleware"
	"github.com/hakalabs/hakabot/internal/api/widget"
	"github.com/hakalabs/hakabot/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(
	relayer widget.Relayer,
	chatService *service.ChatService,
	widgetService *service.WidgetService,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	widgetHandler := widget.NewHandler(relayer, chatService, widgetService)

	// Same-origin proxy path the widget posts raw chat requests to
	r.POST("/api/ai", widgetHandler.Proxy)

	// Widget API (public)
	widgetGroup := r.Group("/api/widget")
	widgetHandler.RegisterRoutes(widgetGroup)

	return r
}
