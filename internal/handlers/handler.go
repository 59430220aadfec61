package handlers

import (
	"time"

	_ "fan_controller/docs"
	"fan_controller/internal/logger"
	"fan_controller/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler is the HTTP control surface over the fan services.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes registers every endpoint. Everything except /health, /swagger
// and /auth requires the operator's bearer token.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.accessLog)

	router.GET("/health", h.health)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := router.Group("/auth")
	auth.POST("/sign-up", h.signUp)
	auth.POST("/sign-in", h.signIn)

	api := router.Group("/api/v1", h.userIdMiddleware)
	api.GET("/fan/state", h.getState)
	api.GET("/settings", h.getSettings)
	api.PUT("/settings/tool-path", h.setToolPath) // {"tool_path":"C:\\tools\\ectool.exe"}
	api.PUT("/settings/interval", h.setInterval)  // {"interval":5}
	api.GET("/logs/", h.getLogs)

	router.GET("/ws", h.userIdMiddleware, h.wsConnect)

	return router
}

// accessLog records one debug line per request.
func (h *Handler) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	if h.log == nil {
		return
	}
	h.log.Debugw("http_request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"duration", time.Since(start),
	)
}
