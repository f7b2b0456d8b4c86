package handlers

import (
	"context"

	"wear_relay/internal/logger"
	"wear_relay/internal/models"
	"wear_relay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NodeServer runs an upgraded node connection until it closes.
type NodeServer interface {
	Serve(ctx context.Context, conn *websocket.Conn, node models.Node)
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	nodes    NodeServer
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, nodes NodeServer, log *logger.Logger) *Handler {
	return &Handler{services: services, nodes: nodes, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health endpoint
	router.GET("/health", h.health)

	// Pairing endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Node transport (HTTP upgrade), same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.nodeIdMiddleware)
	{
		api.GET("/status", h.getStatus)
		h.registerScreenRoutes(api)
		h.registerPermissionRoutes(api)
		api.GET("/nodes", h.listNodes)
		api.GET("/data-items", h.getDataItem)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerScreenRoutes(api *gin.RouterGroup) {
	screen := api.Group("/screen")
	{
		screen.POST("/start", h.pressStart)
		screen.POST("/launch", h.launchScreen)
		screen.POST("/finish", h.finishScreen)
	}
}

func (h *Handler) registerPermissionRoutes(api *gin.RouterGroup) {
	perms := api.Group("/permissions")
	{
		perms.GET("", h.getPermissions)
		// Body example: {"request_code":66,"granted":true}
		perms.POST("/answer", h.answerPermission)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
