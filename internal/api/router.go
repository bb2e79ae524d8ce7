package api

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/rps-slot/internal/config"
	apperrors "github.com/wfunc/rps-slot/internal/errors"
	"github.com/wfunc/rps-slot/internal/logger"
	"github.com/wfunc/rps-slot/internal/metrics"
	ws "github.com/wfunc/rps-slot/internal/websocket"
	"go.uber.org/zap"
)

//go:embed static/index.html
var indexSource string

var indexTemplate = template.Must(template.New("index").Parse(indexSource))

// Router API路由器
type Router struct {
	engine      *gin.Engine
	hub         *ws.Hub
	wsHandler   *WebSocketHandler
	gameHandler *GameHandler
	wsPath      string
	indexHTML   []byte
	startedAt   time.Time
	log         *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(hub *ws.Hub, cfg *config.Config, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}

	// 创建Gin引擎
	engine := gin.New()

	// 全局中间件
	engine.Use(recovery(log))
	engine.Use(requestLogger(log))

	wsPath := cfg.WebSocket.Path
	if wsPath == "" {
		wsPath = "/ws"
	}

	router := &Router{
		engine:      engine,
		hub:         hub,
		wsHandler:   NewWebSocketHandler(hub, cfg.WebSocket, log),
		gameHandler: NewGameHandler(hub, log),
		wsPath:      wsPath,
		startedAt:   time.Now(),
		log:         log,
	}

	// 页面中的 WebSocket 地址与配置保持一致
	var page bytes.Buffer
	if err := indexTemplate.Execute(&page, struct{ WSPath string }{wsPath}); err != nil {
		log.Error("渲染游戏页面失败", zap.Error(err))
	}
	router.indexHTML = page.Bytes()

	// 设置路由
	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 游戏页面
	r.engine.GET("/", r.index)

	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// 接口文档
	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	// WebSocket路由
	r.engine.GET(r.wsPath, r.wsHandler.GameWebSocket)

	// API v1路由组
	v1 := r.engine.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.GET("", r.gameHandler.ListSessions)
			sessions.GET("/:id", r.gameHandler.GetSession)
			sessions.POST("/:id/start", r.gameHandler.StartRound)
		}

		v1.GET("/patterns", r.gameHandler.ListPatterns)
		v1.GET("/cues", r.gameHandler.ListCues)
	}

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, apperrors.NewErrorResponse(
			apperrors.New(apperrors.ErrNotFound, "接口不存在")))
	})
}

func (r *Router) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", r.indexHTML)
}

// EnableMetrics 注册 /metrics 指标接口
func (r *Router) EnableMetrics(provider *metrics.Provider) {
	r.engine.GET("/metrics", NewMetricsHandler(provider).GetMetrics)
}

// healthCheck 健康检查
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"message":  "服务运行正常",
		"sessions": r.hub.GetOnlineCount(),
		"uptime":   time.Since(r.startedAt).Round(time.Second).String(),
	})
}

// recovery 记录panic并返回统一的错误响应
func recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.LogPanic(log, recovered, debug.Stack())
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apperrors.NewErrorResponse(apperrors.New(apperrors.ErrUnknown)))
	})
}

// requestLogger 请求日志
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.LogRequest(log, c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}

// Handler 返回HTTP处理器
func (r *Router) Handler() http.Handler {
	return r.engine
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
