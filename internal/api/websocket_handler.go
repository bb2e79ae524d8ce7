package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wfunc/rps-slot/internal/config"
	apperrors "github.com/wfunc/rps-slot/internal/errors"
	ws "github.com/wfunc/rps-slot/internal/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler WebSocket处理器
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	opts     ws.ClientOptions
	logger   *zap.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(hub *ws.Hub, cfg config.WebSocketConfig, logger *zap.Logger) *WebSocketHandler {
	readSize, writeSize := cfg.ReadBufferSize, cfg.WriteBufferSize
	if readSize <= 0 {
		readSize = 1024
	}
	if writeSize <= 0 {
		writeSize = 1024
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readSize,
			WriteBufferSize: writeSize,
			CheckOrigin: func(r *http.Request) bool {
				// 页面与接口同源部署，开发时允许任意来源
				return true
			},
		},
		opts:   ws.NewClientOptions(cfg),
		logger: logger,
	}
}

// GameWebSocket 游戏WebSocket连接，每个连接一个独立会话
func (h *WebSocketHandler) GameWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写出了HTTP错误响应
		appErr := apperrors.New(apperrors.ErrWebSocketConnect).WithCause(err)
		h.logger.Warn("WebSocket升级失败", zap.String("ip", c.ClientIP()), zap.Error(appErr))
		return
	}

	client := ws.NewClient(h.hub, conn, h.opts)
	if err := h.hub.Register(client); err != nil {
		h.logger.Error("注册客户端失败", zap.String("client_id", client.ID), zap.Error(err))
		conn.Close()
		return
	}

	// 启动读写协程
	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("WebSocket连接建立",
		zap.String("client_id", client.ID),
		zap.String("ip", c.ClientIP()))
}
