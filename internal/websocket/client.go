package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/rps-slot/internal/config"
	apperrors "github.com/wfunc/rps-slot/internal/errors"
	"go.uber.org/zap"
)

// ClientOptions 连接参数
type ClientOptions struct {
	SendBufferSize int
	MaxMessageSize int64
	PingInterval   time.Duration // 必须小于 PongTimeout
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DefaultClientOptions 默认连接参数
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		SendBufferSize: 256,
		MaxMessageSize: 8192,
		PingInterval:   54 * time.Second,
		PongTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
	}
}

// NewClientOptions 从配置生成连接参数，未设置的项使用默认值
func NewClientOptions(cfg config.WebSocketConfig) ClientOptions {
	opts := DefaultClientOptions()
	if cfg.SendBufferSize > 0 {
		opts.SendBufferSize = cfg.SendBufferSize
	}
	if cfg.MaxMessageSize > 0 {
		opts.MaxMessageSize = cfg.MaxMessageSize
	}
	if cfg.PingInterval > 0 && cfg.PongTimeout > cfg.PingInterval {
		opts.PingInterval = cfg.PingInterval
		opts.PongTimeout = cfg.PongTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts
}

// Client WebSocket客户端，每个连接对应一个游戏会话
type Client struct {
	ID   string          // 客户端ID，同时作为会话ID
	Hub  *Hub            // Hub引用
	Conn *websocket.Conn // WebSocket连接

	send   chan []byte
	opts   ClientOptions
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewClient 创建新客户端
func NewClient(hub *Hub, conn *websocket.Conn, opts ClientOptions) *Client {
	if opts.SendBufferSize <= 0 {
		opts.SendBufferSize = DefaultClientOptions().SendBufferSize
	}
	id := uuid.New().String()
	return &Client{
		ID:     id,
		Hub:    hub,
		Conn:   conn,
		send:   make(chan []byte, opts.SendBufferSize),
		opts:   opts,
		logger: hub.logger.With(zap.String("client_id", id)),
	}
}

// ReadPump 读取消息，返回时注销客户端
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.opts.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket读取错误", zap.Error(err))
			}
			break
		}
		c.Hub.dispatch(c, message)
	}
}

// WritePump 写入消息并定期发送ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if !ok {
				// Hub关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("WebSocket写入失败", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send 发送消息，不阻塞
func (c *Client) Send(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrMessageFormat, msg.Type)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return apperrors.New(apperrors.ErrWebSocketClosed, c.ID)
	}

	select {
	case c.send <- data:
		return nil
	default:
		return apperrors.New(apperrors.ErrWebSocketSend, "发送缓冲区已满")
	}
}

// SendMessage 构造并发送消息
func (c *Client) SendMessage(msgType string, data interface{}) error {
	msg, err := NewMessage(msgType, c.ID, data)
	if err != nil {
		return err
	}
	return c.Send(msg)
}

// SendError 发送错误消息
func (c *Client) SendError(err error) {
	if sendErr := c.SendMessage(MessageTypeError, newErrorPayload(err)); sendErr != nil {
		c.logger.Debug("发送错误消息失败", zap.Error(sendErr))
	}
}

// close 关闭发送通道，可重复调用
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
