package websocket

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	apperrors "github.com/wfunc/rps-slot/internal/errors"
	"github.com/wfunc/rps-slot/internal/game/rps"
	"go.uber.org/zap"
)

// sessionCounter 在线会话计数，metrics.GameMetrics 实现
type sessionCounter interface {
	SessionOpened()
	SessionClosed()
}

type registration struct {
	client *Client
	done   chan error
}

// Hub WebSocket连接管理中心，每个客户端对应一个会话
type Hub struct {
	// 会话池，以客户端ID为键
	sessions map[string]*Session
	mu       sync.RWMutex

	// 注册/注销通道
	register   chan registration
	unregister chan *Client
	done       chan struct{}

	cfgMu sync.RWMutex
	cfg   SessionConfig
	seq   atomic.Int64

	logger *zap.Logger
}

// NewHub 创建Hub
func NewHub(cfg SessionConfig, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	return &Hub{
		sessions:   make(map[string]*Session),
		register:   make(chan registration),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		cfg:        cfg,
		logger:     logger,
	}
}

// Run 运行Hub，ctx 结束时关闭所有会话
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case req := <-h.register:
			req.done <- h.registerClient(req.client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Register 注册客户端并创建会话
func (h *Hub) Register(client *Client) error {
	req := registration{client: client, done: make(chan error, 1)}
	select {
	case h.register <- req:
	case <-h.done:
		return apperrors.New(apperrors.ErrWebSocketClosed, "hub已停止")
	}
	return <-req.done
}

// Unregister 注销客户端，可重复调用
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) error {
	cfg := h.SessionConfig()
	s, err := NewSession(client.ID, client, cfg, h.randomizer(cfg.Seed))
	if err != nil {
		h.logger.Error("创建会话失败", zap.String("client_id", client.ID), zap.Error(err))
		return err
	}

	h.mu.Lock()
	h.sessions[client.ID] = s
	h.mu.Unlock()

	if c, ok := cfg.Recorder.(sessionCounter); ok {
		c.SessionOpened()
	}

	h.logger.Info("WebSocket客户端连接", zap.String("client_id", client.ID))

	// 连接消息先于初始画面
	if err := client.SendMessage(MessageTypeConnected, ConnectedPayload{
		SessionID: client.ID,
		Message:   "连接成功",
	}); err != nil {
		h.logger.Warn("发送连接消息失败", zap.String("client_id", client.ID), zap.Error(err))
	}
	s.run()
	return nil
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	s, ok := h.sessions[client.ID]
	delete(h.sessions, client.ID)
	h.mu.Unlock()

	if ok {
		s.Close()
		if c, ok := h.SessionConfig().Recorder.(sessionCounter); ok {
			c.SessionClosed()
		}
		h.logger.Info("WebSocket客户端断开", zap.String("client_id", client.ID))
	}
	client.close()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	counter, _ := h.SessionConfig().Recorder.(sessionCounter)
	for _, s := range sessions {
		s.Close()
		if counter != nil {
			counter.SessionClosed()
		}
		if c, ok := s.peer.(*Client); ok {
			c.close()
		}
	}
	h.logger.Info("所有会话已关闭", zap.Int("count", len(sessions)))
}

// randomizer 每个会话独立的随机源
func (h *Hub) randomizer(seed int64) rps.Randomizer {
	if seed == 0 {
		return rps.NewRandomizer(0)
	}
	return rps.NewSeededRandomizer(seed + h.seq.Add(1) - 1)
}

// dispatch 处理客户端发来的原始消息
func (h *Hub) dispatch(client *Client, data []byte) {
	msg, err := ParseMessage(data)
	if err != nil {
		h.logger.Warn("解析WebSocket消息失败", zap.String("client_id", client.ID), zap.Error(err))
		client.SendError(err)
		return
	}

	s, ok := h.Session(client.ID)
	if !ok {
		client.SendError(apperrors.New(apperrors.ErrNotFound, "会话不存在"))
		return
	}
	s.handle(msg)
}

// Session 按ID查找会话
func (h *Hub) Session(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// SessionIDs 在线会话ID，按字典序
func (h *Hub) SessionIDs() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// GetOnlineCount 获取在线人数
func (h *Hub) GetOnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// SessionConfig 当前会话参数
func (h *Hub) SessionConfig() SessionConfig {
	h.cfgMu.RLock()
	defer h.cfgMu.RUnlock()
	return h.cfg
}

// SetSessionConfig 更新会话参数。已有会话只更新时序，其余参数用于之后的新会话。
func (h *Hub) SetSessionConfig(cfg SessionConfig) {
	h.cfgMu.Lock()
	if cfg.Logger == nil {
		cfg.Logger = h.cfg.Logger
	}
	if cfg.Recorder == nil {
		cfg.Recorder = h.cfg.Recorder
	}
	h.cfg = cfg
	h.cfgMu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		s.ApplyConfig(cfg)
	}
	h.logger.Info("会话参数已更新", zap.Int("sessions", len(h.sessions)))
}
