package websocket

import (
	"context"
	"time"

	"github.com/wfunc/rps-slot/internal/config"
	apperrors "github.com/wfunc/rps-slot/internal/errors"
	"github.com/wfunc/rps-slot/internal/game/rps"
	"go.uber.org/zap"
)

// SessionConfig 新会话使用的参数
type SessionConfig struct {
	Timings     rps.Timings
	BusyMessage string
	Seed        int64 // 0 表示加密随机数，否则第 n 个会话使用 Seed+n
	Recorder    rps.Recorder
	Logger      *zap.Logger
}

// NewSessionConfig 从游戏配置生成会话参数
func NewSessionConfig(g config.GameConfig) (SessionConfig, error) {
	if err := g.Validate(); err != nil {
		return SessionConfig{}, apperrors.Wrap(err, apperrors.ErrConfigValidate, "game")
	}

	var delays [rps.ReelsPerSide]time.Duration
	copy(delays[:], g.StopDelays)

	return SessionConfig{
		Timings: rps.Timings{
			SpinInterval: g.SpinInterval,
			StopDelays:   delays,
			JudgeDelay:   g.JudgeDelay,
			ResetDelay:   g.ResetDelay,
			ErrorDisplay: g.ErrorDisplay,
			ErrorFade:    g.ErrorFade,
		},
		BusyMessage: g.BusyMessage,
		Seed:        g.Seed,
	}, nil
}

// peer 会话的消息出口
type peer interface {
	messageSender
	SendError(err error)
}

// Session 一个连接上的游戏实例，控制器只在自己的事件循环中运行
type Session struct {
	ID        string
	CreatedAt time.Time

	peer   peer
	loop   *rps.Loop
	ctrl   *rps.Controller
	cancel context.CancelFunc
	logger *zap.Logger
}

// NewSession 创建会话，调用 run 之后开始处理事件
func NewSession(id string, p peer, cfg SessionConfig, rnd rps.Randomizer) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("session_id", id))

	loop := rps.NewLoop(logger, 64)
	ctrl, err := rps.NewController(loop, NewBrowserSurface(p, logger), NewBrowserAudio(p), rps.Options{
		Timings:     cfg.Timings,
		BusyMessage: cfg.BusyMessage,
		Randomizer:  rnd,
		Recorder:    cfg.Recorder,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		peer:      p,
		loop:      loop,
		ctrl:      ctrl,
		logger:    logger,
	}

	// 状态回调发生在转换途中，快照推迟到当前任务之后
	ctrl.OnStateChange(func(from, to rps.State, event rps.Event) {
		loop.After(0, s.pushState)
	})
	ctrl.OnRoundComplete(func(summary rps.RoundSummary) {
		s.emit(MessageTypeResult, summary)
	})
	return s, nil
}

func (s *Session) run() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.loop.Run(ctx)
	s.loop.Post(s.ctrl.Init)
}

// Close 停止事件循环并等待退出
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	} else {
		s.loop.Close()
	}
	<-s.loop.Done()
}

func (s *Session) emit(msgType string, data interface{}) {
	if err := s.peer.SendMessage(msgType, data); err != nil {
		s.logger.Debug("消息发送失败", zap.String("type", msgType), zap.Error(err))
	}
}

func (s *Session) pushState() {
	s.emit(MessageTypeState, s.ctrl.Snapshot())
}

// Start 开始一局，本局进行中时返回 ErrRoundBusy
func (s *Session) Start(ctx context.Context) error {
	var startErr error
	if err := s.loop.Do(ctx, func() { startErr = s.ctrl.Start() }); err != nil {
		return err
	}
	return startErr
}

// Snapshot 当前对局快照
func (s *Session) Snapshot(ctx context.Context) (rps.Snapshot, error) {
	var snap rps.Snapshot
	if err := s.loop.Do(ctx, func() { snap = s.ctrl.Snapshot() }); err != nil {
		return rps.Snapshot{}, err
	}
	return snap, nil
}

// ApplyConfig 更新时序，从下一局开始生效
func (s *Session) ApplyConfig(cfg SessionConfig) {
	s.loop.Post(func() {
		if err := s.ctrl.SetTimings(cfg.Timings); err != nil {
			s.logger.Warn("更新时序失败", zap.Error(err))
		}
	})
}

// handle 处理客户端消息，在读协程中调用
func (s *Session) handle(msg *Message) {
	switch msg.Type {
	case MessageTypeStart:
		s.loop.Post(func() {
			err := s.ctrl.Start()
			if err == nil {
				return
			}
			// 忙碌提示已经通过渲染面显示
			if apperrors.Is(err, apperrors.ErrRoundBusy) {
				s.logger.Debug("拒绝开始", zap.Error(err))
				return
			}
			s.peer.SendError(err)
		})

	case MessageTypePing:
		s.emit(MessageTypePong, nil)

	case MessageTypeState:
		s.loop.Post(s.pushState)

	default:
		s.logger.Warn("收到不支持的消息类型", zap.String("type", msg.Type))
		s.peer.SendError(apperrors.New(apperrors.ErrMessageFormat, "不支持的消息类型: "+msg.Type))
	}
}
