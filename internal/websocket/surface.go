package websocket

import (
	"github.com/wfunc/rps-slot/internal/game/rps"
	"go.uber.org/zap"
)

// messageSender 发送消息的一端，Client 实现
type messageSender interface {
	SendMessage(msgType string, data interface{}) error
}

// BrowserSurface 把渲染调用转换为发往浏览器的消息
type BrowserSurface struct {
	out    messageSender
	logger *zap.Logger
}

var (
	_ rps.Surface   = (*BrowserSurface)(nil)
	_ rps.AudioSink = (*BrowserAudio)(nil)
)

// NewBrowserSurface 创建浏览器渲染面
func NewBrowserSurface(out messageSender, logger *zap.Logger) *BrowserSurface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowserSurface{out: out, logger: logger}
}

// 渲染消息丢失只影响显示，记录后继续
func (s *BrowserSurface) emit(msgType string, data interface{}) {
	if err := s.out.SendMessage(msgType, data); err != nil {
		s.logger.Debug("渲染消息发送失败", zap.String("type", msgType), zap.Error(err))
	}
}

func (s *BrowserSurface) SetReel(side rps.Side, position int, symbol rps.Symbol) {
	s.emit(MessageTypeReel, ReelPayload{
		Side:     side,
		Position: position,
		Symbol:   symbol.String(),
		Emoji:    symbol.Emoji(),
	})
}

func (s *BrowserSurface) SetSpinning(side rps.Side, position int, spinning bool) {
	s.emit(MessageTypeSpinning, SpinningPayload{Side: side, Position: position, Spinning: spinning})
}

func (s *BrowserSurface) SetScore(side rps.Side, text string) {
	s.emit(MessageTypeScore, ScorePayload{Side: side, Text: text})
}

func (s *BrowserSurface) SetOutcome(text string) {
	s.emit(MessageTypeOutcome, TextPayload{Text: text})
}

func (s *BrowserSurface) SetOutcomeActive(active bool) {
	s.emit(MessageTypeOutcomeActive, ActivePayload{Active: active})
}

func (s *BrowserSurface) SetError(text string) {
	s.emit(MessageTypeNotice, TextPayload{Text: text})
}

func (s *BrowserSurface) SetErrorActive(active bool) {
	s.emit(MessageTypeNoticeActive, ActivePayload{Active: active})
}

// BrowserAudio 把提示音定义发给浏览器，由浏览器合成
type BrowserAudio struct {
	out messageSender
}

// NewBrowserAudio 创建浏览器音频输出
func NewBrowserAudio(out messageSender) *BrowserAudio {
	return &BrowserAudio{out: out}
}

// Play 实现 rps.AudioSink
func (a *BrowserAudio) Play(cue rps.Cue) error {
	return a.out.SendMessage(MessageTypeCue, NewCuePayload(cue))
}
