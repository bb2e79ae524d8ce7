package websocket

import (
	"encoding/json"
	"time"

	apperrors "github.com/wfunc/rps-slot/internal/errors"
	"github.com/wfunc/rps-slot/internal/game/rps"
)

// Message WebSocket消息
type Message struct {
	Type      string          `json:"type"`                 // 消息类型
	SessionID string          `json:"session_id,omitempty"` // 会话ID
	Data      json.RawMessage `json:"data,omitempty"`       // 消息数据
	Timestamp int64           `json:"timestamp"`            // 时间戳(毫秒)
}

// 消息类型
const (
	// 系统消息
	MessageTypeConnected = "connected"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeError     = "error"

	// 客户端 → 服务端
	MessageTypeStart = "start"
	MessageTypeState = "state"

	// 服务端 → 客户端，渲染
	MessageTypeReel          = "reel"
	MessageTypeSpinning      = "spinning"
	MessageTypeScore         = "score"
	MessageTypeOutcome       = "outcome"
	MessageTypeOutcomeActive = "outcome_active"
	MessageTypeNotice        = "notice"
	MessageTypeNoticeActive  = "notice_active"
	MessageTypeCue           = "cue"
	MessageTypeResult        = "result"
)

// ReelPayload 转轮显示
type ReelPayload struct {
	Side     rps.Side `json:"side"`
	Position int      `json:"position"`
	Symbol   string   `json:"symbol"`
	Emoji    string   `json:"emoji"`
}

// SpinningPayload 转动指示
type SpinningPayload struct {
	Side     rps.Side `json:"side"`
	Position int      `json:"position"`
	Spinning bool     `json:"spinning"`
}

// ScorePayload 得分文字
type ScorePayload struct {
	Side rps.Side `json:"side"`
	Text string   `json:"text"`
}

// TextPayload 消息文字
type TextPayload struct {
	Text string `json:"text"`
}

// ActivePayload 激活状态
type ActivePayload struct {
	Active bool `json:"active"`
}

// TonePayload 单个音段，时间单位为秒，便于浏览器直接使用
type TonePayload struct {
	Frequency float64      `json:"frequency"`
	Offset    float64      `json:"offset"`
	Duration  float64      `json:"duration"`
	Waveform  rps.Waveform `json:"waveform"`
	Volume    float64      `json:"volume"`
	Fade      bool         `json:"fade"`
}

// CuePayload 提示音
type CuePayload struct {
	Kind  rps.CueKind   `json:"kind"`
	Tones []TonePayload `json:"tones"`
}

// NewCuePayload 转换提示音定义
func NewCuePayload(cue rps.Cue) CuePayload {
	p := CuePayload{Kind: cue.Kind, Tones: make([]TonePayload, len(cue.Tones))}
	for i, t := range cue.Tones {
		p.Tones[i] = TonePayload{
			Frequency: t.Frequency,
			Offset:    t.Offset.Seconds(),
			Duration:  t.Duration.Seconds(),
			Waveform:  t.Waveform,
			Volume:    t.Volume,
			Fade:      t.Fade,
		}
	}
	return p
}

// ConnectedPayload 连接成功
type ConnectedPayload struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ErrorPayload 错误
type ErrorPayload struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
	Details string              `json:"details,omitempty"`
}

// NewMessage 创建消息
func NewMessage(msgType, sessionID string, data interface{}) (*Message, error) {
	msg := &Message{
		Type:      msgType,
		SessionID: sessionID,
		Timestamp: time.Now().UnixMilli(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrMessageFormat, msgType)
		}
		msg.Data = raw
	}
	return msg, nil
}

// ParseMessage 解析客户端消息
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrMessageFormat)
	}
	if msg.Type == "" {
		return nil, apperrors.New(apperrors.ErrMessageFormat, "消息类型不能为空")
	}
	return &msg, nil
}

// newErrorPayload 从错误生成错误消息内容
func newErrorPayload(err error) ErrorPayload {
	appErr := apperrors.Wrap(err, apperrors.ErrUnknown)
	return ErrorPayload{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
}
