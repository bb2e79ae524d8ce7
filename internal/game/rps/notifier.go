package rps

import (
	"fmt"
	"time"

	apperrors "github.com/wfunc/rps-slot/internal/errors"
	"go.uber.org/zap"
)

// CueKind 提示音类型
type CueKind string

const (
	CueStart CueKind = "start"
	CueStop  CueKind = "stop"
	CueWin   CueKind = "win"
	CueLose  CueKind = "lose"
	CueDraw  CueKind = "draw"
)

// Waveform 波形
type Waveform string

const (
	WaveSine     Waveform = "sine"
	WaveSquare   Waveform = "square"
	WaveTriangle Waveform = "triangle"
)

// Tone 单个音段
type Tone struct {
	Frequency float64       `json:"frequency"`
	Offset    time.Duration `json:"offset"`
	Duration  time.Duration `json:"duration"`
	Waveform  Waveform      `json:"waveform"`
	Volume    float64       `json:"volume"`
	Fade      bool          `json:"fade"` // 指数衰减到静音
}

// Cue 提示音
type Cue struct {
	Kind  CueKind `json:"kind"`
	Tones []Tone  `json:"tones"`
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

var cueTable = map[CueKind][]Tone{
	// ピッ
	CueStop: {
		{Frequency: 800, Offset: 0, Duration: ms(100), Waveform: WaveSine, Volume: 0.3},
	},
	// ピピッ
	CueStart: {
		{Frequency: 880, Offset: 0, Duration: ms(80), Waveform: WaveSquare, Volume: 0.2},
		{Frequency: 1047, Offset: ms(100), Duration: ms(80), Waveform: WaveSquare, Volume: 0.2},
	},
	// 上行三音
	CueWin: {
		{Frequency: 523, Offset: 0, Duration: ms(150), Waveform: WaveSine, Volume: 0.3, Fade: true},
		{Frequency: 659, Offset: ms(150), Duration: ms(150), Waveform: WaveSine, Volume: 0.3, Fade: true},
		{Frequency: 784, Offset: ms(300), Duration: ms(150), Waveform: WaveSine, Volume: 0.3, Fade: true},
	},
	// 下行三音
	CueLose: {
		{Frequency: 659, Offset: 0, Duration: ms(200), Waveform: WaveSine, Volume: 0.25, Fade: true},
		{Frequency: 523, Offset: ms(150), Duration: ms(200), Waveform: WaveSine, Volume: 0.25, Fade: true},
		{Frequency: 392, Offset: ms(300), Duration: ms(200), Waveform: WaveSine, Volume: 0.25, Fade: true},
	},
	// 和音
	CueDraw: {
		{Frequency: 523, Offset: 0, Duration: ms(400), Waveform: WaveTriangle, Volume: 0.2, Fade: true},
		{Frequency: 659, Offset: 0, Duration: ms(400), Waveform: WaveTriangle, Volume: 0.2, Fade: true},
	},
}

// CueFor 返回提示音定义
func CueFor(kind CueKind) (Cue, bool) {
	tones, ok := cueTable[kind]
	if !ok {
		return Cue{}, false
	}
	out := make([]Tone, len(tones))
	copy(out, tones)
	return Cue{Kind: kind, Tones: out}, true
}

// CueKinds 全部提示音类型
func CueKinds() []CueKind {
	return []CueKind{CueStart, CueStop, CueWin, CueLose, CueDraw}
}

// Notifier 提示音与消息显示
type Notifier struct {
	surface  Surface
	audio    AudioSink
	sched    Scheduler
	recorder Recorder
	logger   *zap.Logger
	fade     time.Duration

	// 每条临时消息递增，旧消息的清除任务不会影响新消息
	generation uint64
	hide       Handle
	clear      Handle
}

// NewNotifier 创建通知器，audio 可以为 nil
func NewNotifier(surface Surface, audio AudioSink, sched Scheduler, fade time.Duration, recorder Recorder, logger *zap.Logger) *Notifier {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		surface:  surface,
		audio:    audio,
		sched:    sched,
		recorder: recorder,
		logger:   logger,
		fade:     fade,
	}
}

// PlayCue 播放提示音，失败只记录日志
func (n *Notifier) PlayCue(kind CueKind) {
	if err := n.play(kind); err != nil {
		n.recorder.CueFailed(kind)
		n.logger.Warn("音频播放失败", zap.String("cue", string(kind)), zap.Error(err))
	}
}

func (n *Notifier) play(kind CueKind) (err error) {
	cue, ok := CueFor(kind)
	if !ok {
		return apperrors.Newf(apperrors.ErrInvalidParam, "未知提示音 %q", kind)
	}
	if n.audio == nil {
		return apperrors.New(apperrors.ErrAudioUnavailable, "未配置音频输出")
	}

	defer func() {
		if r := recover(); r != nil {
			err = apperrors.New(apperrors.ErrAudioUnavailable, fmt.Sprintf("panic: %v", r))
		}
	}()

	if playErr := n.audio.Play(cue); playErr != nil {
		return apperrors.Wrap(playErr, apperrors.ErrAudioUnavailable, string(kind))
	}
	return nil
}

// ShowTransientMessage 显示临时消息，d 之后取消激活，再经过淡出时间清空文字
func (n *Notifier) ShowTransientMessage(text string, d time.Duration) {
	n.cancelPending()
	n.generation++
	gen := n.generation

	n.surface.SetError(text)
	n.surface.SetErrorActive(true)

	n.hide = n.sched.After(d, func() {
		if gen != n.generation {
			return
		}
		n.surface.SetErrorActive(false)
		n.clear = n.sched.After(n.fade, func() {
			if gen != n.generation {
				return
			}
			n.surface.SetError("")
		})
	})
}

func (n *Notifier) cancelPending() {
	if n.hide != nil {
		n.hide.Cancel()
		n.hide = nil
	}
	if n.clear != nil {
		n.clear.Cancel()
		n.clear = nil
	}
}

// ShowResult 显示结果消息，直到下一局开始
func (n *Notifier) ShowResult(text string) {
	n.surface.SetOutcome(text)
	n.surface.SetOutcomeActive(true)
}

// ClearResult 清除结果消息
func (n *Notifier) ClearResult() {
	n.surface.SetOutcome("")
	n.surface.SetOutcomeActive(false)
}
