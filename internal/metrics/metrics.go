// Package metrics 游戏指标，基于 OpenTelemetry。
// New 使用全局 MeterProvider，服务启动时由 Provider 安装。
package metrics

import (
	"context"

	"github.com/wfunc/rps-slot/internal/game/rps"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/wfunc/rps-slot/internal/metrics"

// GameMetrics 实现 rps.Recorder
type GameMetrics struct {
	started   metric.Int64Counter
	rejected  metric.Int64Counter
	completed metric.Int64Counter
	cueFailed metric.Int64Counter
	sessions  metric.Int64UpDownCounter
}

var _ rps.Recorder = (*GameMetrics)(nil)

// New 使用全局 MeterProvider 创建指标
func New() (*GameMetrics, error) {
	return NewWithMeter(otel.Meter(instrumentationName))
}

// NewWithMeter 使用指定 Meter 创建指标
func NewWithMeter(m metric.Meter) (*GameMetrics, error) {
	gm := &GameMetrics{}
	var err error

	if gm.started, err = m.Int64Counter(
		"rps.rounds.started",
		metric.WithDescription("Rounds started"),
	); err != nil {
		return nil, err
	}
	if gm.rejected, err = m.Int64Counter(
		"rps.rounds.rejected",
		metric.WithDescription("Start requests rejected because a round was active"),
	); err != nil {
		return nil, err
	}
	if gm.completed, err = m.Int64Counter(
		"rps.rounds.completed",
		metric.WithDescription("Rounds judged, by outcome"),
	); err != nil {
		return nil, err
	}
	if gm.cueFailed, err = m.Int64Counter(
		"rps.cues.failed",
		metric.WithDescription("Audio cues the sink could not play"),
	); err != nil {
		return nil, err
	}
	if gm.sessions, err = m.Int64UpDownCounter(
		"rps.sessions.active",
		metric.WithDescription("Connected game sessions"),
	); err != nil {
		return nil, err
	}
	return gm, nil
}

// RoundStarted 记录开局
func (g *GameMetrics) RoundStarted() {
	g.started.Add(context.Background(), 1)
}

// RoundRejected 记录被拒绝的开局
func (g *GameMetrics) RoundRejected() {
	g.rejected.Add(context.Background(), 1)
}

// RoundCompleted 记录判定结果
func (g *GameMetrics) RoundCompleted(outcome rps.Outcome) {
	g.completed.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("outcome", string(outcome))))
}

// CueFailed 记录音频失败
func (g *GameMetrics) CueFailed(kind rps.CueKind) {
	g.cueFailed.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("cue", string(kind))))
}

// SessionOpened 会话数加一
func (g *GameMetrics) SessionOpened() {
	g.sessions.Add(context.Background(), 1)
}

// SessionClosed 会话数减一
func (g *GameMetrics) SessionClosed() {
	g.sessions.Add(context.Background(), -1)
}
