package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/rps-slot/internal/game/rps"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

type nopSurface struct{}

func (nopSurface) SetReel(rps.Side, int, rps.Symbol) {}
func (nopSurface) SetSpinning(rps.Side, int, bool)   {}
func (nopSurface) SetScore(rps.Side, string)         {}
func (nopSurface) SetOutcome(string)                 {}
func (nopSurface) SetOutcomeActive(bool)             {}
func (nopSurface) SetError(string)                   {}
func (nopSurface) SetErrorActive(bool)               {}

type brokenAudio struct{}

func (brokenAudio) Play(rps.Cue) error { return errors.New("no audio device") }

func valueOf(points []Point, name, key, val string) int64 {
	for _, p := range points {
		if p.Name != name {
			continue
		}
		if key == "" || p.Attributes[key] == val {
			return p.Value
		}
	}
	return 0
}

func TestGameMetrics_RoundCounts(t *testing.T) {
	provider := NewProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	gm, err := NewWithMeter(provider.Meter())
	require.NoError(t, err)

	clock := rps.NewManualClock()
	ctrl, err := rps.NewController(clock, nopSurface{}, brokenAudio{}, rps.Options{
		Randomizer: rps.NewSeededRandomizer(11),
		Recorder:   gm,
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)

	var outcome rps.Outcome
	ctrl.OnRoundComplete(func(s rps.RoundSummary) { outcome = s.Outcome })

	require.NoError(t, ctrl.Start())
	require.Error(t, ctrl.Start())
	clock.Advance(3700 * time.Millisecond)
	require.Equal(t, rps.StateJudging, ctrl.State())
	require.NotEmpty(t, outcome)

	gm.SessionOpened()
	gm.SessionOpened()
	gm.SessionClosed()

	points, err := provider.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), valueOf(points, "rps.rounds.started", "", ""))
	assert.Equal(t, int64(1), valueOf(points, "rps.rounds.rejected", "", ""))
	assert.Equal(t, int64(1), valueOf(points, "rps.rounds.completed", "outcome", string(outcome)))
	assert.Equal(t, int64(1), valueOf(points, "rps.sessions.active", "", ""))

	// 开局、6次停止和结果提示音全部失败
	assert.Equal(t, int64(1), valueOf(points, "rps.cues.failed", "cue", string(rps.CueStart)))
	assert.Equal(t, int64(6), valueOf(points, "rps.cues.failed", "cue", string(rps.CueStop)))
	assert.Equal(t, int64(1), valueOf(points, "rps.cues.failed", "cue", string(outcome.Cue())))

	for i := 1; i < len(points); i++ {
		assert.LessOrEqual(t, points[i-1].Name, points[i].Name)
	}
}

func TestNew_UsesGlobalProvider(t *testing.T) {
	provider := NewProvider()
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider.MeterProvider())
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
		_ = provider.Shutdown(context.Background())
	})

	gm, err := New()
	require.NoError(t, err)
	gm.RoundStarted()
	gm.RoundStarted()

	points, err := provider.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), valueOf(points, "rps.rounds.started", "", ""))
}
