package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/rps-slot/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "0.0.0.0:9090", c.Server.Addr())
	assert.Equal(t, 50*time.Millisecond, c.Game.SpinInterval)
	assert.Equal(t, []time.Duration{2 * time.Second, 2600 * time.Millisecond, 3200 * time.Millisecond}, c.Game.StopDelays)
	assert.Equal(t, 500*time.Millisecond, c.Game.JudgeDelay)
	assert.Equal(t, time.Second, c.Game.ResetDelay)
	assert.Equal(t, 2*time.Second, c.Game.ErrorDisplay)
	assert.Equal(t, 300*time.Millisecond, c.Game.ErrorFade)
	assert.Equal(t, "/ws", c.WebSocket.Path)
}

func TestLoad_GameOverrides(t *testing.T) {
	path := writeConfig(t, `
game:
  spin_interval: 20ms
  stop_delays: [1s, 1.5s, 2s]
  judge_delay: 100ms
  seed: 42
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, c.Game.SpinInterval)
	assert.Equal(t, []time.Duration{time.Second, 1500 * time.Millisecond, 2 * time.Second}, c.Game.StopDelays)
	assert.Equal(t, 100*time.Millisecond, c.Game.JudgeDelay)
	assert.Equal(t, int64(42), c.Game.Seed)
}

func TestLoad_InvalidStopDelays(t *testing.T) {
	path := writeConfig(t, "game:\n  stop_delays: [2s, 1s, 3s]\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "严格递增")
}

func TestGameConfig_Validate(t *testing.T) {
	valid := GameConfig{
		SpinInterval: 50 * time.Millisecond,
		StopDelays:   []time.Duration{time.Second, 2 * time.Second, 3 * time.Second},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(g *GameConfig)
	}{
		{"零刷新间隔", func(g *GameConfig) { g.SpinInterval = 0 }},
		{"停止时刻数量错误", func(g *GameConfig) { g.StopDelays = g.StopDelays[:2] }},
		{"非正停止时刻", func(g *GameConfig) { g.StopDelays = []time.Duration{0, time.Second, 2 * time.Second} }},
		{"重复停止时刻", func(g *GameConfig) { g.StopDelays = []time.Duration{time.Second, time.Second, 2 * time.Second} }},
		{"负判定延迟", func(g *GameConfig) { g.JudgeDelay = -time.Millisecond }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := valid
			g.StopDelays = append([]time.Duration(nil), valid.StopDelays...)
			tt.mutate(&g)
			assert.Error(t, g.Validate())
		})
	}
}

func TestLoad_ErrorCodes(t *testing.T) {
	t.Run("文件不存在", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrConfigLoad, apperrors.GetCode(err))
	})

	t.Run("YAML格式错误", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: [9090\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrConfigParse, apperrors.GetCode(err))
	})

	t.Run("时长格式错误", func(t *testing.T) {
		path := writeConfig(t, "game:\n  judge_delay: soon\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrConfigParse, apperrors.GetCode(err))
	})

	t.Run("校验失败", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: 70000\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrConfigValidate, apperrors.GetCode(err))
	})
}
