package rps

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/rps-slot/internal/errors"
	"go.uber.org/zap"
)

func TestManualClock_OrderAndTies(t *testing.T) {
	c := NewManualClock()
	var got []string

	c.After(300*time.Millisecond, func() { got = append(got, "c") })
	c.After(100*time.Millisecond, func() { got = append(got, "a1") })
	c.After(100*time.Millisecond, func() { got = append(got, "a2") })
	c.After(200*time.Millisecond, func() {
		got = append(got, "b")
		// 回调中安排的到期任务在同一次推进中执行
		c.After(50*time.Millisecond, func() { got = append(got, "b+") })
	})

	c.Advance(250 * time.Millisecond)
	assert.Equal(t, []string{"a1", "a2", "b", "b+"}, got)
	assert.Equal(t, 250*time.Millisecond, c.Now())

	c.Advance(50 * time.Millisecond)
	assert.Equal(t, []string{"a1", "a2", "b", "b+", "c"}, got)
	assert.Equal(t, 0, c.Pending())
}

func TestManualClock_EveryAndCancel(t *testing.T) {
	c := NewManualClock()
	ticks := 0
	h := c.Every(50*time.Millisecond, func() { ticks++ })

	c.Advance(200 * time.Millisecond)
	assert.Equal(t, 4, ticks)

	h.Cancel()
	c.Advance(time.Second)
	assert.Equal(t, 4, ticks)
	assert.Equal(t, 0, c.Pending())
}

func TestManualClock_CancelInsideCallback(t *testing.T) {
	c := NewManualClock()
	ticks := 0
	var h Handle
	h = c.Every(10*time.Millisecond, func() {
		ticks++
		if ticks == 3 {
			h.Cancel()
		}
	})

	c.Advance(time.Second)
	assert.Equal(t, 3, ticks)
}

func TestLoop_AfterRunsOnLoop(t *testing.T) {
	l := NewLoop(zap.NewNop(), 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var fired atomic.Int32
	l.After(10*time.Millisecond, func() { fired.Add(1) })
	cancelled := l.After(10*time.Millisecond, func() { fired.Add(100) })
	cancelled.Cancel()

	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestLoop_Every(t *testing.T) {
	l := NewLoop(zap.NewNop(), 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var ticks atomic.Int32
	h := l.Every(5*time.Millisecond, func() { ticks.Add(1) })
	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)

	h.Cancel()
	// 等待已投递的任务执行完
	require.NoError(t, l.Do(ctx, func() {}))
	n := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, ticks.Load())
}

func TestLoop_DoAndClose(t *testing.T) {
	l := NewLoop(zap.NewNop(), 4)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)

	value := 0
	require.NoError(t, l.Do(ctx, func() { value = 42 }))
	assert.Equal(t, 42, value)

	// 任务panic不会终止循环
	require.NoError(t, l.Do(ctx, func() { panic("boom") }))
	require.NoError(t, l.Do(ctx, func() { value = 7 }))
	assert.Equal(t, 7, value)

	cancel()
	<-l.Done()

	err := l.Do(context.Background(), func() {})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCanceled))
	assert.False(t, l.Post(func() {}))
}
