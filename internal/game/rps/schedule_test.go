package rps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/rps-slot/internal/errors"
)

func TestNewScheduleGenerator_Patterns(t *testing.T) {
	g, err := NewScheduleGenerator(DefaultStopDelays)
	require.NoError(t, err)

	patterns := g.Patterns()
	require.Len(t, patterns, 4)

	wantOrders := [][3]int{{1, 2, 3}, {3, 2, 1}, {2, 1, 3}, {2, 3, 1}}
	for i, p := range patterns {
		assert.Equal(t, wantOrders[i], p.Order(), "pattern %d", i+1)

		// 每个位置恰好出现一次，时刻严格递增
		seen := map[int]bool{}
		for j, st := range p {
			assert.False(t, seen[st.Position])
			seen[st.Position] = true
			assert.Equal(t, DefaultStopDelays[j], st.Delay)
		}
	}

	assert.Equal(t, Stop{Position: 3, Delay: 2000 * time.Millisecond}, patterns[1][0])
}

func TestNewScheduleGenerator_InvalidDelays(t *testing.T) {
	cases := map[string][3]time.Duration{
		"非递增": {time.Second, time.Second, 2 * time.Second},
		"递减":  {3 * time.Second, 2 * time.Second, time.Second},
		"零":   {0, time.Second, 2 * time.Second},
	}
	for name, delays := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewScheduleGenerator(delays)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrInvalidSchedule))
		})
	}
}

func TestScheduleGenerator_PickUniform(t *testing.T) {
	g, err := NewScheduleGenerator(DefaultStopDelays)
	require.NoError(t, err)

	const draws = 40000
	r := NewSeededRandomizer(20240601)
	counts := make([]int, PatternCount)
	for i := 0; i < draws; i++ {
		idx, s := g.Pick(r)
		counts[idx]++
		assert.Equal(t, g.Patterns()[idx], s)
	}

	expected := draws / PatternCount
	for i, c := range counts {
		assert.InDelta(t, expected, c, float64(expected)*0.06, "pattern %d drawn %d times", i+1, c)
	}
}

func TestScheduleGenerator_PatternsIsCopy(t *testing.T) {
	g, err := NewScheduleGenerator(DefaultStopDelays)
	require.NoError(t, err)

	p := g.Patterns()
	p[0][0].Position = 9
	assert.Equal(t, 1, g.Patterns()[0][0].Position)
}
