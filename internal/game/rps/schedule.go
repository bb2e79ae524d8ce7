package rps

import (
	"time"

	apperrors "github.com/wfunc/rps-slot/internal/errors"
)

// ReelsPerSide 每方转轮数
const ReelsPerSide = 3

// DefaultStopDelays 三个停止时刻
var DefaultStopDelays = [ReelsPerSide]time.Duration{
	2000 * time.Millisecond,
	2600 * time.Millisecond,
	3200 * time.Millisecond,
}

// patternOrders 四种停止顺序（位置从1开始）
var patternOrders = [...][ReelsPerSide]int{
	{1, 2, 3}, // 左 → 中 → 右
	{3, 2, 1}, // 右 → 中 → 左
	{2, 1, 3}, // 中 → 左 → 右
	{2, 3, 1}, // 中 → 右 → 左
}

// PatternCount 停止顺序数量
const PatternCount = len(patternOrders)

// Stop 某位置的停止时刻
type Stop struct {
	Position int           `json:"position"`
	Delay    time.Duration `json:"delay"`
}

// StopSchedule 一局的停止计划，按时刻递增排列
type StopSchedule [ReelsPerSide]Stop

// Order 停止顺序
func (s StopSchedule) Order() [ReelsPerSide]int {
	var order [ReelsPerSide]int
	for i, st := range s {
		order[i] = st.Position
	}
	return order
}

// ScheduleGenerator 停止计划生成器
type ScheduleGenerator struct {
	patterns [PatternCount]StopSchedule
}

// NewScheduleGenerator 用三个严格递增的时刻构建全部停止计划
func NewScheduleGenerator(delays [ReelsPerSide]time.Duration) (*ScheduleGenerator, error) {
	for i, d := range delays {
		if d <= 0 {
			return nil, apperrors.Newf(apperrors.ErrInvalidSchedule, "delay[%d]=%s 必须大于0", i, d)
		}
		if i > 0 && d <= delays[i-1] {
			return nil, apperrors.Newf(apperrors.ErrInvalidSchedule, "delay[%d]=%s 不大于前一个 %s", i, d, delays[i-1])
		}
	}

	g := &ScheduleGenerator{}
	for p, order := range patternOrders {
		for i, pos := range order {
			g.patterns[p][i] = Stop{Position: pos, Delay: delays[i]}
		}
	}
	return g, nil
}

// Patterns 全部停止计划
func (g *ScheduleGenerator) Patterns() []StopSchedule {
	out := make([]StopSchedule, PatternCount)
	copy(out, g.patterns[:])
	return out
}

// Pick 等概率抽取一个停止计划，返回其序号
func (g *ScheduleGenerator) Pick(r Randomizer) (int, StopSchedule) {
	idx := r.Intn(PatternCount)
	return idx, g.patterns[idx]
}
