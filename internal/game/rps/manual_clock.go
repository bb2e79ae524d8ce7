package rps

import "time"

// ManualClock 手动推进的调度器，用于测试和模拟。
// 回调在调用 Advance 的协程中按到期时间执行，同一时刻按安排顺序执行。
type ManualClock struct {
	now   time.Duration
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	at        time.Duration
	seq       uint64
	every     time.Duration
	fn        func()
	cancelled bool
}

func (t *manualTask) Cancel() {
	t.cancelled = true
}

// NewManualClock 创建手动时钟
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// Now 从创建起经过的时间
func (c *ManualClock) Now() time.Duration {
	return c.now
}

func (c *ManualClock) add(t *manualTask) {
	c.seq++
	t.seq = c.seq
	c.tasks = append(c.tasks, t)
}

// After 实现 Scheduler
func (c *ManualClock) After(d time.Duration, fn func()) Handle {
	if d < 0 {
		d = 0
	}
	t := &manualTask{at: c.now + d, fn: fn}
	c.add(t)
	return t
}

// Every 实现 Scheduler
func (c *ManualClock) Every(d time.Duration, fn func()) Handle {
	if d < minInterval {
		d = minInterval
	}
	t := &manualTask{at: c.now + d, every: d, fn: fn}
	c.add(t)
	return t
}

// Advance 推进时间并执行所有到期任务
func (c *ManualClock) Advance(d time.Duration) {
	target := c.now + d
	for {
		idx := c.nextDue(target)
		if idx < 0 {
			break
		}
		t := c.tasks[idx]
		c.tasks = append(c.tasks[:idx], c.tasks[idx+1:]...)
		c.now = t.at

		if t.every > 0 {
			// 先重新入队，回调中可以取消自己
			t.at += t.every
			c.add(t)
		}
		t.fn()
	}
	c.now = target
}

// nextDue 找出最早到期且未取消的任务
func (c *ManualClock) nextDue(target time.Duration) int {
	best := -1
	kept := c.tasks[:0]
	for _, t := range c.tasks {
		if !t.cancelled {
			kept = append(kept, t)
		}
	}
	c.tasks = kept

	for i, t := range c.tasks {
		if t.at > target {
			continue
		}
		if best < 0 || t.at < c.tasks[best].at ||
			(t.at == c.tasks[best].at && t.seq < c.tasks[best].seq) {
			best = i
		}
	}
	return best
}

// Pending 未取消的任务数
func (c *ManualClock) Pending() int {
	n := 0
	for _, t := range c.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}
