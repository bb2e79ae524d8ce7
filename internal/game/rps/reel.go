package rps

import "time"

// Reel 单个转轮
type Reel struct {
	side     Side
	position int
	symbol   Symbol
	spinning bool
	tick     Handle

	surface Surface
	sched   Scheduler
	rnd     Randomizer
}

// NewReel 创建转轮，position 从1开始
func NewReel(side Side, position int, surface Surface, sched Scheduler, rnd Randomizer) *Reel {
	return &Reel{
		side:     side,
		position: position,
		surface:  surface,
		sched:    sched,
		rnd:      rnd,
	}
}

// Side 所属方
func (r *Reel) Side() Side { return r.side }

// Position 位置
func (r *Reel) Position() int { return r.position }

// Symbol 已决定的符号，转动中或未决定时为 SymbolNone
func (r *Reel) Symbol() Symbol { return r.symbol }

// Spinning 是否转动中
func (r *Reel) Spinning() bool { return r.spinning }

// Show 直接显示一个符号，不改变决定结果
func (r *Reel) Show(sym Symbol) {
	r.surface.SetReel(r.side, r.position, sym)
}

// Spin 开始转动，每个 interval 显示一个随机符号（仅用于展示）
func (r *Reel) Spin(interval time.Duration) {
	r.symbol = SymbolNone
	r.spinning = true
	r.surface.SetSpinning(r.side, r.position, true)
	r.tick = r.sched.Every(interval, func() {
		r.surface.SetReel(r.side, r.position, DrawSymbol(r.rnd))
	})
}

// Stop 停止转动并抽取最终符号。调用方保证每次 Spin 只 Stop 一次。
func (r *Reel) Stop() Symbol {
	if r.tick != nil {
		r.tick.Cancel()
		r.tick = nil
	}
	r.symbol = DrawSymbol(r.rnd)
	r.spinning = false
	r.surface.SetSpinning(r.side, r.position, false)
	r.surface.SetReel(r.side, r.position, r.symbol)
	return r.symbol
}
