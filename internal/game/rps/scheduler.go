package rps

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/wfunc/rps-slot/internal/errors"
	"go.uber.org/zap"
)

// Handle 已安排任务的句柄
type Handle interface {
	Cancel()
}

// Scheduler 定时调度。回调总是在同一个执行上下文中串行运行。
type Scheduler interface {
	// After d 之后运行一次 fn
	After(d time.Duration, fn func()) Handle
	// Every 每隔 d 运行 fn，直到取消
	Every(d time.Duration, fn func()) Handle
}

// minInterval 重复任务的最小间隔
const minInterval = time.Millisecond

// Loop 单协程事件循环，所有定时回调和外部投递的任务都在 Run 所在协程执行
type Loop struct {
	tasks  chan func()
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

// NewLoop 创建事件循环
func NewLoop(logger *zap.Logger, buffer int) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		tasks:  make(chan func(), buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run 处理任务直到 ctx 结束或 Close
func (l *Loop) Run(ctx context.Context) {
	defer l.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case fn := <-l.tasks:
			l.runTask(fn)
		}
	}
}

func (l *Loop) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("事件循环任务panic", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn()
}

// Close 停止事件循环，之后投递的任务被丢弃
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

// Done 循环结束时关闭
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post 投递任务，循环已关闭时返回 false
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do 在循环中运行 fn 并等待其完成
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return apperrors.New(apperrors.ErrCanceled, "事件循环已关闭")
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return apperrors.Wrap(ctx.Err(), apperrors.ErrTimeout)
	case <-l.done:
		return apperrors.New(apperrors.ErrCanceled, "事件循环已关闭")
	}
}

type loopHandle struct {
	cancelled atomic.Bool
	timer     *time.Timer
	stop      chan struct{}
}

func (h *loopHandle) Cancel() {
	if !h.cancelled.CompareAndSwap(false, true) {
		return
	}
	if h.timer != nil {
		h.timer.Stop()
	}
	if h.stop != nil {
		close(h.stop)
	}
}

// After 实现 Scheduler
func (l *Loop) After(d time.Duration, fn func()) Handle {
	h := &loopHandle{}
	h.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			// 计时器已触发但回调尚未执行时取消仍然生效
			if !h.cancelled.Load() {
				fn()
			}
		})
	})
	return h
}

// Every 实现 Scheduler
func (l *Loop) Every(d time.Duration, fn func()) Handle {
	if d < minInterval {
		d = minInterval
	}
	h := &loopHandle{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Post(func() {
					if !h.cancelled.Load() {
						fn()
					}
				})
			case <-h.stop:
				return
			case <-l.done:
				return
			}
		}
	}()
	return h
}
