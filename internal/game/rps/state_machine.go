package rps

import (
	"fmt"
	"sort"

	apperrors "github.com/wfunc/rps-slot/internal/errors"
	"go.uber.org/zap"
)

// State 对局状态
type State string

const (
	StateIdle     State = "idle"     // 待机，可以开始
	StateSpinning State = "spinning" // 转动中
	StateJudging  State = "judging"  // 判定及结果展示
)

// Event 状态事件
type Event string

const (
	EventStart Event = "start"
	EventJudge Event = "judge"
	EventReset Event = "reset"
)

// Transition 状态转换定义
type Transition struct {
	From  State
	Event Event
	To    State
}

var transitionTable = []Transition{
	{From: StateIdle, Event: EventStart, To: StateSpinning},
	{From: StateSpinning, Event: EventJudge, To: StateJudging},
	{From: StateJudging, Event: EventReset, To: StateIdle},
}

// StateMachine 对局状态机。只在事件循环中使用，不加锁。
type StateMachine struct {
	current     State
	transitions map[string]Transition
	logger      *zap.Logger

	onStateChange func(from, to State, event Event)
}

// NewStateMachine 创建状态机，初始为待机
func NewStateMachine(logger *zap.Logger) *StateMachine {
	if logger == nil {
		logger = zap.NewNop()
	}
	sm := &StateMachine{
		current:     StateIdle,
		transitions: make(map[string]Transition, len(transitionTable)),
		logger:      logger,
	}
	for _, t := range transitionTable {
		sm.transitions[transitionKey(t.From, t.Event)] = t
	}
	return sm
}

func transitionKey(state State, event Event) string {
	return fmt.Sprintf("%s:%s", state, event)
}

// Trigger 触发事件，无效转换时状态不变
func (sm *StateMachine) Trigger(event Event) error {
	t, ok := sm.transitions[transitionKey(sm.current, event)]
	if !ok {
		return apperrors.Newf(apperrors.ErrGameStateError, "状态=%s, 事件=%s", sm.current, event)
	}

	from := sm.current
	sm.current = t.To

	sm.logger.Debug("状态转换",
		zap.String("from", string(from)),
		zap.String("to", string(t.To)),
		zap.String("event", string(event)))

	if sm.onStateChange != nil {
		sm.onStateChange(from, t.To, event)
	}
	return nil
}

// State 当前状态
func (sm *StateMachine) State() State {
	return sm.current
}

// CanTrigger 当前状态是否接受该事件
func (sm *StateMachine) CanTrigger(event Event) bool {
	_, ok := sm.transitions[transitionKey(sm.current, event)]
	return ok
}

// ValidEvents 当前状态下的有效事件
func (sm *StateMachine) ValidEvents() []Event {
	var events []Event
	for _, t := range sm.transitions {
		if t.From == sm.current {
			events = append(events, t.Event)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	return events
}

// OnStateChange 设置状态变更回调
func (sm *StateMachine) OnStateChange(fn func(from, to State, event Event)) {
	sm.onStateChange = fn
}
