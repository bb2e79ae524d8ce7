package rps

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/wfunc/rps-slot/internal/errors"
	"go.uber.org/zap"
)

// Timings 对局时序
type Timings struct {
	SpinInterval time.Duration
	StopDelays   [ReelsPerSide]time.Duration
	JudgeDelay   time.Duration
	ResetDelay   time.Duration
	ErrorDisplay time.Duration
	ErrorFade    time.Duration
}

// DefaultTimings 默认时序
func DefaultTimings() Timings {
	return Timings{
		SpinInterval: 50 * time.Millisecond,
		StopDelays:   DefaultStopDelays,
		JudgeDelay:   500 * time.Millisecond,
		ResetDelay:   1000 * time.Millisecond,
		ErrorDisplay: 2000 * time.Millisecond,
		ErrorFade:    300 * time.Millisecond,
	}
}

// Validate 校验时序
func (t Timings) Validate() error {
	if t.SpinInterval <= 0 {
		return apperrors.New(apperrors.ErrInvalidParam, "spin interval 必须大于0")
	}
	if t.JudgeDelay < 0 || t.ResetDelay < 0 || t.ErrorDisplay < 0 || t.ErrorFade < 0 {
		return apperrors.New(apperrors.ErrInvalidParam, "延迟不能为负数")
	}
	_, err := NewScheduleGenerator(t.StopDelays)
	return err
}

// DefaultBusyMessage 转动中再次开始时的提示
const DefaultBusyMessage = "Already spinning!"

// Options 控制器选项
type Options struct {
	Timings     Timings
	BusyMessage string
	Randomizer  Randomizer
	Recorder    Recorder
	Logger      *zap.Logger
}

// Round 进行中的一局
type Round struct {
	ID        string
	Pattern   int
	Schedule  StopSchedule
	Player    [ReelsPerSide]Symbol
	Computer  [ReelsPerSide]Symbol
	Stopped   int // 已停止的玩家转轮数
	StartedAt time.Time

	timings Timings
}

// RoundSummary 判定结果
type RoundSummary struct {
	RoundID       string               `json:"round_id"`
	Player        [ReelsPerSide]Symbol `json:"player"`
	Computer      [ReelsPerSide]Symbol `json:"computer"`
	PlayerScore   ScoreResult          `json:"player_score"`
	ComputerScore ScoreResult          `json:"computer_score"`
	Outcome       Outcome              `json:"outcome"`
}

// Snapshot 控制器状态快照
type Snapshot struct {
	State       State                `json:"state"`
	RoundID     string               `json:"round_id,omitempty"`
	Pattern     int                  `json:"pattern"`
	Order       [ReelsPerSide]int    `json:"order"`
	Player      [ReelsPerSide]Symbol `json:"player"`
	Computer    [ReelsPerSide]Symbol `json:"computer"`
	Stopped     int                  `json:"stopped"`
	ValidEvents []Event              `json:"valid_events"`
	Last        *RoundSummary        `json:"last,omitempty"`
}

// Controller 对局控制器。所有方法都必须在调度器的执行上下文中调用。
type Controller struct {
	sched       Scheduler
	surface     Surface
	notifier    *Notifier
	schedules   *ScheduleGenerator
	sm          *StateMachine
	rnd         Randomizer
	recorder    Recorder
	logger      *zap.Logger
	timings     Timings
	busyMessage string

	player   [ReelsPerSide]*Reel
	computer [ReelsPerSide]*Reel

	round      *Round
	last       *RoundSummary
	onComplete func(RoundSummary)
}

// NewController 创建控制器
func NewController(sched Scheduler, surface Surface, audio AudioSink, opts Options) (*Controller, error) {
	if opts.Timings == (Timings{}) {
		opts.Timings = DefaultTimings()
	}
	if err := opts.Timings.Validate(); err != nil {
		return nil, err
	}
	schedules, err := NewScheduleGenerator(opts.Timings.StopDelays)
	if err != nil {
		return nil, err
	}
	if opts.Randomizer == nil {
		opts.Randomizer = NewRandomizer(0)
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.BusyMessage == "" {
		opts.BusyMessage = DefaultBusyMessage
	}

	c := &Controller{
		sched:       sched,
		surface:     surface,
		notifier:    NewNotifier(surface, audio, sched, opts.Timings.ErrorFade, opts.Recorder, opts.Logger),
		schedules:   schedules,
		sm:          NewStateMachine(opts.Logger),
		rnd:         opts.Randomizer,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
		timings:     opts.Timings,
		busyMessage: opts.BusyMessage,
	}
	for i := 0; i < ReelsPerSide; i++ {
		c.player[i] = NewReel(SidePlayer, i+1, surface, sched, c.rnd)
		c.computer[i] = NewReel(SideComputer, i+1, surface, sched, c.rnd)
	}
	return c, nil
}

// Init 初始显示：玩家转轮显示随机手势，电脑转轮和得分显示占位
func (c *Controller) Init() {
	for _, r := range c.player {
		r.Show(DrawSymbol(c.rnd))
	}
	for _, r := range c.computer {
		r.Show(SymbolNone)
	}
	c.resetScores()
}

func (c *Controller) resetScores() {
	c.surface.SetScore(SidePlayer, "Total: 0")
	c.surface.SetScore(SideComputer, "Total: ?")
}

func (c *Controller) reels(side Side) [ReelsPerSide]*Reel {
	if side == SidePlayer {
		return c.player
	}
	return c.computer
}

// Start 开始一局。非待机状态时提示忙碌并返回 ErrRoundBusy，不改变任何状态。
func (c *Controller) Start() error {
	if !c.sm.CanTrigger(EventStart) {
		c.recorder.RoundRejected()
		c.notifier.ShowTransientMessage(c.busyMessage, c.timings.ErrorDisplay)
		c.logger.Info("对局进行中，拒绝开始", zap.String("state", string(c.sm.State())))
		return apperrors.Newf(apperrors.ErrRoundBusy, "state=%s", c.sm.State())
	}
	if err := c.sm.Trigger(EventStart); err != nil {
		return err
	}

	c.notifier.PlayCue(CueStart)
	c.notifier.ClearResult()
	c.resetScores()

	pattern, schedule := c.schedules.Pick(c.rnd)
	round := &Round{
		ID:        uuid.NewString(),
		Pattern:   pattern,
		Schedule:  schedule,
		StartedAt: time.Now(),
		timings:   c.timings,
	}
	c.round = round

	for _, side := range Sides {
		for _, r := range c.reels(side) {
			r.Spin(round.timings.SpinInterval)
		}
	}

	// 同一位置的玩家与电脑转轮同时停止
	for _, stop := range schedule {
		for _, side := range Sides {
			side, position := side, stop.Position
			c.sched.After(stop.Delay, func() {
				c.handleStop(round.ID, side, position)
			})
		}
	}

	c.recorder.RoundStarted()
	c.logger.Info("对局开始",
		zap.String("round_id", round.ID),
		zap.Int("pattern", pattern+1),
		zap.Ints("order", orderSlice(schedule)))
	return nil
}

func orderSlice(s StopSchedule) []int {
	o := s.Order()
	return o[:]
}

func (c *Controller) current(roundID string) *Round {
	if c.round == nil || c.round.ID != roundID {
		return nil
	}
	return c.round
}

// handleStop 停止一个转轮
func (c *Controller) handleStop(roundID string, side Side, position int) {
	round := c.current(roundID)
	if round == nil {
		c.logger.Warn("忽略过期的停止事件", zap.String("round_id", roundID))
		return
	}

	sym := c.reels(side)[position-1].Stop()
	c.notifier.PlayCue(CueStop)

	c.logger.Debug("转轮停止",
		zap.String("round_id", roundID),
		zap.String("side", string(side)),
		zap.Int("position", position),
		zap.String("symbol", sym.String()))

	if side != SidePlayer {
		round.Computer[position-1] = sym
		return
	}

	round.Player[position-1] = sym
	round.Stopped++
	if round.Stopped == ReelsPerSide {
		c.sched.After(round.timings.JudgeDelay, func() {
			c.judge(roundID)
		})
	}
}

func resolved(symbols [ReelsPerSide]Symbol) bool {
	for _, s := range symbols {
		if !s.Valid() {
			return false
		}
	}
	return true
}

// judge 判定胜负
func (c *Controller) judge(roundID string) {
	round := c.current(roundID)
	if round == nil {
		return
	}
	if !resolved(round.Player) || !resolved(round.Computer) {
		// 电脑转轮尚未停完时稍后重试
		c.logger.Warn("转轮未全部停止，延后判定",
			zap.String("round_id", roundID),
			zap.Error(apperrors.New(apperrors.ErrRoundIncomplete)))
		c.sched.After(round.timings.JudgeDelay, func() { c.judge(roundID) })
		return
	}
	if err := c.sm.Trigger(EventJudge); err != nil {
		c.logger.Error("判定状态转换失败", zap.Error(err))
		return
	}

	playerScore := Score(round.Player)
	computerScore := Score(round.Computer)
	outcome := Judge(playerScore, computerScore)

	c.surface.SetScore(SidePlayer, fmt.Sprintf("Total: %d (%s)", playerScore.Points, playerScore.Label))
	c.surface.SetScore(SideComputer, fmt.Sprintf("Total: %d (%s)", computerScore.Points, computerScore.Label))
	c.notifier.PlayCue(outcome.Cue())
	c.notifier.ShowResult(fmt.Sprintf("You: %d vs Computer: %d → %s!",
		playerScore.Points, computerScore.Points, outcome.Title()))

	summary := RoundSummary{
		RoundID:       round.ID,
		Player:        round.Player,
		Computer:      round.Computer,
		PlayerScore:   playerScore,
		ComputerScore: computerScore,
		Outcome:       outcome,
	}
	c.last = &summary
	c.recorder.RoundCompleted(outcome)

	c.logger.Info("对局判定",
		zap.String("round_id", round.ID),
		zap.Strings("player", symbolStrings(round.Player)),
		zap.Strings("computer", symbolStrings(round.Computer)),
		zap.Int("player_points", playerScore.Points),
		zap.Int("computer_points", computerScore.Points),
		zap.String("outcome", string(outcome)))

	if c.onComplete != nil {
		c.onComplete(summary)
	}

	c.sched.After(round.timings.ResetDelay, func() {
		c.reset(roundID)
	})
}

func symbolStrings(symbols [ReelsPerSide]Symbol) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = s.String()
	}
	return out
}

// reset 回到待机
func (c *Controller) reset(roundID string) {
	if c.current(roundID) == nil {
		return
	}
	if err := c.sm.Trigger(EventReset); err != nil {
		c.logger.Error("复位状态转换失败", zap.Error(err))
		return
	}
	c.round = nil
	c.logger.Debug("可以再次开始", zap.String("round_id", roundID))
}

// State 当前状态
func (c *Controller) State() State {
	return c.sm.State()
}

// Snapshot 当前快照
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		State:       c.sm.State(),
		ValidEvents: c.sm.ValidEvents(),
	}
	if c.round != nil {
		s.RoundID = c.round.ID
		s.Pattern = c.round.Pattern + 1
		s.Order = c.round.Schedule.Order()
		s.Player = c.round.Player
		s.Computer = c.round.Computer
		s.Stopped = c.round.Stopped
	}
	if c.last != nil {
		last := *c.last
		s.Last = &last
	}
	return s
}

// Patterns 当前时序下的全部停止计划
func (c *Controller) Patterns() []StopSchedule {
	return c.schedules.Patterns()
}

// OnRoundComplete 设置判定完成回调
func (c *Controller) OnRoundComplete(fn func(RoundSummary)) {
	c.onComplete = fn
}

// OnStateChange 设置状态变更回调
func (c *Controller) OnStateChange(fn func(from, to State, event Event)) {
	c.sm.OnStateChange(fn)
}

// SetTimings 更新时序，从下一局开始生效
func (c *Controller) SetTimings(t Timings) error {
	if err := t.Validate(); err != nil {
		return err
	}
	schedules, err := NewScheduleGenerator(t.StopDelays)
	if err != nil {
		return err
	}
	c.timings = t
	c.schedules = schedules
	c.notifier.fade = t.ErrorFade
	return nil
}
