package rps

// Surface 渲染面。实现方负责实际显示，返回前不得回调控制器。
type Surface interface {
	SetReel(side Side, position int, symbol Symbol)
	SetSpinning(side Side, position int, spinning bool)
	SetScore(side Side, text string)
	SetOutcome(text string)
	SetOutcomeActive(active bool)
	SetError(text string)
	SetErrorActive(active bool)
}

// AudioSink 音频输出
type AudioSink interface {
	Play(cue Cue) error
}

// Recorder 对局事件记录
type Recorder interface {
	RoundStarted()
	RoundRejected()
	RoundCompleted(outcome Outcome)
	CueFailed(kind CueKind)
}

type nopRecorder struct{}

func (nopRecorder) RoundStarted()          {}
func (nopRecorder) RoundRejected()         {}
func (nopRecorder) RoundCompleted(Outcome) {}
func (nopRecorder) CueFailed(CueKind)      {}
