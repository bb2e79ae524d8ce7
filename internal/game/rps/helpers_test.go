package rps

import (
	"errors"
	"fmt"
)

type reelKey struct {
	side     Side
	position int
}

// recordingSurface 记录所有渲染调用
type recordingSurface struct {
	reels         map[reelKey]Symbol
	spinning      map[reelKey]bool
	stops         map[reelKey]int
	scores        map[Side]string
	scoreHistory  map[Side][]string
	outcome       string
	outcomeSets   []string
	outcomeActive bool
	errText       string
	errActive     bool
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{
		reels:        make(map[reelKey]Symbol),
		spinning:     make(map[reelKey]bool),
		stops:        make(map[reelKey]int),
		scores:       make(map[Side]string),
		scoreHistory: make(map[Side][]string),
	}
}

func (s *recordingSurface) SetReel(side Side, position int, symbol Symbol) {
	s.reels[reelKey{side, position}] = symbol
}

func (s *recordingSurface) SetSpinning(side Side, position int, spinning bool) {
	k := reelKey{side, position}
	if s.spinning[k] && !spinning {
		s.stops[k]++
	}
	s.spinning[k] = spinning
}

func (s *recordingSurface) SetScore(side Side, text string) {
	s.scores[side] = text
	s.scoreHistory[side] = append(s.scoreHistory[side], text)
}

func (s *recordingSurface) SetOutcome(text string) {
	s.outcome = text
	if text != "" {
		s.outcomeSets = append(s.outcomeSets, text)
	}
}

func (s *recordingSurface) SetOutcomeActive(active bool) { s.outcomeActive = active }
func (s *recordingSurface) SetError(text string)         { s.errText = text }
func (s *recordingSurface) SetErrorActive(active bool)   { s.errActive = active }

// judgedScores 判定后写入的得分文字（带标签的）
func (s *recordingSurface) judgedScores(side Side) []string {
	var out []string
	for _, t := range s.scoreHistory[side] {
		if len(t) > 0 && t[len(t)-1] == ')' {
			out = append(out, t)
		}
	}
	return out
}

// fakeAudio 记录播放的提示音
type fakeAudio struct {
	played []CueKind
	err    error
	panic  bool
}

func (a *fakeAudio) Play(cue Cue) error {
	if a.panic {
		panic("audio context closed")
	}
	if a.err != nil {
		return a.err
	}
	a.played = append(a.played, cue.Kind)
	return nil
}

func (a *fakeAudio) count(kind CueKind) int {
	n := 0
	for _, k := range a.played {
		if k == kind {
			n++
		}
	}
	return n
}

var errSinkClosed = errors.New("sink closed")

// seqRandomizer 按顺序返回预设值
type seqRandomizer struct {
	values []int
	i      int
}

func (r *seqRandomizer) Intn(n int) int {
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[r.i%len(r.values)]
	r.i++
	if v >= n {
		panic(fmt.Sprintf("seqRandomizer: value %d out of range %d", v, n))
	}
	return v
}

// countingRecorder 统计对局事件
type countingRecorder struct {
	started   int
	rejected  int
	completed map[Outcome]int
	cueFailed map[CueKind]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		completed: make(map[Outcome]int),
		cueFailed: make(map[CueKind]int),
	}
}

func (r *countingRecorder) RoundStarted()              { r.started++ }
func (r *countingRecorder) RoundRejected()             { r.rejected++ }
func (r *countingRecorder) RoundCompleted(o Outcome)   { r.completed[o]++ }
func (r *countingRecorder) CueFailed(kind CueKind)     { r.cueFailed[kind]++ }
