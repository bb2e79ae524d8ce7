package rps

// 揃い方标签
const (
	LabelAllMatch     = "all three match"
	LabelTwoMatch     = "two match"
	LabelAllDifferent = "all different"
)

// ScoreResult 一方的得分
type ScoreResult struct {
	Points int    `json:"points"`
	Label  string `json:"label"`
}

// Score 按出现次数最多的手势计分：3个相同3分，2个相同2分，全不同1分
func Score(symbols [ReelsPerSide]Symbol) ScoreResult {
	counts := make(map[Symbol]int, ReelsPerSide)
	maxCount := 0
	for _, s := range symbols {
		counts[s]++
		if counts[s] > maxCount {
			maxCount = counts[s]
		}
	}

	switch maxCount {
	case 3:
		return ScoreResult{Points: 3, Label: LabelAllMatch}
	case 2:
		return ScoreResult{Points: 2, Label: LabelTwoMatch}
	default:
		return ScoreResult{Points: 1, Label: LabelAllDifferent}
	}
}

// Outcome 胜负
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeDraw Outcome = "draw"
)

// Title 显示用文字
func (o Outcome) Title() string {
	switch o {
	case OutcomeWin:
		return "Win"
	case OutcomeLose:
		return "Lose"
	default:
		return "Draw"
	}
}

// Cue 对应的提示音
func (o Outcome) Cue() CueKind {
	switch o {
	case OutcomeWin:
		return CueWin
	case OutcomeLose:
		return CueLose
	default:
		return CueDraw
	}
}

// Judge 比较双方得分
func Judge(player, computer ScoreResult) Outcome {
	switch {
	case player.Points > computer.Points:
		return OutcomeWin
	case player.Points < computer.Points:
		return OutcomeLose
	default:
		return OutcomeDraw
	}
}
