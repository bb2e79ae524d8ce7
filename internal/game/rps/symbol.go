package rps

import "fmt"

// Symbol 手势符号
type Symbol int

const (
	SymbolNone Symbol = iota // 未决定
	Rock                     // 石头
	Paper                    // 布
	Scissors                 // 剪刀
)

// Symbols 可抽取的三种手势，顺序固定
var Symbols = [3]Symbol{Rock, Paper, Scissors}

var symbolNames = map[Symbol]string{
	SymbolNone: "",
	Rock:       "rock",
	Paper:      "paper",
	Scissors:   "scissors",
}

var symbolEmojis = map[Symbol]string{
	SymbolNone: "❔",
	Rock:       "✊",
	Paper:      "✋",
	Scissors:   "✌️",
}

// String 符号名称
func (s Symbol) String() string {
	if name, ok := symbolNames[s]; ok {
		return name
	}
	return fmt.Sprintf("symbol(%d)", int(s))
}

// Emoji 显示字符
func (s Symbol) Emoji() string {
	if e, ok := symbolEmojis[s]; ok {
		return e
	}
	return "?"
}

// Valid 是否为可抽取的手势
func (s Symbol) Valid() bool {
	return s == Rock || s == Paper || s == Scissors
}

// MarshalText 以名称序列化
func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 从名称解析
func (s *Symbol) UnmarshalText(text []byte) error {
	sym, err := ParseSymbol(string(text))
	if err != nil {
		return err
	}
	*s = sym
	return nil
}

// ParseSymbol 解析符号名称，空字符串表示未决定
func ParseSymbol(name string) (Symbol, error) {
	for sym, n := range symbolNames {
		if n == name {
			return sym, nil
		}
	}
	return SymbolNone, fmt.Errorf("unknown symbol %q", name)
}

// Side 转轮所属方
type Side string

const (
	SidePlayer   Side = "player"
	SideComputer Side = "computer"
)

// Sides 双方，玩家在前
var Sides = [2]Side{SidePlayer, SideComputer}
