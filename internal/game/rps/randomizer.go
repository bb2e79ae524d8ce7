package rps

import (
	crand "crypto/rand"
	"math/big"
	"math/rand"
)

// Randomizer 随机源，符号抽取与停止顺序抽取共用
type Randomizer interface {
	// Intn 返回 [0, n) 的均匀随机整数
	Intn(n int) int
}

// DrawSymbol 均匀抽取一个手势
func DrawSymbol(r Randomizer) Symbol {
	return Symbols[r.Intn(len(Symbols))]
}

// NewRandomizer 创建随机源，seed 为 0 时使用加密随机数
func NewRandomizer(seed int64) Randomizer {
	if seed == 0 {
		return CryptoRandomizer{}
	}
	return NewSeededRandomizer(seed)
}

// SeededRandomizer 可复现的伪随机源，用于测试和回放
type SeededRandomizer struct {
	r *rand.Rand
}

// NewSeededRandomizer 创建带种子的随机源
func NewSeededRandomizer(seed int64) *SeededRandomizer {
	return &SeededRandomizer{r: rand.New(rand.NewSource(seed))}
}

// Intn 实现 Randomizer
func (s *SeededRandomizer) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return s.r.Intn(n)
}

// CryptoRandomizer 加密安全的随机源
type CryptoRandomizer struct{}

// Intn 实现 Randomizer
func (CryptoRandomizer) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := crand.Int(crand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return rand.Intn(n)
	}
	return int(v.Int64())
}
