package casino

import (
	"math"
	"math/bits"
)

const bps = 10_000

// GameEngine is a payout policy: given a stake, a roll and the requested
// multiplier it decides the outcome. Multipliers and edges are in basis points.
type GameEngine interface {
	Play(bet, roll, multiplier, edgeBps uint64) (win bool, payout uint64)
	MaxPayout(bet, multiplier, edgeBps uint64) uint64
}

type Dice struct{}
type Limbo struct{}
type Crash struct{}

// applyEdge computes bet*multiplier/bps*(bps-edge)/bps in 128 bits and
// saturates at MaxUint64.
func applyEdge(bet, multiplier, edgeBps uint64) uint64 {
	if edgeBps > bps {
		return 0
	}
	return scale(scale(bet, multiplier), bps-edgeBps)
}

func scale(x, factorBps uint64) uint64 {
	hi, lo := bits.Mul64(x, factorBps)
	if hi >= bps {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, bps)
	return q
}

// Dice wins when the roll lands under 1/multiplier of the range.
func (g Dice) Play(bet, roll, multiplier, edgeBps uint64) (bool, uint64) {
	winChance := RollRange * bps / multiplier
	if roll < winChance {
		return true, applyEdge(bet, multiplier, edgeBps)
	}
	return false, 0
}

func (g Dice) MaxPayout(bet, multiplier, edgeBps uint64) uint64 {
	return applyEdge(bet, multiplier, edgeBps)
}

// Limbo draws a crash point from the roll and wins when it reaches the target.
func (g Limbo) Play(bet, roll, multiplier, edgeBps uint64) (bool, uint64) {
	point := RollRange * bps / (RollRange - roll)
	if point >= multiplier {
		return true, applyEdge(bet, multiplier, edgeBps)
	}
	return false, 0
}

func (g Limbo) MaxPayout(bet, multiplier, edgeBps uint64) uint64 {
	return applyEdge(bet, multiplier, edgeBps)
}

const crashMultiplier = 18_000

// Crash is a fixed coin flip paying 1.8x.
func (g Crash) Play(bet, roll, _, edgeBps uint64) (bool, uint64) {
	if roll < RollRange/2 {
		return true, applyEdge(bet, crashMultiplier, edgeBps)
	}
	return false, 0
}

func (g Crash) MaxPayout(bet, _, edgeBps uint64) uint64 {
	return applyEdge(bet, crashMultiplier, edgeBps)
}

func GetGame(name string) (GameEngine, bool) {
	switch name {
	case "dice":
		return Dice{}, true
	case "limbo":
		return Limbo{}, true
	case "crash":
		return Crash{}, true
	default:
		return nil, false
	}
}
