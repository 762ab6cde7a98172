package house

import (
	"math"
	"math/bits"
)

// mulDiv returns a*b/c computed with a 128-bit intermediate. ok is false when
// c is zero or the quotient does not fit in 64 bits.
func mulDiv(a, b, c uint64) (q uint64, ok bool) {
	if c == 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, false
	}
	q, _ = bits.Div64(hi, lo, c)
	return q, true
}

// mulDivSat is mulDiv saturating at MaxUint64 instead of failing.
func mulDivSat(a, b, c uint64) uint64 {
	q, ok := mulDiv(a, b, c)
	if !ok {
		return math.MaxUint64
	}
	return q
}

// weightedAvg returns (a*wa + b*wb) / d with a 128-bit intermediate,
// saturating at MaxUint64.
func weightedAvg(a, wa, b, wb, d uint64) uint64 {
	h1, l1 := bits.Mul64(a, wa)
	h2, l2 := bits.Mul64(b, wb)
	lo, carry := bits.Add64(l1, l2, 0)
	hi, overflow := bits.Add64(h1, h2, carry)
	if overflow != 0 || hi >= d {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, d)
	return q
}

func bps(amount, basisPoints uint64) uint64 {
	return mulDivSat(amount, basisPoints, bpsDenominator)
}
