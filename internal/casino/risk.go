package casino

import "errors"

var (
	ErrInvalidMultiplier = errors.New("multiplier out of range")
	ErrUnknownGame       = errors.New("unknown game")
	ErrPayoutUncovered   = errors.New("potential payout exceeds what the house can cover")
)

// Multiplier bounds accepted by the tables, in basis points.
const (
	MinMultiplier = 10_100
	MaxMultiplier = 990_000
)

func ValidateMultiplier(m uint64) error {
	if m < MinMultiplier || m > MaxMultiplier {
		return ErrInvalidMultiplier
	}
	return nil
}
