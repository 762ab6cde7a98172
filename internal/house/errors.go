package house

import "errors"

// Code is a machine-readable failure reason returned to callers.
type Code string

// Error is a typed failure surfaced by every house operation.
type Error struct {
	Code Code
	Kind Kind
	msg  string
}

// Kind groups failures by the way callers are expected to react.
type Kind int

const (
	KindAuthorization Kind = iota + 1
	KindValidation
	KindResource
	KindInvariant
	KindNotFound
)

func (e *Error) Error() string { return e.msg }

func newError(kind Kind, code Code, msg string) *Error {
	return &Error{Code: code, Kind: kind, msg: msg}
}

// Authorization
var (
	ErrNotAdmin          = newError(KindAuthorization, "NOT_ADMIN", "caller is not the house admin")
	ErrNotGameOwner      = newError(KindAuthorization, "NOT_GAME_OWNER", "caller does not own the game")
	ErrCapabilityClaimed = newError(KindAuthorization, "CAPABILITY_ALREADY_CLAIMED", "capability already claimed")
	ErrInvalidCapability = newError(KindAuthorization, "INVALID_CAPABILITY", "capability is not valid for any registered game")
	ErrGameNotRegistered = newError(KindAuthorization, "GAME_NOT_REGISTERED", "game is not registered")
	ErrGameInactive      = newError(KindAuthorization, "GAME_INACTIVE", "game is not active")
)

// Validation
var (
	ErrBetBelowMin           = newError(KindValidation, "BET_BELOW_MIN", "bet amount below game minimum")
	ErrBetAboveMax           = newError(KindValidation, "BET_ABOVE_MAX", "bet amount above game maximum")
	ErrInvalidLimits         = newError(KindValidation, "INVALID_LIMITS", "max bet must be >= min bet and min bet must be positive")
	ErrInvalidHouseEdge      = newError(KindValidation, "INVALID_HOUSE_EDGE", "house edge must be at most 10000 bps")
	ErrInvalidAmount         = newError(KindValidation, "INVALID_AMOUNT", "amount must be positive")
	ErrPayoutExceedsExpected = newError(KindValidation, "PAYOUT_EXCEEDS_EXPECTED", "payout exceeds expected payout")
	ErrAlreadySettled        = newError(KindValidation, "ALREADY_SETTLED", "bet already settled")
	ErrSourceMismatch        = newError(KindValidation, "SOURCE_MISMATCH", "treasury source does not match the accepted bet")
	ErrBetGameMismatch       = newError(KindValidation, "BET_GAME_MISMATCH", "bet was not placed by this game")
	ErrInvalidBetID          = newError(KindValidation, "INVALID_BET_ID", "malformed bet id")
	ErrInvalidAddress        = newError(KindValidation, "INVALID_ADDRESS", "address must not be empty")
	ErrInvalidGameID         = newError(KindValidation, "INVALID_GAME_ID", "game id must not be empty")
)

// Resource
var (
	ErrInsufficientTreasury = newError(KindResource, "INSUFFICIENT_TREASURY", "treasury balance cannot cover the transfer")
	ErrInsufficientTokens   = newError(KindResource, "INSUFFICIENT_TOKENS", "holder balance below redeemed tokens")
	ErrBankrollDepleted     = newError(KindResource, "BANKROLL_DEPLETED", "bankroll has no value backing outstanding tokens")
	ErrAmountOverflow       = newError(KindResource, "AMOUNT_OVERFLOW", "amount exceeds representable range")
)

// Invariant
var (
	ErrGameAlreadyRegistered = newError(KindInvariant, "GAME_ALREADY_REGISTERED", "game already registered")
	ErrLimitIncrease         = newError(KindInvariant, "LIMIT_INCREASE", "limit change would increase risk")
)

// Not found
var (
	ErrBetNotFound = newError(KindNotFound, "BET_NOT_FOUND", "bet not found")
)

// CodeOf returns the failure code carried by err, or "UNKNOWN".
func CodeOf(err error) Code {
	var he *Error
	if errors.As(err, &he) {
		return he.Code
	}
	return "UNKNOWN"
}

// KindOf returns the failure kind carried by err, or zero.
func KindOf(err error) Kind {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	return 0
}
