package house

import (
	"fmt"
	"strconv"
	"strings"
)

// Scale is the fixed-point factor NAV is expressed in (1.0 == Scale).
const Scale uint64 = 100_000_000

const bpsDenominator uint64 = 10_000

// Address identifies players, investors, game owners and the admin.
type Address string

// GameID is the identity a game registers under.
type GameID string

// Source names the ledger a bet's funds landed in and its payout is drawn from.
type Source uint8

const (
	SourceCentral Source = iota + 1
	SourceGame
)

func (s Source) String() string {
	switch s {
	case SourceCentral:
		return "central"
	case SourceGame:
		return "game"
	default:
		return "unknown"
	}
}

// ParseSource is the inverse of Source.String.
func ParseSource(s string) (Source, error) {
	switch s {
	case "central":
		return SourceCentral, nil
	case "game":
		return SourceGame, nil
	}
	return 0, fmt.Errorf("unknown treasury source %q", s)
}

// BetID is collision free without a shared counter: the player plus that
// player's own sequence number.
type BetID struct {
	Player   Address `json:"player"`
	Sequence uint64  `json:"sequence"`
}

func (id BetID) String() string {
	return string(id.Player) + ":" + strconv.FormatUint(id.Sequence, 10)
}

// ParseBetID parses the "player:sequence" form produced by BetID.String.
func ParseBetID(s string) (BetID, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 || i == len(s)-1 {
		return BetID{}, ErrInvalidBetID
	}
	seq, err := strconv.ParseUint(s[i+1:], 10, 64)
	if err != nil {
		return BetID{}, ErrInvalidBetID
	}
	return BetID{Player: Address(s[:i]), Sequence: seq}, nil
}

// GameRecord is a registered game and its risk parameters.
type GameRecord struct {
	ID                GameID  `json:"id"`
	Name              string  `json:"name"`
	Version           uint32  `json:"version"`
	Owner             Address `json:"owner"`
	MinBet            uint64  `json:"min_bet"`
	MaxBet            uint64  `json:"max_bet"`
	HouseEdgeBps      uint64  `json:"house_edge_bps"`
	Active            bool    `json:"active"`
	CapabilityClaimed bool    `json:"capability_claimed"`
}

// GameSpec is the input to Register.
type GameSpec struct {
	ID           GameID
	Owner        Address
	Name         string
	Version      uint32
	MinBet       uint64
	MaxBet       uint64
	HouseEdgeBps uint64
}

// Wager is what a game submits to PlaceBet. MaxPayout is the payout ceiling
// recorded at accept time; zero records no ceiling.
type Wager struct {
	Player    Address
	Amount    uint64
	MaxPayout uint64
}

// BetRecord is an in-flight or settled wager.
type BetRecord struct {
	ID             BetID  `json:"id"`
	Game           GameID `json:"game"`
	Amount         uint64 `json:"amount"`
	ExpectedPayout uint64 `json:"expected_payout"`
	Source         Source `json:"source"`
	Settled        bool   `json:"settled"`
}

// Settlement is what a game submits to SettleBet.
type Settlement struct {
	Bet    BetID
	Winner Address
	Payout uint64
	Source Source
}

// Composition is the split of bankroll value between ledgers.
type Composition struct {
	Central uint64 `json:"central"`
	Games   uint64 `json:"games"`
	Total   uint64 `json:"total"`
}

func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Source) UnmarshalText(b []byte) error {
	v, err := ParseSource(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
