package house

import "time"

// Publisher receives the audit events the house emits after each committed
// state change. event.Bus satisfies it.
type Publisher interface {
	Publish(event string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

type GameRegistered struct {
	Game    GameRecord `json:"game"`
	Reserve uint64     `json:"reserve"`
}

type GameUnregistered struct {
	Game  GameID `json:"game"`
	Swept uint64 `json:"swept"`
}

type CapabilityClaimed struct {
	Game  GameID  `json:"game"`
	Owner Address `json:"owner"`
}

type BetPlaced struct {
	Bet    BetID  `json:"bet"`
	Game   GameID `json:"game"`
	Amount uint64 `json:"amount"`
	Source Source `json:"source"`
}

// BetSettled is the settlement audit record.
type BetSettled struct {
	Bet    BetID   `json:"bet"`
	Game   GameID  `json:"game"`
	Amount uint64  `json:"amount"`
	Winner Address `json:"winner"`
	Payout uint64  `json:"payout"`
	Source Source  `json:"source"`
}

type EquityMinted struct {
	Investor Address `json:"investor"`
	Amount   uint64  `json:"amount"`
	Tokens   uint64  `json:"tokens"`
}

type EquityRedeemed struct {
	Investor Address `json:"investor"`
	Tokens   uint64  `json:"tokens"`
	Gross    uint64  `json:"gross"`
	Fee      uint64  `json:"fee"`
	Net      uint64  `json:"net"`
}

// Snapshot is the informational NAV record persisted after every mint and
// redeem. Authoritative NAV is always recomputed from live totals.
type Snapshot struct {
	NAV         uint64    `json:"nav"`
	TotalSupply uint64    `json:"total_supply"`
	Bankroll    uint64    `json:"bankroll"`
	TakenAt     time.Time `json:"taken_at"`
}
