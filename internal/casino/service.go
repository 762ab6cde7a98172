package casino

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"bx-treasury/internal/house"
)

// Table runs one game against the house. It holds the game's capability,
// claimed once at construction.
type Table struct {
	game        house.GameID
	engine      GameEngine
	house       *house.Service
	cap         *house.Capability
	seedManager *SeedManager

	mu       sync.Mutex
	nonceMap map[house.Address]uint64
	pending  []house.Settlement
}

// NewTable claims the capability for game on behalf of owner.
func NewTable(ctx context.Context, svc *house.Service, owner house.Address, game house.GameID, engine GameEngine) (*Table, error) {
	c, err := svc.ClaimCapability(ctx, owner, game)
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", game, err)
	}
	return &Table{
		game:        game,
		engine:      engine,
		house:       svc,
		cap:         c,
		seedManager: NewSeedManager(),
		nonceMap:    make(map[house.Address]uint64),
	}, nil
}

func (t *Table) Game() house.GameID { return t.game }

func (t *Table) Seeds() *SeedManager { return t.seedManager }

func (t *Table) nextNonce(player house.Address) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.nonceMap[player]
	t.nonceMap[player]++
	return n
}

// ReduceLimits asks the house to narrow this table's bet range.
func (t *Table) ReduceLimits(ctx context.Context, minBet, maxBet uint64) (house.GameRecord, error) {
	return t.house.RequestLimitReduction(ctx, t.cap, minBet, maxBet)
}

// capacity is what the ledger a new stake routes to could pay out once the
// stake lands in it.
func (t *Table) capacity(stake uint64) uint64 {
	acct, ok := t.house.Account(t.game)
	if !ok {
		return 0
	}
	available := acct.Balance
	if acct.Balance < acct.DrainThreshold {
		available = t.house.CentralAccount().Balance
	}
	if available > math.MaxUint64-stake {
		return math.MaxUint64
	}
	return available + stake
}

// Play places the wager, rolls, and settles. Wagers whose ceiling the routed
// ledger cannot cover are refused. If settlement still fails the bet stays
// open in the house, is queued for RetryPending, and the error is returned.
func (t *Table) Play(ctx context.Context, req PlayRequest) (*Result, error) {
	if err := ValidateMultiplier(req.Multiplier); err != nil {
		return nil, err
	}
	record, ok := t.house.Game(t.game)
	if !ok {
		return nil, house.ErrGameNotRegistered
	}

	maxPayout := t.engine.MaxPayout(req.Bet, req.Multiplier, record.HouseEdgeBps)
	if maxPayout > t.capacity(req.Bet) {
		return nil, ErrPayoutUncovered
	}
	source, betID, err := t.house.PlaceBet(ctx, t.cap, house.Wager{
		Player:    req.Player,
		Amount:    req.Bet,
		MaxPayout: maxPayout,
	})
	if err != nil {
		return nil, err
	}

	serverSeed, seedHash := t.seedManager.Current()
	nonce := t.nextNonce(req.Player)
	roll, hash := GenerateRoll(serverSeed, req.ClientSeed, nonce)

	win, payout := t.engine.Play(req.Bet, roll, req.Multiplier, record.HouseEdgeBps)

	st := house.Settlement{
		Bet:    betID,
		Winner: req.Player,
		Payout: payout,
		Source: source,
	}
	if _, err := t.house.SettleBet(ctx, t.cap, st); err != nil {
		if retryable(err) {
			t.mu.Lock()
			t.pending = append(t.pending, st)
			t.mu.Unlock()
		}
		return nil, fmt.Errorf("settle %s: %w", betID, err)
	}

	return &Result{
		Game:           t.game,
		Bet:            betID,
		Source:         source,
		Roll:           roll,
		Win:            win,
		Payout:         payout,
		Hash:           hash,
		Nonce:          nonce,
		ServerSeedHash: seedHash,
	}, nil
}

// retryable reports whether a failed settlement can succeed later unchanged.
// Validation failures and missing bets never will.
func retryable(err error) bool {
	switch house.KindOf(err) {
	case house.KindValidation, house.KindNotFound:
		return false
	}
	return true
}

// Pending returns the settlements waiting for a retry.
func (t *Table) Pending() []house.Settlement {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]house.Settlement(nil), t.pending...)
}

// RetryPending settles queued bets again. Settlements that can no longer
// succeed are dropped; the rest stay queued. It returns how many settled.
func (t *Table) RetryPending(ctx context.Context) (int, error) {
	t.mu.Lock()
	queue := t.pending
	t.pending = nil
	t.mu.Unlock()

	var (
		settled int
		keep    []house.Settlement
		errs    []error
	)
	for _, st := range queue {
		_, err := t.house.SettleBet(ctx, t.cap, st)
		switch {
		case err == nil:
			settled++
		case retryable(err):
			keep = append(keep, st)
			errs = append(errs, fmt.Errorf("settle %s: %w", st.Bet, err))
		}
	}

	t.mu.Lock()
	t.pending = append(keep, t.pending...)
	t.mu.Unlock()
	return settled, errors.Join(errs...)
}

// Tables indexes the running tables by game.
type Tables struct {
	mu     sync.RWMutex
	tables map[house.GameID]*Table
}

func NewTables() *Tables {
	return &Tables{tables: make(map[house.GameID]*Table)}
}

func (ts *Tables) Add(t *Table) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tables[t.game] = t
}

func (ts *Tables) Get(game house.GameID) (*Table, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	t, ok := ts.tables[game]
	return t, ok
}

func (ts *Tables) All() []*Table {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	out := make([]*Table, 0, len(ts.tables))
	for _, t := range ts.tables {
		out = append(out, t)
	}
	return out
}
