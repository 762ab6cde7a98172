package house

import (
	"sort"
	"sync"
)

// Account is a snapshot of one treasury ledger.
type Account struct {
	Game              GameID `json:"game,omitempty"`
	Balance           uint64 `json:"balance"`
	TargetReserve     uint64 `json:"target_reserve"`
	OverflowThreshold uint64 `json:"overflow_threshold"`
	DrainThreshold    uint64 `json:"drain_threshold"`
	RollingVolume     uint64 `json:"rolling_volume"`
}

// account is one independently lockable ledger. Lock order is treasury.mu,
// then game accounts (ascending id when more than one), then the central
// account.
type account struct {
	mu sync.Mutex
	Account
}

func (a *account) snapshot() Account {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Account
}

// setTarget recomputes the thresholds derived from the target reserve.
func (a *account) setTarget(target uint64) {
	a.TargetReserve = target
	a.OverflowThreshold = mulDivSat(target, 110, 100)
	a.DrainThreshold = mulDivSat(target, 25, 100)
}

// treasury owns the central bankroll and one isolated sub-treasury per game.
// Each sub-treasury is a separate lock so different games never contend;
// only flows routed through the central account serialize.
type treasury struct {
	central account

	mu    sync.RWMutex
	games map[GameID]*account
}

func newTreasury() *treasury {
	return &treasury{games: make(map[GameID]*account)}
}

func (t *treasury) game(id GameID) (*account, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.games[id]
	return a, ok
}

// open creates the sub-treasury for a game with the given target reserve and
// funds it from the central account with as much of the target as the
// central account holds. It returns the amount funded.
func (t *treasury) open(id GameID, target uint64) uint64 {
	a := &account{}
	a.Game = id
	a.RollingVolume = target
	a.setTarget(target)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.central.mu.Lock()
	defer t.central.mu.Unlock()

	funded := min(target, t.central.Balance)
	t.central.Balance -= funded
	a.Balance = funded
	t.games[id] = a

	return funded
}

// close removes a game's sub-treasury and sweeps its balance to the center.
func (t *treasury) close(id GameID) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.games[id]
	if !ok {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	t.central.mu.Lock()
	defer t.central.mu.Unlock()

	swept := a.Balance
	a.Balance = 0
	t.central.Balance += swept
	delete(t.games, id)
	return swept
}

func (t *treasury) depositCentral(amount uint64) {
	t.central.mu.Lock()
	t.central.Balance += amount
	t.central.mu.Unlock()
}

// withdraw atomically debits a single ledger.
func withdraw(a *account, amount uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Balance < amount {
		return ErrInsufficientTreasury
	}
	a.Balance -= amount
	return nil
}

func deposit(a *account, amount uint64) {
	a.mu.Lock()
	a.Balance += amount
	a.mu.Unlock()
}

// lockAll locks every ledger in the fixed order and returns the unlock func.
func (t *treasury) lockAll() (games []*account, unlock func()) {
	t.mu.RLock()
	ids := make([]GameID, 0, len(t.games))
	for id := range t.games {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	games = make([]*account, 0, len(ids))
	for _, id := range ids {
		a := t.games[id]
		a.mu.Lock()
		games = append(games, a)
	}
	t.central.mu.Lock()

	return games, func() {
		t.central.mu.Unlock()
		for i := len(games) - 1; i >= 0; i-- {
			games[i].mu.Unlock()
		}
		t.mu.RUnlock()
	}
}

// compositionLocked sums the ledgers. Callers hold every ledger lock.
func (t *treasury) compositionLocked(games []*account) Composition {
	var c Composition
	c.Central = t.central.Balance
	for _, a := range games {
		c.Games += a.Balance
	}
	c.Total = c.Central + c.Games
	return c
}

func (t *treasury) composition() Composition {
	games, unlock := t.lockAll()
	defer unlock()
	return t.compositionLocked(games)
}

func (t *treasury) accounts() []Account {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Account, 0, len(t.games))
	for _, a := range t.games {
		out = append(out, a.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Game < out[j].Game })
	return out
}
