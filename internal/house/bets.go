package house

import (
	"sort"
	"sync"
)

// betLedger records in-flight bets, sharded by player. Each shard carries the
// player's own sequence counter, so bets from different players never touch
// shared state beyond the shard lookup.
type betLedger struct {
	mu      sync.RWMutex
	players map[Address]*playerBets
}

type playerBets struct {
	mu   sync.Mutex
	next uint64
	bets map[uint64]*BetRecord
}

func newBetLedger() *betLedger {
	return &betLedger{players: make(map[Address]*playerBets)}
}

func (l *betLedger) shard(player Address, create bool) *playerBets {
	l.mu.RLock()
	p, ok := l.players[player]
	l.mu.RUnlock()
	if ok || !create {
		return p
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok = l.players[player]; ok {
		return p
	}
	p = &playerBets{bets: make(map[uint64]*BetRecord)}
	l.players[player] = p
	return p
}

// record mints the next BetID for the player and stores the bet under it.
func (l *betLedger) record(player Address, rec BetRecord) BetRecord {
	p := l.shard(player, true)
	p.mu.Lock()
	defer p.mu.Unlock()

	rec.ID = BetID{Player: player, Sequence: p.next}
	p.next++
	stored := rec
	p.bets[rec.ID.Sequence] = &stored
	return rec
}

// settle runs fn against the open bet with the shard locked and flips the
// settled flag only if fn succeeds.
func (l *betLedger) settle(id BetID, fn func(BetRecord) error) (BetRecord, error) {
	p := l.shard(id.Player, false)
	if p == nil {
		return BetRecord{}, ErrBetNotFound
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.bets[id.Sequence]
	if !ok {
		return BetRecord{}, ErrBetNotFound
	}
	if rec.Settled {
		return *rec, ErrAlreadySettled
	}
	if err := fn(*rec); err != nil {
		return *rec, err
	}
	rec.Settled = true
	return *rec, nil
}

func (l *betLedger) get(id BetID) (BetRecord, bool) {
	p := l.shard(id.Player, false)
	if p == nil {
		return BetRecord{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.bets[id.Sequence]
	if !ok {
		return BetRecord{}, false
	}
	return *rec, true
}

func (l *betLedger) open(player Address) []BetRecord {
	p := l.shard(player, false)
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []BetRecord
	for _, rec := range p.bets {
		if !rec.Settled {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Sequence < out[j].ID.Sequence })
	return out
}

// prune drops settled records. Shards are kept so sequences never repeat.
func (l *betLedger) prune() int {
	l.mu.RLock()
	shards := make([]*playerBets, 0, len(l.players))
	for _, p := range l.players {
		shards = append(shards, p)
	}
	l.mu.RUnlock()

	removed := 0
	for _, p := range shards {
		p.mu.Lock()
		for seq, rec := range p.bets {
			if rec.Settled {
				delete(p.bets, seq)
				removed++
			}
		}
		p.mu.Unlock()
	}
	return removed
}
