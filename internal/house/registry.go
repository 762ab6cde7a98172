package house

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"bx-treasury/internal/event"
)

// registry is the catalog of authorized games.
//
// Bet placement and settlement hold mu shared for their whole duration, so
// they never observe a game half way through registration, unregistration or
// a limit change. Administrative operations hold it exclusively.
type registry struct {
	mu    sync.RWMutex
	games map[GameID]*gameEntry
}

type gameEntry struct {
	record GameRecord
	cap    *Capability
}

func newRegistry() *registry {
	return &registry{games: make(map[GameID]*gameEntry)}
}

func validateLimits(minBet, maxBet uint64) error {
	if minBet == 0 || maxBet < minBet {
		return ErrInvalidLimits
	}
	return nil
}

// Register adds a game to the catalog and opens its sub-treasury, funded from
// the central treasury with ReserveMultiple times the game's max bet (or as
// much of it as the central treasury holds).
func (s *Service) Register(ctx context.Context, caller Address, spec GameSpec) (GameRecord, error) {
	if caller != s.admin {
		return GameRecord{}, ErrNotAdmin
	}
	if spec.ID == "" {
		return GameRecord{}, ErrInvalidGameID
	}
	if spec.Owner == "" {
		return GameRecord{}, ErrInvalidAddress
	}
	if err := validateLimits(spec.MinBet, spec.MaxBet); err != nil {
		return GameRecord{}, err
	}
	if spec.HouseEdgeBps > bpsDenominator {
		return GameRecord{}, ErrInvalidHouseEdge
	}

	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()

	if _, ok := s.registry.games[spec.ID]; ok {
		return GameRecord{}, ErrGameAlreadyRegistered
	}

	record := GameRecord{
		ID:           spec.ID,
		Name:         spec.Name,
		Version:      spec.Version,
		Owner:        spec.Owner,
		MinBet:       spec.MinBet,
		MaxBet:       spec.MaxBet,
		HouseEdgeBps: spec.HouseEdgeBps,
		Active:       true,
	}
	s.registry.games[spec.ID] = &gameEntry{record: record}

	target := mulDivSat(spec.MaxBet, s.reserveMultiple, 1)
	funded := s.treasury.open(spec.ID, target)

	s.log.Info("game registered",
		zap.String("game", string(spec.ID)),
		zap.Uint64("min_bet", spec.MinBet),
		zap.Uint64("max_bet", spec.MaxBet),
		zap.Uint64("reserve", funded),
	)
	s.publish(event.EventGameRegistered, GameRegistered{Game: record, Reserve: funded})

	return record, nil
}

// Unregister removes a game and sweeps its sub-treasury back to the center.
// The game's capability stops working; open bets can no longer be settled.
func (s *Service) Unregister(ctx context.Context, caller Address, game GameID) error {
	if caller != s.admin {
		return ErrNotAdmin
	}

	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()

	if _, ok := s.registry.games[game]; !ok {
		return ErrGameNotRegistered
	}
	delete(s.registry.games, game)
	swept := s.treasury.close(game)

	s.log.Info("game unregistered", zap.String("game", string(game)), zap.Uint64("swept", swept))
	s.publish(event.EventGameUnregistered, GameUnregistered{Game: game, Swept: swept})

	return nil
}

// UpdateLimits lets the admin set a game's bet limits freely.
func (s *Service) UpdateLimits(ctx context.Context, caller Address, game GameID, minBet, maxBet uint64) (GameRecord, error) {
	if caller != s.admin {
		return GameRecord{}, ErrNotAdmin
	}
	if err := validateLimits(minBet, maxBet); err != nil {
		return GameRecord{}, err
	}
	return s.mutateGame(game, event.EventLimitsUpdated, func(r *GameRecord) {
		r.MinBet, r.MaxBet = minBet, maxBet
	})
}

// RequestLimitReduction is the game-initiated limit change. It can only
// shrink the accepted range: raise the minimum or lower the maximum.
func (s *Service) RequestLimitReduction(ctx context.Context, c *Capability, minBet, maxBet uint64) (GameRecord, error) {
	if err := validateLimits(minBet, maxBet); err != nil {
		return GameRecord{}, err
	}

	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()

	entry, err := s.registry.authorize(c)
	if err != nil {
		return GameRecord{}, err
	}
	if minBet < entry.record.MinBet || maxBet > entry.record.MaxBet {
		return GameRecord{}, ErrLimitIncrease
	}
	entry.record.MinBet, entry.record.MaxBet = minBet, maxBet

	s.log.Info("limits reduced", zap.String("game", string(c.game)), zap.Uint64("min_bet", minBet), zap.Uint64("max_bet", maxBet))
	s.publish(event.EventLimitsUpdated, entry.record)

	return entry.record, nil
}

// UpdateHouseEdge sets a game's house edge in basis points.
func (s *Service) UpdateHouseEdge(ctx context.Context, caller Address, game GameID, edgeBps uint64) (GameRecord, error) {
	if caller != s.admin {
		return GameRecord{}, ErrNotAdmin
	}
	if edgeBps > bpsDenominator {
		return GameRecord{}, ErrInvalidHouseEdge
	}
	return s.mutateGame(game, event.EventHouseEdgeUpdated, func(r *GameRecord) {
		r.HouseEdgeBps = edgeBps
	})
}

// SetActive pauses or resumes a game.
func (s *Service) SetActive(ctx context.Context, caller Address, game GameID, active bool) (GameRecord, error) {
	if caller != s.admin {
		return GameRecord{}, ErrNotAdmin
	}
	return s.mutateGame(game, event.EventGameStatusChanged, func(r *GameRecord) {
		r.Active = active
	})
}

func (s *Service) mutateGame(game GameID, name string, fn func(*GameRecord)) (GameRecord, error) {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()

	entry, ok := s.registry.games[game]
	if !ok {
		return GameRecord{}, ErrGameNotRegistered
	}
	updated := entry.record
	fn(&updated)
	entry.record = updated

	s.log.Info("game updated", zap.String("game", string(game)), zap.String("change", name))
	s.publish(name, updated)

	return updated, nil
}

// Game returns a copy of a registered game's record.
func (s *Service) Game(game GameID) (GameRecord, bool) {
	s.registry.mu.RLock()
	defer s.registry.mu.RUnlock()

	entry, ok := s.registry.games[game]
	if !ok {
		return GameRecord{}, false
	}
	return entry.record, true
}

// Games lists every registered game ordered by id.
func (s *Service) Games() []GameRecord {
	s.registry.mu.RLock()
	defer s.registry.mu.RUnlock()

	out := make([]GameRecord, 0, len(s.registry.games))
	for _, entry := range s.registry.games {
		out = append(out, entry.record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
