package house

import (
	"context"

	"go.uber.org/zap"

	"bx-treasury/internal/event"
)

// noCopy makes `go vet` flag copies of a Capability.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Capability is the proof of authorization a game presents to PlaceBet and
// SettleBet. Only ClaimCapability constructs one, at most once per
// registration, and the registry accepts exactly the pointer it handed out:
// a copied value is rejected.
type Capability struct {
	_    noCopy
	game GameID
}

// Game reports which game the capability is bound to.
func (c *Capability) Game() GameID {
	if c == nil {
		return ""
	}
	return c.game
}

// ClaimCapability mints the capability for game. Only the owner recorded at
// registration may claim it, and only once.
func (s *Service) ClaimCapability(ctx context.Context, caller Address, game GameID) (*Capability, error) {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()

	entry, ok := s.registry.games[game]
	if !ok {
		return nil, ErrGameNotRegistered
	}
	if entry.record.Owner != caller {
		return nil, ErrNotGameOwner
	}
	if entry.record.CapabilityClaimed {
		return nil, ErrCapabilityClaimed
	}

	c := &Capability{game: game}
	entry.cap = c
	entry.record.CapabilityClaimed = true

	s.log.Info("capability claimed", zap.String("game", string(game)), zap.String("owner", string(caller)))
	s.publish(event.EventCapabilityClaimed, CapabilityClaimed{Game: game, Owner: caller})

	return c, nil
}

// authorize resolves the capability to its live registry entry. The caller
// must hold registry.mu.
func (r *registry) authorize(c *Capability) (*gameEntry, error) {
	if c == nil {
		return nil, ErrInvalidCapability
	}
	entry, ok := r.games[c.game]
	if !ok {
		return nil, ErrGameNotRegistered
	}
	if entry.cap != c {
		return nil, ErrInvalidCapability
	}
	if !entry.record.Active {
		return nil, ErrGameInactive
	}
	return entry, nil
}
