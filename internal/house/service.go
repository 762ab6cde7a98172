package house

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bx-treasury/internal/event"
)

// Wallet is where bet stakes and investor capital come from and where
// payouts and redemptions go.
type Wallet interface {
	Debit(ctx context.Context, addr Address, amount uint64) error
	Credit(ctx context.Context, addr Address, amount uint64) error
}

// externalFunds is used when no Wallet is configured: funds are moved by the
// host outside the house.
type externalFunds struct{}

func (externalFunds) Debit(context.Context, Address, uint64) error  { return nil }
func (externalFunds) Credit(context.Context, Address, uint64) error { return nil }

type Options struct {
	Admin Address

	// ReserveMultiple sizes a new game's sub-treasury as a multiple of its max bet.
	ReserveMultiple uint64
	// SafetyMultiplier scales each accepted bet before it is folded into the
	// rolling volume that sets the reserve target.
	SafetyMultiplier uint64
	RedeemFeeBps     uint64
	MinRedeemFee     uint64

	Wallet    Wallet
	Publisher Publisher
	Logger    *zap.Logger
	Now       func() time.Time
}

const (
	DefaultReserveMultiple  = 10
	DefaultSafetyMultiplier = 100
)

// Service is the treasury and settlement engine: game registry, capability
// issuer, bet ledger, treasury manager with rebalancing, and the equity
// engine. Construct one per process and share it.
type Service struct {
	admin            Address
	reserveMultiple  uint64
	safetyMultiplier uint64
	redeemFeeBps     uint64
	minRedeemFee     uint64

	registry *registry
	bets     *betLedger
	treasury *treasury
	equity   *equityLedger

	wallet Wallet
	pub    Publisher
	log    *zap.Logger
	now    func() time.Time
}

func New(opts Options) *Service {
	s := &Service{
		admin:            opts.Admin,
		reserveMultiple:  opts.ReserveMultiple,
		safetyMultiplier: opts.SafetyMultiplier,
		redeemFeeBps:     opts.RedeemFeeBps,
		minRedeemFee:     opts.MinRedeemFee,
		registry:         newRegistry(),
		bets:             newBetLedger(),
		treasury:         newTreasury(),
		equity:           newEquityLedger(),
		wallet:           opts.Wallet,
		pub:              opts.Publisher,
		log:              opts.Logger,
		now:              opts.Now,
	}
	if s.reserveMultiple == 0 {
		s.reserveMultiple = DefaultReserveMultiple
	}
	if s.safetyMultiplier == 0 {
		s.safetyMultiplier = DefaultSafetyMultiplier
	}
	if s.redeemFeeBps > bpsDenominator {
		s.redeemFeeBps = bpsDenominator
	}
	if s.wallet == nil {
		s.wallet = externalFunds{}
	}
	if s.pub == nil {
		s.pub = nopPublisher{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) publish(name string, payload interface{}) {
	s.pub.Publish(name, payload)
}

// PlaceBet accepts a wager for the capability's game. The stake lands in the
// game's sub-treasury unless that is below its drain threshold, in which case
// it lands in the central treasury. The returned source must be passed back
// unchanged to SettleBet.
func (s *Service) PlaceBet(ctx context.Context, c *Capability, w Wager) (Source, BetID, error) {
	if w.Player == "" {
		return 0, BetID{}, ErrInvalidAddress
	}

	s.registry.mu.RLock()
	defer s.registry.mu.RUnlock()

	entry, err := s.registry.authorize(c)
	if err != nil {
		return 0, BetID{}, err
	}
	if w.Amount < entry.record.MinBet {
		return 0, BetID{}, ErrBetBelowMin
	}
	if w.Amount > entry.record.MaxBet {
		return 0, BetID{}, ErrBetAboveMax
	}
	acct, ok := s.treasury.game(c.game)
	if !ok {
		return 0, BetID{}, ErrGameNotRegistered
	}

	if err := s.wallet.Debit(ctx, w.Player, w.Amount); err != nil {
		return 0, BetID{}, fmt.Errorf("debit player: %w", err)
	}

	source := s.route(acct, w.Amount)
	rec := s.bets.record(w.Player, BetRecord{
		Game:           c.game,
		Amount:         w.Amount,
		ExpectedPayout: w.MaxPayout,
		Source:         source,
	})

	s.log.Debug("bet placed",
		zap.String("game", string(c.game)),
		zap.String("player", string(w.Player)),
		zap.Uint64("seq", rec.ID.Sequence),
		zap.Uint64("amount", w.Amount),
		zap.Stringer("source", source),
	)
	s.publish(event.EventBetPlaced, BetPlaced{Bet: rec.ID, Game: c.game, Amount: w.Amount, Source: source})

	return source, rec.ID, nil
}

// route deposits a stake and reports where it landed.
func (s *Service) route(acct *account, amount uint64) Source {
	acct.mu.Lock()
	if acct.Balance < acct.DrainThreshold {
		acct.mu.Unlock()
		s.treasury.depositCentral(amount)
		return SourceCentral
	}
	acct.Balance += amount
	trackVolume(acct, amount, s.safetyMultiplier)
	acct.mu.Unlock()
	return SourceGame
}

// SettleBet pays out an accepted bet exactly once, then rebalances the game's
// sub-treasury. A zero payout settles a losing bet.
func (s *Service) SettleBet(ctx context.Context, c *Capability, st Settlement) (BetSettled, error) {
	if st.Payout > 0 && st.Winner == "" {
		return BetSettled{}, ErrInvalidAddress
	}

	s.registry.mu.RLock()
	defer s.registry.mu.RUnlock()

	if _, err := s.registry.authorize(c); err != nil {
		return BetSettled{}, err
	}
	acct, ok := s.treasury.game(c.game)
	if !ok {
		return BetSettled{}, ErrGameNotRegistered
	}

	rec, err := s.bets.settle(st.Bet, func(rec BetRecord) error {
		if rec.Game != c.game {
			return ErrBetGameMismatch
		}
		if rec.Source != st.Source {
			return ErrSourceMismatch
		}
		if rec.ExpectedPayout > 0 && st.Payout > rec.ExpectedPayout {
			return ErrPayoutExceedsExpected
		}
		if st.Payout == 0 {
			return nil
		}
		return s.pay(ctx, s.sourceAccount(acct, rec.Source), st.Winner, st.Payout)
	})
	if err != nil {
		return BetSettled{}, err
	}

	settled := BetSettled{
		Bet:    rec.ID,
		Game:   rec.Game,
		Amount: rec.Amount,
		Winner: st.Winner,
		Payout: st.Payout,
		Source: rec.Source,
	}
	s.log.Debug("bet settled",
		zap.String("game", string(c.game)),
		zap.String("player", string(rec.ID.Player)),
		zap.Uint64("seq", rec.ID.Sequence),
		zap.Uint64("payout", st.Payout),
		zap.Stringer("source", rec.Source),
	)

	res := s.treasury.rebalance(acct)
	s.publish(event.EventBetSettled, settled)
	if res.Action != RebalanceNone {
		s.log.Info("treasury rebalanced",
			zap.String("game", string(res.Game)),
			zap.String("action", res.Action),
			zap.Uint64("amount", res.Amount),
			zap.Uint64("balance", res.Balance),
			zap.Uint64("target", res.Target),
		)
		s.publish(event.EventRebalanced, res)
	}

	return settled, nil
}

func (s *Service) sourceAccount(game *account, src Source) *account {
	if src == SourceCentral {
		return &s.treasury.central
	}
	return game
}

// pay moves a payout from a ledger to the winner's wallet, or not at all.
func (s *Service) pay(ctx context.Context, from *account, winner Address, amount uint64) error {
	if err := withdraw(from, amount); err != nil {
		return err
	}
	if err := s.wallet.Credit(ctx, winner, amount); err != nil {
		deposit(from, amount)
		return fmt.Errorf("credit winner: %w", err)
	}
	return nil
}

// Bet returns a bet record, settled or not, until it is pruned.
func (s *Service) Bet(id BetID) (BetRecord, bool) {
	return s.bets.get(id)
}

// OpenBets lists a player's unsettled bets in sequence order.
func (s *Service) OpenBets(player Address) []BetRecord {
	return s.bets.open(player)
}

// PruneSettled drops settled bet records and returns how many were removed.
func (s *Service) PruneSettled() int {
	return s.bets.prune()
}

// BankrollValue is the central balance plus every sub-treasury balance.
func (s *Service) BankrollValue() uint64 {
	return s.treasury.composition().Total
}

func (s *Service) TreasuryComposition() Composition {
	return s.treasury.composition()
}

func (s *Service) CentralAccount() Account {
	return s.treasury.central.snapshot()
}

// Account returns a game's sub-treasury.
func (s *Service) Account(game GameID) (Account, bool) {
	a, ok := s.treasury.game(game)
	if !ok {
		return Account{}, false
	}
	return a.snapshot(), true
}

func (s *Service) Accounts() []Account {
	return s.treasury.accounts()
}
