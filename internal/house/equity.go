package house

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"bx-treasury/internal/event"
)

// equityLedger is the investor token supply and per-holder balances. Its lock
// is always taken before any treasury lock.
type equityLedger struct {
	mu          sync.Mutex
	totalSupply uint64
	holders     map[Address]uint64
	last        Snapshot
}

func newEquityLedger() *equityLedger {
	return &equityLedger{holders: make(map[Address]uint64)}
}

func navOf(bankroll, supply uint64) uint64 {
	if supply == 0 {
		return Scale
	}
	return mulDivSat(bankroll, Scale, supply)
}

// NAV is the bankroll value per token, scaled by Scale.
func (s *Service) NAV() uint64 {
	s.equity.mu.Lock()
	defer s.equity.mu.Unlock()
	return navOf(s.treasury.composition().Total, s.equity.totalSupply)
}

func (s *Service) TotalSupply() uint64 {
	s.equity.mu.Lock()
	defer s.equity.mu.Unlock()
	return s.equity.totalSupply
}

func (s *Service) HolderBalance(holder Address) uint64 {
	s.equity.mu.Lock()
	defer s.equity.mu.Unlock()
	return s.equity.holders[holder]
}

// LastSnapshot returns the NAV recorded after the latest mint or redeem.
func (s *Service) LastSnapshot() Snapshot {
	s.equity.mu.Lock()
	defer s.equity.mu.Unlock()
	return s.equity.last
}

// takeSnapshot records the NAV. Callers hold the equity lock.
func (s *Service) takeSnapshot(bankroll uint64) Snapshot {
	s.equity.last = Snapshot{
		NAV:         navOf(bankroll, s.equity.totalSupply),
		TotalSupply: s.equity.totalSupply,
		Bankroll:    bankroll,
		TakenAt:     s.now(),
	}
	return s.equity.last
}

// DepositAndMint moves amount from the investor's wallet into the central
// treasury and mints tokens priced off the pre-deposit bankroll value.
func (s *Service) DepositAndMint(ctx context.Context, investor Address, amount uint64) (EquityMinted, error) {
	if amount == 0 {
		return EquityMinted{}, ErrInvalidAmount
	}
	if investor == "" {
		return EquityMinted{}, ErrInvalidAddress
	}
	if err := s.wallet.Debit(ctx, investor, amount); err != nil {
		return EquityMinted{}, fmt.Errorf("debit investor: %w", err)
	}

	s.equity.mu.Lock()
	defer s.equity.mu.Unlock()

	tokens, snap, err := s.mintLocked(investor, amount)
	if err != nil {
		if rerr := s.wallet.Credit(ctx, investor, amount); rerr != nil {
			s.log.Error("refund after failed mint", zap.String("investor", string(investor)), zap.Uint64("amount", amount), zap.Error(rerr))
			return EquityMinted{}, errors.Join(err, rerr)
		}
		return EquityMinted{}, err
	}

	minted := EquityMinted{Investor: investor, Amount: amount, Tokens: tokens}
	s.log.Info("equity minted",
		zap.String("investor", string(investor)),
		zap.Uint64("amount", amount),
		zap.Uint64("tokens", tokens),
		zap.Uint64("nav", snap.NAV),
	)
	s.publish(event.EventEquityMinted, minted)
	s.publish(event.EventNAVUpdated, snap)

	return minted, nil
}

func (s *Service) mintLocked(investor Address, amount uint64) (uint64, Snapshot, error) {
	games, unlock := s.treasury.lockAll()
	defer unlock()

	bankroll := s.treasury.compositionLocked(games).Total
	supply := s.equity.totalSupply

	tokens := amount
	if supply > 0 {
		if bankroll == 0 {
			return 0, Snapshot{}, ErrBankrollDepleted
		}
		var ok bool
		tokens, ok = mulDiv(amount, supply, bankroll)
		if !ok {
			return 0, Snapshot{}, ErrAmountOverflow
		}
		if tokens == 0 {
			return 0, Snapshot{}, ErrInvalidAmount
		}
	}
	if supply+tokens < supply {
		return 0, Snapshot{}, ErrAmountOverflow
	}

	s.treasury.central.Balance += amount
	s.equity.totalSupply += tokens
	s.equity.holders[investor] += tokens

	return tokens, s.takeSnapshot(bankroll + amount), nil
}

// Redeem burns tokens and pays their NAV value, less the redemption fee, from
// the central treasury. The fee never leaves the bankroll.
func (s *Service) Redeem(ctx context.Context, investor Address, tokens uint64) (EquityRedeemed, error) {
	if tokens == 0 {
		return EquityRedeemed{}, ErrInvalidAmount
	}

	s.equity.mu.Lock()
	defer s.equity.mu.Unlock()

	if s.equity.holders[investor] < tokens {
		return EquityRedeemed{}, ErrInsufficientTokens
	}

	red, snap, err := s.burnLocked(investor, tokens)
	if err != nil {
		return EquityRedeemed{}, err
	}

	if red.Net > 0 {
		if err := s.wallet.Credit(ctx, investor, red.Net); err != nil {
			s.treasury.depositCentral(red.Net)
			s.equity.totalSupply += tokens
			s.equity.holders[investor] += tokens
			s.takeSnapshot(s.treasury.composition().Total)
			return EquityRedeemed{}, fmt.Errorf("credit investor: %w", err)
		}
	}

	s.log.Info("equity redeemed",
		zap.String("investor", string(investor)),
		zap.Uint64("tokens", tokens),
		zap.Uint64("net", red.Net),
		zap.Uint64("fee", red.Fee),
		zap.Uint64("nav", snap.NAV),
	)
	s.publish(event.EventEquityRedeemed, red)
	s.publish(event.EventNAVUpdated, snap)

	return red, nil
}

func (s *Service) burnLocked(investor Address, tokens uint64) (EquityRedeemed, Snapshot, error) {
	games, unlock := s.treasury.lockAll()
	defer unlock()

	bankroll := s.treasury.compositionLocked(games).Total
	nav := navOf(bankroll, s.equity.totalSupply)
	gross := mulDivSat(tokens, nav, Scale)
	fee := max(bps(gross, s.redeemFeeBps), s.minRedeemFee)
	var net uint64
	if gross > fee {
		net = gross - fee
	}
	if net > bankroll || net > s.treasury.central.Balance {
		return EquityRedeemed{}, Snapshot{}, ErrInsufficientTreasury
	}

	s.equity.holders[investor] -= tokens
	if s.equity.holders[investor] == 0 {
		delete(s.equity.holders, investor)
	}
	s.equity.totalSupply -= tokens
	s.treasury.central.Balance -= net

	red := EquityRedeemed{Investor: investor, Tokens: tokens, Gross: gross, Fee: gross - net, Net: net}
	return red, s.takeSnapshot(bankroll - net), nil
}
