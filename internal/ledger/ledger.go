package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bx-treasury/internal/event"
	"bx-treasury/internal/house"
)

// Account names used in the journal.
const (
	AccountCentral = "treasury:central"
)

func GameAccount(id house.GameID) string      { return "treasury:game:" + string(id) }
func WalletAccount(addr house.Address) string { return "wallet:" + string(addr) }

// Line is one side of a journal posting.
type Line struct {
	Account string
	Debit   uint64
	Credit  uint64
}

// Service is an append-only double-entry journal of every treasury movement.
type Service struct {
	db  *sql.DB
	log *zap.Logger
}

func New(db *sql.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// Post writes a balanced set of lines under one fresh reference.
func (s *Service) Post(ctx context.Context, memo string, lines ...Line) (string, error) {
	var debits, credits uint64
	for _, l := range lines {
		debits += l.Debit
		credits += l.Credit
	}
	if debits != credits {
		return "", fmt.Errorf("unbalanced posting %q: debits %d credits %d", memo, debits, credits)
	}

	ref := uuid.New().String()
	ts := time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	for _, l := range lines {
		if l.Debit == 0 && l.Credit == 0 {
			continue
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger(ref,account,debit,credit,memo,ts)
		VALUES (?,?,?,?,?,?)
		`, ref, l.Account, int64(l.Debit), int64(l.Credit), memo, ts)
		if err != nil {
			return "", fmt.Errorf("record %s: %w", l.Account, err)
		}
	}

	return ref, tx.Commit()
}

// Balance is credits minus debits posted against account.
func (s *Service) Balance(ctx context.Context, account string) (int64, error) {
	var b sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
	SELECT SUM(credit) - SUM(debit) FROM ledger WHERE account = ?
	`, account).Scan(&b)
	if err != nil {
		return 0, err
	}
	return b.Int64, nil
}

func transfer(from, to string, amount uint64) []Line {
	return []Line{{Account: from, Debit: amount}, {Account: to, Credit: amount}}
}

func sourceAccount(game house.GameID, src house.Source) string {
	if src == house.SourceCentral {
		return AccountCentral
	}
	return GameAccount(game)
}

// Lines maps a house event to its journal posting. ok is false for events
// that move no funds.
func Lines(payload interface{}) (memo string, lines []Line, ok bool) {
	switch p := payload.(type) {
	case house.GameRegistered:
		if p.Reserve == 0 {
			return "", nil, false
		}
		return "reserve " + string(p.Game.ID), transfer(AccountCentral, GameAccount(p.Game.ID), p.Reserve), true
	case house.GameUnregistered:
		if p.Swept == 0 {
			return "", nil, false
		}
		return "sweep " + string(p.Game), transfer(GameAccount(p.Game), AccountCentral, p.Swept), true
	case house.BetPlaced:
		return "bet " + p.Bet.String(), transfer(WalletAccount(p.Bet.Player), sourceAccount(p.Game, p.Source), p.Amount), true
	case house.BetSettled:
		if p.Payout == 0 {
			return "", nil, false
		}
		return "payout " + p.Bet.String(), transfer(sourceAccount(p.Game, p.Source), WalletAccount(p.Winner), p.Payout), true
	case house.RebalanceResult:
		switch p.Action {
		case house.RebalanceSweep:
			return "rebalance sweep " + string(p.Game), transfer(GameAccount(p.Game), AccountCentral, p.Amount), true
		case house.RebalanceTopUp:
			return "rebalance topup " + string(p.Game), transfer(AccountCentral, GameAccount(p.Game), p.Amount), true
		}
	case house.EquityMinted:
		return "mint " + string(p.Investor), transfer(WalletAccount(p.Investor), AccountCentral, p.Amount), true
	case house.EquityRedeemed:
		if p.Net == 0 {
			return "", nil, false
		}
		return "redeem " + string(p.Investor), transfer(AccountCentral, WalletAccount(p.Investor), p.Net), true
	}
	return "", nil, false
}

// Subscribe journals every fund-moving house event.
func (s *Service) Subscribe(bus *event.Bus) {
	bus.SubscribeAll([]string{
		event.EventGameRegistered,
		event.EventGameUnregistered,
		event.EventBetPlaced,
		event.EventBetSettled,
		event.EventRebalanced,
		event.EventEquityMinted,
		event.EventEquityRedeemed,
	}, func(name string, payload interface{}) {
		memo, lines, ok := Lines(payload)
		if !ok {
			return
		}
		if _, err := s.Post(context.Background(), memo, lines...); err != nil {
			s.log.Error("journal posting failed", zap.String("event", name), zap.Error(err))
		}
	})
}
