package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"bx-treasury/internal/house"
)

var (
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrInvalidAmount     = errors.New("invalid wallet amount")
)

// Service keeps player and investor balances. It implements house.Wallet.
type Service struct {
	db *sql.DB
}

func New(db *sql.DB) *Service {
	return &Service{db: db}
}

func checkAmount(amount uint64) error {
	if amount == 0 || amount > math.MaxInt64 {
		return ErrInvalidAmount
	}
	return nil
}

func (s *Service) Credit(ctx context.Context, addr house.Address, amount uint64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO wallets(address, balance) VALUES (?, ?)
	ON CONFLICT(address) DO UPDATE SET balance = balance + excluded.balance
	`, string(addr), int64(amount))
	if err != nil {
		return fmt.Errorf("credit wallet: %w", err)
	}
	return nil
}

func (s *Service) Debit(ctx context.Context, addr house.Address, amount uint64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
	UPDATE wallets SET balance = balance - ?
	WHERE address = ? AND balance >= ?
	`, int64(amount), string(addr), int64(amount))
	if err != nil {
		return fmt.Errorf("debit wallet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientFunds
	}

	return tx.Commit()
}

func (s *Service) Balance(ctx context.Context, addr house.Address) (uint64, error) {
	var b int64
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE address = ?`, string(addr)).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return uint64(b), nil
}
