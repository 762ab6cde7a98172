package house

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testAdmin    Address = "admin"
	testOwner    Address = "dice-owner"
	testInvestor Address = "investor"
	testPlayer   Address = "player"
	testGame     GameID  = "dice"
)

var errWalletEmpty = errors.New("wallet empty")
var errWalletDown = errors.New("wallet unavailable")

type memWallet struct {
	mu         sync.Mutex
	balances   map[Address]uint64
	failCredit map[Address]bool
}

func newMemWallet() *memWallet {
	return &memWallet{balances: make(map[Address]uint64), failCredit: make(map[Address]bool)}
}

func (w *memWallet) Debit(_ context.Context, addr Address, amount uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.balances[addr] < amount {
		return errWalletEmpty
	}
	w.balances[addr] -= amount
	return nil
}

func (w *memWallet) Credit(_ context.Context, addr Address, amount uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failCredit[addr] {
		return errWalletDown
	}
	w.balances[addr] += amount
	return nil
}

func (w *memWallet) fund(addr Address, amount uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[addr] += amount
}

func (w *memWallet) balance(addr Address) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[addr]
}

func (w *memWallet) total() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var t uint64
	for _, b := range w.balances {
		t += b
	}
	return t
}

func (w *memWallet) setFailCredit(addr Address, fail bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failCredit[addr] = fail
}

type published struct {
	name    string
	payload interface{}
}

type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(name string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{name, payload})
}

func (r *recorder) named(name string) []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []interface{}
	for _, e := range r.events {
		if e.name == name {
			out = append(out, e.payload)
		}
	}
	return out
}

type fixture struct {
	svc    *Service
	wallet *memWallet
	events *recorder
}

func newFixture(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()
	f := &fixture{wallet: newMemWallet(), events: &recorder{}}
	opts := Options{
		Admin:        testAdmin,
		RedeemFeeBps: 30,
		MinRedeemFee: 1_000,
		Wallet:       f.wallet,
		Publisher:    f.events,
		Logger:       zaptest.NewLogger(t),
	}
	for _, m := range mutate {
		m(&opts)
	}
	f.svc = New(opts)
	return f
}

// seed deposits investor capital into the central treasury.
func (f *fixture) seed(t *testing.T, amount uint64) {
	t.Helper()
	f.wallet.fund(testInvestor, amount)
	_, err := f.svc.DepositAndMint(context.Background(), testInvestor, amount)
	require.NoError(t, err)
}

// game registers a game owned by testOwner and claims its capability.
func (f *fixture) game(t *testing.T, id GameID, minBet, maxBet uint64) *Capability {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Register(ctx, testAdmin, GameSpec{
		ID:           id,
		Owner:        testOwner,
		Name:         string(id),
		Version:      1,
		MinBet:       minBet,
		MaxBet:       maxBet,
		HouseEdgeBps: 1667,
	})
	require.NoError(t, err)
	c, err := f.svc.ClaimCapability(ctx, testOwner, id)
	require.NoError(t, err)
	return c
}

func (f *fixture) account(t *testing.T, id GameID) Account {
	t.Helper()
	a, ok := f.svc.Account(id)
	require.True(t, ok)
	return a
}

// systemTotal is every unit the house and the wallets hold together.
func (f *fixture) systemTotal() uint64 {
	return f.svc.BankrollValue() + f.wallet.total()
}
