package house

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bx-treasury/internal/event"
)

func TestPlaceBet(t *testing.T) {
	ctx := context.Background()

	t.Run("should route a stake into a healthy sub-treasury", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 1_000_000_000)
		c := f.game(t, testGame, 1_000_000, 50_000_000)
		f.wallet.fund(testPlayer, 10_000_000)
		before := f.systemTotal()

		src, id, err := f.svc.PlaceBet(ctx, c, Wager{Player: testPlayer, Amount: 5_000_000, MaxPayout: 10_000_000})
		require.NoError(t, err)
		assert.Equal(t, SourceGame, src)
		assert.Equal(t, BetID{Player: testPlayer, Sequence: 0}, id)

		acct := f.account(t, testGame)
		assert.Equal(t, uint64(505_000_000), acct.Balance)
		assert.Equal(t, uint64(500_000_000), acct.RollingVolume)
		assert.Equal(t, uint64(5_000_000), f.wallet.balance(testPlayer))
		assert.Equal(t, before, f.systemTotal())

		rec, ok := f.svc.Bet(id)
		require.True(t, ok)
		assert.Equal(t, uint64(5_000_000), rec.Amount)
		assert.Equal(t, uint64(10_000_000), rec.ExpectedPayout)
		assert.False(t, rec.Settled)
		assert.Len(t, f.events.named(event.EventBetPlaced), 1)
	})

	t.Run("should route a stake to the center when the sub-treasury is drained", func(t *testing.T) {
		f := newFixture(t)
		c := f.game(t, testGame, 1_000_000, 50_000_000)
		f.wallet.fund(testPlayer, 5_000_000)

		src, _, err := f.svc.PlaceBet(ctx, c, Wager{Player: testPlayer, Amount: 5_000_000})
		require.NoError(t, err)
		assert.Equal(t, SourceCentral, src)
		assert.Equal(t, uint64(5_000_000), f.svc.CentralAccount().Balance)
		assert.Zero(t, f.account(t, testGame).Balance)
	})

	t.Run("should reject stakes outside the limits without moving funds", func(t *testing.T) {
		f := newFixture(t)
		c := f.game(t, testGame, 1_000_000, 50_000_000)
		f.wallet.fund(testPlayer, 100_000_000)

		_, _, err := f.svc.PlaceBet(ctx, c, Wager{Player: testPlayer, Amount: 999_999})
		assert.ErrorIs(t, err, ErrBetBelowMin)
		_, _, err = f.svc.PlaceBet(ctx, c, Wager{Player: testPlayer, Amount: 50_000_001})
		assert.ErrorIs(t, err, ErrBetAboveMax)

		assert.Equal(t, uint64(100_000_000), f.wallet.balance(testPlayer))
		assert.Empty(t, f.svc.OpenBets(testPlayer))
		assert.Empty(t, f.events.named(event.EventBetPlaced))
	})

	t.Run("should fail cleanly when the player cannot pay", func(t *testing.T) {
		f := newFixture(t)
		c := f.game(t, testGame, 1, 100)

		_, _, err := f.svc.PlaceBet(ctx, c, Wager{Player: testPlayer, Amount: 50})
		assert.ErrorIs(t, err, errWalletEmpty)
		assert.Empty(t, f.svc.OpenBets(testPlayer))
		assert.Zero(t, f.svc.BankrollValue())

		_, _, err = f.svc.PlaceBet(ctx, c, Wager{Amount: 50})
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})

	t.Run("should number each player's bets independently", func(t *testing.T) {
		f := newFixture(t)
		c := f.game(t, testGame, 1, 100)
		f.wallet.fund("alice", 100)
		f.wallet.fund("bob", 100)

		var alice, bob []uint64
		for i := 0; i < 3; i++ {
			_, id, err := f.svc.PlaceBet(ctx, c, Wager{Player: "alice", Amount: 1})
			require.NoError(t, err)
			alice = append(alice, id.Sequence)
		}
		_, id, err := f.svc.PlaceBet(ctx, c, Wager{Player: "bob", Amount: 1})
		require.NoError(t, err)
		bob = append(bob, id.Sequence)

		assert.Equal(t, []uint64{0, 1, 2}, alice)
		assert.Equal(t, []uint64{0}, bob)
		assert.Len(t, f.svc.OpenBets("alice"), 3)
	})
}

func TestSettleBet(t *testing.T) {
	ctx := context.Background()

	place := func(t *testing.T, f *fixture, c *Capability, amount, maxPayout uint64) (Source, BetID) {
		t.Helper()
		f.wallet.fund(testPlayer, amount)
		src, id, err := f.svc.PlaceBet(ctx, c, Wager{Player: testPlayer, Amount: amount, MaxPayout: maxPayout})
		require.NoError(t, err)
		return src, id
	}

	t.Run("should keep a losing stake in the sub-treasury", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 1_000_000_000)
		c := f.game(t, testGame, 1_000_000, 50_000_000)
		before := f.systemTotal()
		src, id := place(t, f, c, 5_000_000, 10_000_000)

		settled, err := f.svc.SettleBet(ctx, c, Settlement{Bet: id, Source: src})
		require.NoError(t, err)
		assert.Zero(t, settled.Payout)

		acct := f.account(t, testGame)
		assert.Equal(t, uint64(505_000_000), acct.Balance)
		assert.Equal(t, uint64(500_000_000), acct.TargetReserve)
		assert.Equal(t, uint64(500_000_000), f.svc.CentralAccount().Balance)
		assert.Equal(t, before+5_000_000, f.systemTotal())
		assert.Empty(t, f.events.named(event.EventRebalanced))

		rec, _ := f.svc.Bet(id)
		assert.True(t, rec.Settled)
	})

	t.Run("should pay a winner from the recorded source", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 1_000_000_000)
		c := f.game(t, testGame, 1_000_000, 50_000_000)
		src, id := place(t, f, c, 5_000_000, 10_000_000)

		_, err := f.svc.SettleBet(ctx, c, Settlement{Bet: id, Winner: testPlayer, Payout: 10_000_000, Source: src})
		require.NoError(t, err)
		assert.Equal(t, uint64(10_000_000), f.wallet.balance(testPlayer))
		assert.Equal(t, uint64(495_000_000), f.account(t, testGame).Balance)
		assert.Equal(t, uint64(995_000_000), f.svc.BankrollValue())
	})

	t.Run("should settle at most once", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 1_000_000_000)
		c := f.game(t, testGame, 1_000_000, 50_000_000)
		src, id := place(t, f, c, 5_000_000, 10_000_000)

		_, err := f.svc.SettleBet(ctx, c, Settlement{Bet: id, Winner: testPlayer, Payout: 10_000_000, Source: src})
		require.NoError(t, err)
		bankroll := f.svc.BankrollValue()

		_, err = f.svc.SettleBet(ctx, c, Settlement{Bet: id, Winner: testPlayer, Payout: 10_000_000, Source: src})
		assert.ErrorIs(t, err, ErrAlreadySettled)
		assert.Equal(t, bankroll, f.svc.BankrollValue())
		assert.Equal(t, uint64(10_000_000), f.wallet.balance(testPlayer))
		assert.Len(t, f.events.named(event.EventBetSettled), 1)
	})

	t.Run("should reject a payout above the declared maximum", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 1_000_000_000)
		c := f.game(t, testGame, 1_000_000, 50_000_000)
		src, id := place(t, f, c, 5_000_000, 10_000_000)

		_, err := f.svc.SettleBet(ctx, c, Settlement{Bet: id, Winner: testPlayer, Payout: 10_000_001, Source: src})
		assert.ErrorIs(t, err, ErrPayoutExceedsExpected)

		rec, _ := f.svc.Bet(id)
		assert.False(t, rec.Settled)
		assert.Zero(t, f.wallet.balance(testPlayer))
	})

	t.Run("should reject a source that differs from placement", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 1_000_000_000)
		c := f.game(t, testGame, 1_000_000, 50_000_000)
		src, id := place(t, f, c, 5_000_000, 0)
		require.Equal(t, SourceGame, src)

		_, err := f.svc.SettleBet(ctx, c, Settlement{Bet: id, Winner: testPlayer, Payout: 1, Source: SourceCentral})
		assert.ErrorIs(t, err, ErrSourceMismatch)
	})

	t.Run("should reject bets of another game", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 1_000_000_000)
		dice := f.game(t, testGame, 1_000_000, 50_000_000)
		crash := f.game(t, "crash", 1_000_000, 10_000_000)
		src, id := place(t, f, dice, 5_000_000, 0)

		_, err := f.svc.SettleBet(ctx, crash, Settlement{Bet: id, Source: src})
		assert.ErrorIs(t, err, ErrBetGameMismatch)
	})

	t.Run("should report unknown bets", func(t *testing.T) {
		f := newFixture(t)
		c := f.game(t, testGame, 1, 10)

		_, err := f.svc.SettleBet(ctx, c, Settlement{Bet: BetID{Player: "ghost", Sequence: 4}, Source: SourceGame})
		assert.ErrorIs(t, err, ErrBetNotFound)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("should fail when the source cannot cover the payout", func(t *testing.T) {
		f := newFixture(t)
		c := f.game(t, testGame, 1_000_000, 50_000_000)
		src, id := place(t, f, c, 5_000_000, 0)
		require.Equal(t, SourceCentral, src)

		_, err := f.svc.SettleBet(ctx, c, Settlement{Bet: id, Winner: testPlayer, Payout: 6_000_000, Source: src})
		assert.ErrorIs(t, err, ErrInsufficientTreasury)

		rec, _ := f.svc.Bet(id)
		assert.False(t, rec.Settled)
		assert.Equal(t, uint64(5_000_000), f.svc.CentralAccount().Balance)
	})

	t.Run("should leave everything unchanged when the winner cannot be credited", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 1_000_000_000)
		c := f.game(t, testGame, 1_000_000, 50_000_000)
		src, id := place(t, f, c, 5_000_000, 0)
		f.wallet.setFailCredit(testPlayer, true)
		bankroll := f.svc.BankrollValue()

		_, err := f.svc.SettleBet(ctx, c, Settlement{Bet: id, Winner: testPlayer, Payout: 8_000_000, Source: src})
		assert.ErrorIs(t, err, errWalletDown)
		assert.Equal(t, bankroll, f.svc.BankrollValue())

		f.wallet.setFailCredit(testPlayer, false)
		_, err = f.svc.SettleBet(ctx, c, Settlement{Bet: id, Winner: testPlayer, Payout: 8_000_000, Source: src})
		assert.NoError(t, err)
	})

	t.Run("should prune settled bets only", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 1_000_000_000)
		c := f.game(t, testGame, 1_000_000, 50_000_000)
		src, first := place(t, f, c, 1_000_000, 0)
		_, second := place(t, f, c, 1_000_000, 0)
		_, err := f.svc.SettleBet(ctx, c, Settlement{Bet: first, Source: src})
		require.NoError(t, err)

		assert.Equal(t, 1, f.svc.PruneSettled())
		_, ok := f.svc.Bet(first)
		assert.False(t, ok)
		_, ok = f.svc.Bet(second)
		assert.True(t, ok)

		_, third := place(t, f, c, 1_000_000, 0)
		assert.Equal(t, uint64(2), third.Sequence)
	})
}

func TestParseBetID(t *testing.T) {
	t.Run("should round trip", func(t *testing.T) {
		id := BetID{Player: "0xabc:def", Sequence: 42}
		got, err := ParseBetID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("should reject malformed ids", func(t *testing.T) {
		for _, s := range []string{"", "alice", ":1", "alice:", "alice:x", "alice:-1"} {
			_, err := ParseBetID(s)
			assert.ErrorIs(t, err, ErrInvalidBetID, s)
		}
	})
}

func TestSource(t *testing.T) {
	t.Run("should marshal as text", func(t *testing.T) {
		b, err := SourceGame.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, "game", string(b))

		var s Source
		require.NoError(t, s.UnmarshalText([]byte("central")))
		assert.Equal(t, SourceCentral, s)
		assert.Error(t, s.UnmarshalText([]byte("vault")))
	})
}
