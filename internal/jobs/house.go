package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bx-treasury/internal/casino"
	"bx-treasury/internal/house"
)

// Every runs fn on each tick until ctx is done.
type Every struct {
	Label    string
	Interval time.Duration
	Fn       func(ctx context.Context)
}

func (e Every) Name() string { return e.Label }

func (e Every) Start(ctx context.Context) {
	t := time.NewTicker(e.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.Fn(ctx)
		}
	}
}

// PruneSettled drops settled bet records on every tick.
func PruneSettled(svc *house.Service, interval time.Duration, log *zap.Logger) Job {
	return Every{
		Label:    "prune-settled",
		Interval: interval,
		Fn: func(context.Context) {
			if n := svc.PruneSettled(); n > 0 {
				log.Debug("pruned settled bets", zap.Int("count", n))
			}
		},
	}
}

// RefreshNAV hands a live NAV reading to observe on every tick, so gauges
// track bankroll movement from gambling between mints and redeems.
func RefreshNAV(svc *house.Service, interval time.Duration, observe func(house.Snapshot)) Job {
	return Every{
		Label:    "refresh-nav",
		Interval: interval,
		Fn: func(context.Context) {
			observe(house.Snapshot{
				NAV:         svc.NAV(),
				TotalSupply: svc.TotalSupply(),
				Bankroll:    svc.BankrollValue(),
				TakenAt:     time.Now(),
			})
		},
	}
}

// RetrySettlements drains every table's queue of failed settlements.
func RetrySettlements(tables *casino.Tables, interval time.Duration, log *zap.Logger) Job {
	return Every{
		Label:    "retry-settlements",
		Interval: interval,
		Fn: func(ctx context.Context) {
			for _, t := range tables.All() {
				n, err := t.RetryPending(ctx)
				if n > 0 {
					log.Info("retried settlements", zap.String("game", string(t.Game())), zap.Int("settled", n))
				}
				if err != nil {
					log.Warn("settlements still pending", zap.String("game", string(t.Game())), zap.Error(err))
				}
			}
		},
	}
}
