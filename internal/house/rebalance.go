package house

const (
	volumeDecayPeriods = 7
	sweepPercent       = 10
)

// Rebalance actions.
const (
	RebalanceNone  = "none"
	RebalanceSweep = "sweep"
	RebalanceTopUp = "topup"
)

// RebalanceResult describes what a rebalancing check moved.
type RebalanceResult struct {
	Game    GameID `json:"game"`
	Action  string `json:"action"`
	Amount  uint64 `json:"amount"`
	Balance uint64 `json:"balance"`
	Target  uint64 `json:"target"`
}

// trackVolume folds an accepted bet into the rolling volume and recomputes the
// reserve targets. The caller holds a.mu.
func trackVolume(a *account, amount, safetyMultiplier uint64) {
	a.RollingVolume = weightedAvg(a.RollingVolume, volumeDecayPeriods-1, amount, safetyMultiplier, volumeDecayPeriods)
	a.setTarget(a.RollingVolume)
}

// rebalance keeps a sub-treasury near its target. Above the overflow
// threshold a tenth of the excess over target moves to the center; below the
// drain threshold the center tops it up to target, as far as the center can.
func (t *treasury) rebalance(a *account) RebalanceResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	t.central.mu.Lock()
	defer t.central.mu.Unlock()

	res := RebalanceResult{Game: a.Game, Action: RebalanceNone}

	switch {
	case a.Balance > a.OverflowThreshold:
		sweep := (a.Balance - a.TargetReserve) * sweepPercent / 100
		if sweep > 0 {
			a.Balance -= sweep
			t.central.Balance += sweep
			res.Action, res.Amount = RebalanceSweep, sweep
		}
	case a.Balance < a.DrainThreshold:
		pull := min(a.TargetReserve-a.Balance, t.central.Balance)
		if pull > 0 {
			t.central.Balance -= pull
			a.Balance += pull
			res.Action, res.Amount = RebalanceTopUp, pull
		}
	}

	res.Balance, res.Target = a.Balance, a.TargetReserve
	return res
}
