package casino

import (
	"sort"
	"sync"

	"bx-treasury/internal/house"
)

// RTPStats is the realized return to player of one game.
type RTPStats struct {
	Game        house.GameID `json:"game"`
	Bets        uint64       `json:"bets"`
	TotalBet    uint64       `json:"total_bet"`
	TotalPayout uint64       `json:"total_payout"`
	RTPBps      uint64       `json:"rtp_bps"`
}

type RTPController struct {
	mu    sync.Mutex
	games map[house.GameID]*RTPStats
}

func NewRTP() *RTPController {
	return &RTPController{games: make(map[house.GameID]*RTPStats)}
}

func (r *RTPController) Record(game house.GameID, bet, payout uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.games[game]
	if !ok {
		st = &RTPStats{Game: game}
		r.games[game] = st
	}
	st.Bets++
	st.TotalBet += bet
	st.TotalPayout += payout
	st.RTPBps = st.TotalPayout * bps / st.TotalBet
}

func (r *RTPController) Stats() []RTPStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RTPStats, 0, len(r.games))
	for _, st := range r.games {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Game < out[j].Game })
	return out
}
