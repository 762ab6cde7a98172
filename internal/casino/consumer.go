package casino

import (
	"bx-treasury/internal/event"
	"bx-treasury/internal/house"
)

// RegisterConsumers feeds settlements into the leaderboard and RTP stats.
func RegisterConsumers(bus *event.Bus, board *Leaderboard, rtp *RTPController) {

	bus.Subscribe(event.EventBetSettled, func(_ string, payload interface{}) {

		res, ok := payload.(house.BetSettled)
		if !ok {
			return
		}

		board.Record(res.Bet.Player, int64(res.Payout)-int64(res.Amount))
		rtp.Record(res.Game, res.Amount, res.Payout)
	})
}
