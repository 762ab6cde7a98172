package casino

import (
	"sort"
	"sync"

	"bx-treasury/internal/house"
)

type LeaderboardEntry struct {
	Player house.Address `json:"player"`
	Profit int64         `json:"profit"`
}

type Leaderboard struct {
	data map[house.Address]int64
	mu   sync.Mutex
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{
		data: make(map[house.Address]int64),
	}
}

func (l *Leaderboard) Record(player house.Address, profit int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.data[player] += profit
}

func (l *Leaderboard) Top(n int) []LeaderboardEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := []LeaderboardEntry{}
	if n <= 0 {
		return entries
	}

	for player, profit := range l.data {
		entries = append(entries, LeaderboardEntry{
			Player: player,
			Profit: profit,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Profit == entries[j].Profit {
			return entries[i].Player < entries[j].Player
		}
		return entries[i].Profit > entries[j].Profit
	})

	if len(entries) > n {
		return entries[:n]
	}

	return entries
}
