package casino

import "bx-treasury/internal/house"

type PlayRequest struct {
	Player     house.Address
	Bet        uint64
	Multiplier uint64 // basis points, 20000 == 2x
	ClientSeed string
}

type Result struct {
	Game           house.GameID `json:"game"`
	Bet            house.BetID  `json:"bet"`
	Source         house.Source `json:"source"`
	Roll           uint64       `json:"roll"`
	Win            bool         `json:"win"`
	Payout         uint64       `json:"payout"`
	Hash           string       `json:"hash"`
	Nonce          uint64       `json:"nonce"`
	ServerSeedHash string       `json:"server_seed_hash"`
}
