package casino

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// RollRange is the exclusive upper bound of a roll: rolls are hundredths of a
// percent, 0..9999.
const RollRange = 10_000

// GenerateRoll derives a provably fair roll from the server seed, the
// player's client seed and the per-player nonce.
func GenerateRoll(serverSeed, clientSeed string, nonce uint64) (uint64, string) {

	h := hmac.New(sha256.New, []byte(serverSeed))
	h.Write([]byte(clientSeed + ":" + strconv.FormatUint(nonce, 10)))

	hash := hex.EncodeToString(h.Sum(nil))

	num, _ := strconv.ParseUint(hash[:8], 16, 64)

	return num % RollRange, hash
}

// VerifyRoll checks a past roll against a revealed server seed and the hash
// that was published before the seed was used.
func VerifyRoll(serverSeed, serverSeedHash, clientSeed string, nonce, roll uint64) bool {
	if hashSeed(serverSeed) != serverSeedHash {
		return false
	}
	got, _ := GenerateRoll(serverSeed, clientSeed, nonce)
	return got == roll
}
