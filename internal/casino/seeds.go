package casino

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

const seedLifetime = 24 * time.Hour

type SeedManager struct {
	mu         sync.RWMutex
	serverSeed string
	hash       string
	rotatedAt  time.Time
	revealed   []RevealedSeed
}

// RevealedSeed is a retired server seed, published so players can verify
// past rolls against the hash they were shown.
type RevealedSeed struct {
	Seed      string    `json:"seed"`
	Hash      string    `json:"hash"`
	RetiredAt time.Time `json:"retired_at"`
}

func NewSeedManager() *SeedManager {
	s := &SeedManager{}
	s.rotate(time.Now())
	return s
}

func generateSeed() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

func hashSeed(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

func (s *SeedManager) rotate(now time.Time) {
	if s.serverSeed != "" {
		s.revealed = append(s.revealed, RevealedSeed{Seed: s.serverSeed, Hash: s.hash, RetiredAt: now})
	}
	s.serverSeed = generateSeed()
	s.hash = hashSeed(s.serverSeed)
	s.rotatedAt = now
}

// Current rotates the seed when it has lived past its lifetime and returns the
// active seed and its public hash.
func (s *SeedManager) Current() (seed, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.rotatedAt) > seedLifetime {
		s.rotate(time.Now())
	}
	return s.serverSeed, s.hash
}

func (s *SeedManager) Revealed() []RevealedSeed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RevealedSeed(nil), s.revealed...)
}
