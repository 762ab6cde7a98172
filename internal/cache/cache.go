package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bx-treasury/internal/event"
	"bx-treasury/internal/house"
)

const (
	KeyNAVLatest   = "house:nav:latest"
	KeyNAVLatestAt = "house:nav:latest:at"
)

// setIfNewer writes the snapshot only when its timestamp is not older than
// the stored one. Returns 1 when written.
var setIfNewer = redis.NewScript(`
local cur = redis.call('GET', KEYS[2])
if cur and tonumber(ARGV[2]) < tonumber(cur) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('SET', KEYS[2], ARGV[2])
return 1
`)

// Store persists the latest NAV snapshot for dashboards.
type Store struct {
	rdb *redis.Client
	log *zap.Logger
}

func New(addr string, log *zap.Logger) *Store {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr}), log)
}

func NewWithClient(rdb *redis.Client, log *zap.Logger) *Store {
	return &Store{rdb: rdb, log: log}
}

// SetSnapshot stores snap unless a newer snapshot is already stored. It
// reports whether snap was written.
func (s *Store) SetSnapshot(ctx context.Context, snap house.Snapshot) (bool, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return false, err
	}
	n, err := setIfNewer.Run(ctx, s.rdb, []string{KeyNAVLatest, KeyNAVLatestAt}, string(b), snap.TakenAt.UnixMicro()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Snapshot returns the stored snapshot; ok is false when none was stored.
func (s *Store) Snapshot(ctx context.Context) (snap house.Snapshot, ok bool, err error) {
	b, err := s.rdb.Get(ctx, KeyNAVLatest).Bytes()
	if errors.Is(err, redis.Nil) {
		return house.Snapshot{}, false, nil
	}
	if err != nil {
		return house.Snapshot{}, false, err
	}
	if err := json.Unmarshal(b, &snap); err != nil {
		return house.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) Subscribe(bus *event.Bus) {
	bus.Subscribe(event.EventNAVUpdated, func(name string, payload interface{}) {
		snap, ok := payload.(house.Snapshot)
		if !ok {
			return
		}
		stored, err := s.SetSnapshot(context.Background(), snap)
		if err != nil {
			s.log.Warn("nav snapshot not cached", zap.Error(err))
			return
		}
		if !stored {
			s.log.Debug("stale nav snapshot skipped", zap.Time("taken_at", snap.TakenAt))
		}
	})
}
