package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"bx-treasury/internal/event"
	"bx-treasury/internal/house"
)

type Service struct {
	db  *sql.DB
	log *zap.Logger
}

func New(db *sql.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

type Entry struct {
	ID        int64  `json:"id"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Metadata  string `json:"metadata"`
	CreatedAt int64  `json:"created_at"`
}

func (s *Service) Log(ctx context.Context, actor string, action string, metadata string) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO audit_logs(actor, action, metadata, created_at)
	VALUES (?, ?, ?, ?)
	`, actor, action, metadata, time.Now().Unix())
	return err
}

// Recent returns the newest entries first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, actor, action, metadata, created_at
	FROM audit_logs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// actor picks the party an event is attributed to.
func actor(payload interface{}) string {
	switch p := payload.(type) {
	case house.GameRegistered:
		return string(p.Game.Owner)
	case house.CapabilityClaimed:
		return string(p.Owner)
	case house.BetPlaced:
		return string(p.Bet.Player)
	case house.BetSettled:
		return string(p.Bet.Player)
	case house.EquityMinted:
		return string(p.Investor)
	case house.EquityRedeemed:
		return string(p.Investor)
	case house.GameUnregistered:
		return string(p.Game)
	case house.RebalanceResult:
		return string(p.Game)
	case house.GameRecord:
		return string(p.ID)
	}
	return ""
}

// Subscribe records every house event.
func (s *Service) Subscribe(bus *event.Bus) {
	bus.SubscribeAll(event.All, func(name string, payload interface{}) {
		if name == event.EventNAVUpdated {
			return
		}
		meta, err := json.Marshal(payload)
		if err != nil {
			s.log.Error("audit encode", zap.String("event", name), zap.Error(err))
			return
		}
		if err := s.Log(context.Background(), actor(payload), name, string(meta)); err != nil {
			s.log.Error("audit write", zap.String("event", name), zap.Error(err))
		}
	})
}
