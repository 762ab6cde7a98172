package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"bx-treasury/internal/event"
)

const SubjectPrefix = "house."

type Config struct {
	URL           string
	Name          string
	ReconnectWait time.Duration
	MaxReconnects int
	Timeout       time.Duration
}

// Publisher mirrors house events onto NATS subjects.
type Publisher struct {
	conn *nats.Conn
	log  *zap.Logger
}

func Connect(cfg Config, log *zap.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Publisher{conn: conn, log: log}, nil
}

func Subject(name string) string {
	return SubjectPrefix + name
}

func (p *Publisher) Publish(name string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return p.conn.Publish(Subject(name), data)
}

// Mirror forwards every house event published on bus.
func (p *Publisher) Mirror(bus *event.Bus) {
	bus.SubscribeAll(event.All, func(name string, payload interface{}) {
		if err := p.Publish(name, payload); err != nil {
			p.log.Warn("nats publish failed", zap.String("event", name), zap.Error(err))
		}
	})
}

func (p *Publisher) Close() {
	p.conn.Drain()
}
