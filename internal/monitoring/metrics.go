package monitoring

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bx-treasury/internal/event"
	"bx-treasury/internal/house"
)

type Metrics struct {
	registry *prometheus.Registry

	HttpRequests *prometheus.CounterVec
	BetsPlaced   *prometheus.CounterVec
	BetsSettled  *prometheus.CounterVec
	Payouts      *prometheus.CounterVec
	Rebalances   *prometheus.CounterVec
	EquityFlows  *prometheus.CounterVec
	NAV          prometheus.Gauge
	Bankroll     prometheus.Gauge
	TotalSupply  prometheus.Gauge

	mu         sync.Mutex
	observedAt time.Time
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HttpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "endpoint"},
		),
		BetsPlaced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "house_bets_placed_total",
				Help: "Bets accepted, by game and treasury source",
			},
			[]string{"game", "source"},
		),
		BetsSettled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "house_bets_settled_total",
				Help: "Bets settled, by game",
			},
			[]string{"game"},
		),
		Payouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "house_payout_units_total",
				Help: "Base units paid out to winners",
			},
			[]string{"game", "source"},
		),
		Rebalances: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "house_rebalance_units_total",
				Help: "Base units moved by rebalancing",
			},
			[]string{"game", "action"},
		),
		EquityFlows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "house_equity_units_total",
				Help: "Base units deposited, paid out and retained as fees",
			},
			[]string{"flow"},
		),
		NAV: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "house_nav_scaled",
			Help: "Net asset value per token, scaled by 1e8",
		}),
		Bankroll: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "house_bankroll_units",
			Help: "Central plus sub-treasury balances",
		}),
		TotalSupply: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "house_equity_supply",
			Help: "Outstanding equity tokens",
		}),
	}

	m.registry.MustRegister(
		m.HttpRequests,
		m.BetsPlaced,
		m.BetsSettled,
		m.Payouts,
		m.Rebalances,
		m.EquityFlows,
		m.NAV,
		m.Bankroll,
		m.TotalSupply,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware counts requests by method and route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		m.HttpRequests.WithLabelValues(c.Method(), c.Route().Path).Inc()
		return err
	}
}

// Observe records a snapshot of the equity totals. Snapshots older than the
// last one observed are ignored.
func (m *Metrics) Observe(snap house.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.TakenAt.Before(m.observedAt) {
		return
	}
	m.observedAt = snap.TakenAt
	m.NAV.Set(float64(snap.NAV))
	m.Bankroll.Set(float64(snap.Bankroll))
	m.TotalSupply.Set(float64(snap.TotalSupply))
}

func (m *Metrics) Subscribe(bus *event.Bus) {
	bus.SubscribeAll(event.All, func(name string, payload interface{}) {
		switch p := payload.(type) {
		case house.BetPlaced:
			m.BetsPlaced.WithLabelValues(string(p.Game), p.Source.String()).Inc()
		case house.BetSettled:
			m.BetsSettled.WithLabelValues(string(p.Game)).Inc()
			if p.Payout > 0 {
				m.Payouts.WithLabelValues(string(p.Game), p.Source.String()).Add(float64(p.Payout))
			}
		case house.RebalanceResult:
			m.Rebalances.WithLabelValues(string(p.Game), p.Action).Add(float64(p.Amount))
		case house.EquityMinted:
			m.EquityFlows.WithLabelValues("deposit").Add(float64(p.Amount))
		case house.EquityRedeemed:
			m.EquityFlows.WithLabelValues("redeem").Add(float64(p.Net))
			m.EquityFlows.WithLabelValues("fee").Add(float64(p.Fee))
		case house.Snapshot:
			m.Observe(p)
		}
	})
}
