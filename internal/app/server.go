package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"bx-treasury/internal/audit"
	"bx-treasury/internal/cache"
	"bx-treasury/internal/casino"
	"bx-treasury/internal/config"
	"bx-treasury/internal/db"
	"bx-treasury/internal/event"
	"bx-treasury/internal/house"
	"bx-treasury/internal/jobs"
	"bx-treasury/internal/ledger"
	"bx-treasury/internal/logger"
	"bx-treasury/internal/messaging"
	"bx-treasury/internal/monitoring"
	"bx-treasury/internal/security"
	"bx-treasury/internal/wallet"
	"bx-treasury/internal/ws"
)

type Server struct {
	app  *fiber.App
	cfg  *config.Config
	log  *zap.Logger
	db   *sql.DB
	bus  *event.Bus
	jobs *jobs.Manager

	House *house.Service

	cache *cache.Store
	nats  *messaging.Publisher
}

func NewServer(cfg *config.Config) (*Server, error) {
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	database, err := db.Init(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	bus := event.NewBus()
	walletService := wallet.New(database)

	houseService := house.New(house.Options{
		Admin:            house.Address(cfg.HouseAdmin),
		ReserveMultiple:  cfg.ReserveMultiple,
		SafetyMultiplier: cfg.SafetyMultiplier,
		RedeemFeeBps:     cfg.RedeemFeeBps,
		MinRedeemFee:     cfg.MinRedeemFee,
		Wallet:           walletService,
		Publisher:        bus,
		Logger:           log.Named("house"),
	})

	ledger.New(database, log.Named("ledger")).Subscribe(bus)
	auditService := audit.New(database, log.Named("audit"))
	auditService.Subscribe(bus)

	metrics := monitoring.New()
	metrics.Subscribe(bus)

	hub := ws.NewHub(log.Named("ws"))
	hub.Subscribe(bus)

	s := &Server{cfg: cfg, log: log, db: database, bus: bus, House: houseService}

	if cfg.RedisAddr != "" {
		s.cache = cache.New(cfg.RedisAddr, log.Named("cache"))
		s.cache.Subscribe(bus)
	}
	if cfg.NatsURL != "" {
		s.nats, err = messaging.Connect(messaging.Config{
			URL:           cfg.NatsURL,
			Name:          "bx-treasury",
			ReconnectWait: defaultReconnectWait,
			MaxReconnects: -1,
			Timeout:       defaultConnectTimeout,
		}, log.Named("nats"))
		if err != nil {
			return nil, err
		}
		s.nats.Mirror(bus)
	}

	tables := casino.NewTables()
	board := casino.NewLeaderboard()
	rtp := casino.NewRTP()
	casino.RegisterConsumers(bus, board, rtp)

	s.jobs = jobs.New(log.Named("jobs"))
	s.jobs.Register(jobs.PruneSettled(houseService, cfg.PruneInterval, log.Named("jobs")))
	s.jobs.Register(jobs.RefreshNAV(houseService, cfg.SnapshotInterval, metrics.Observe))
	s.jobs.Register(jobs.RetrySettlements(tables, cfg.RetryInterval, log.Named("jobs")))

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(metrics.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(hub.Handler))

	api := app.Group("/api", security.APIKeyGuard(cfg.APIKey))
	house.RegisterRoutes(api, houseService)
	wallet.RegisterRoutes(api, walletService)
	casino.RegisterRoutes(api, tables, board, rtp)

	admin := app.Group("/admin", security.AdminGuard(cfg.AdminToken))
	house.RegisterAdminRoutes(admin, houseService, house.Address(cfg.HouseAdmin))
	registerTableRoutes(admin, houseService, tables)
	admin.Get("/audit", func(c *fiber.Ctx) error {
		entries, err := auditService.Recent(c.UserContext(), c.QueryInt("limit", 50))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(entries)
	})

	s.app = app
	return s, nil
}

// registerTableRoutes lets the admin open a hosted table for a registered
// game. The table claims the game's capability on behalf of its owner.
func registerTableRoutes(r fiber.Router, svc *house.Service, tables *casino.Tables) {
	r.Post("/tables", func(c *fiber.Ctx) error {
		type Req struct {
			Game   string `json:"game"`
			Engine string `json:"engine"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(400)
		}
		engine, ok := casino.GetGame(body.Engine)
		if !ok {
			return c.Status(400).JSON(fiber.Map{"error": casino.ErrUnknownGame.Error()})
		}
		record, ok := svc.Game(house.GameID(body.Game))
		if !ok {
			return house.WriteError(c, house.ErrGameNotRegistered)
		}
		table, err := casino.NewTable(c.UserContext(), svc, record.Owner, record.ID, engine)
		if err != nil {
			return house.WriteError(c, err)
		}
		tables.Add(table)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"game": record.ID, "engine": body.Engine})
	})
}

func (s *Server) App() *fiber.App {
	return s.app
}

// Start serves until ctx is cancelled, then shuts down.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobsDone := make(chan struct{})
	go func() {
		defer close(jobsDone)
		s.jobs.Start(ctx)
	}()

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("port", s.cfg.Port))
		errc <- s.app.Listen(":" + s.cfg.Port)
	}()

	var err error
	select {
	case <-ctx.Done():
		err = s.app.ShutdownWithTimeout(shutdownTimeout)
	case err = <-errc:
		cancel()
	}
	<-jobsDone
	return errors.Join(err, s.Close())
}

func (s *Server) Close() error {
	s.bus.Wait()
	if s.nats != nil {
		s.nats.Close()
	}
	var errs []error
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	errs = append(errs, s.db.Close())
	s.log.Sync()
	return errors.Join(errs...)
}
