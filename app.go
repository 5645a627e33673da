package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"cafe/internal/config"
	"cafe/internal/database"
	"cafe/internal/events"
	"cafe/internal/handlers"
	"cafe/internal/realtime"
	"cafe/internal/repositories"
	"cafe/internal/services"
	"cafe/pkg/kafka"
	"cafe/pkg/rabbitmq"
)

const (
	kafkaBuffer     = 256
	shutdownTimeout = 10 * time.Second
)

// App is the assembled service: the REST API, the admin realtime channel and
// the background low-stock sweep.
type App struct {
	cfg *config.Config
	db  *gorm.DB

	Fiber    *fiber.App
	Realtime *http.Server
	Hub      *realtime.Hub
	Auth     *services.AuthService
	Orders   *services.OrderService
	Products *services.ProductService
	Monitor  *services.LowStockMonitor

	bridge  *realtime.RedisBridge
	closers []func() error
}

// openDatabase connects and brings the schema up to date.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// NewApp wires every component from cfg. Event sinks other than the local hub
// are only connected when configured.
func NewApp(cfg *config.Config) (*App, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, db: db, Hub: realtime.NewHub()}
	publisher, err := a.connectSinks()
	if err != nil {
		return nil, multierr.Append(err, a.Close())
	}

	store := repositories.NewGORMStore(db)
	ledger := services.NewInventoryLedger(store)
	tracker := services.NewLocationTracker(store, publisher)
	a.Auth = services.NewAuthService(store.Users(), cfg.JWTSecret)
	a.Orders = services.NewOrderService(store, ledger, services.NewCartSnapshotBuilder(cfg.PrepaidPaymentMethods), publisher)
	a.Products = services.NewProductService(store.Products(), ledger, cfg.LowStockThreshold)
	a.Monitor = services.NewLowStockMonitor(store.Products(), publisher, cfg.LowStockThreshold, cfg.LowStockInterval)

	a.Fiber = fiber.New(fiber.Config{
		AppName:               "cafe",
		DisableStartupMessage: true,
	})
	a.Fiber.Use(recover.New())
	a.Fiber.Use(logger.New())
	a.Fiber.Get("/health", a.handleHealth)

	api := a.Fiber.Group("/api")
	handlers.NewOrderHandler(a.Orders, tracker).RegisterRoutes(api)
	handlers.NewProductHandler(a.Products, a.Auth).RegisterRoutes(api)
	handlers.NewCartHandler(services.NewCartService(store)).RegisterRoutes(api)

	mux := http.NewServeMux()
	mux.Handle("/ws/admin", realtime.ServeWS(a.Hub, a.Auth))
	a.Realtime = &http.Server{
		Addr:              cfg.RealtimeAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return a, nil
}

// connectSinks builds the publisher every service reports events to.
func (a *App) connectSinks() (events.Publisher, error) {
	fanout := events.NewFanout()

	if a.cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		a.closers = append(a.closers, client.Close)
		a.bridge = realtime.NewRedisBridge(client, a.cfg.RedisChannel, a.Hub)
		fanout.Add(a.bridge)
	} else {
		fanout.Add(a.Hub)
	}

	if a.cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: a.cfg.RabbitMQURL, Exchange: a.cfg.RabbitMQExchange})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, mq.Close)
		fanout.Add(mq)
	}

	if len(a.cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(a.cfg.KafkaBrokers, a.cfg.KafkaTopic, kafkaBuffer)
		a.closers = append(a.closers, producer.Close)
		fanout.Add(producer)
	}

	log.WithField("sinks", fanout.Len()).Info("Event sinks connected")
	return fanout, nil
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	status, code := "healthy", fiber.StatusOK
	if sqlDB, err := a.db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		status, code = "unhealthy", fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":          status,
		"time":            time.Now().Format(time.RFC3339),
		"realtimeClients": a.Hub.ClientCount(),
	})
}

// Run serves until ctx is done or one of the servers fails, then shuts both
// servers down.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", a.cfg.AppPort).Info("HTTP server listening")
		return errors.Wrap(a.Fiber.Listen(a.cfg.AppPort), "http server")
	})
	g.Go(func() error {
		log.WithField("addr", a.Realtime.Addr).Info("Realtime server listening")
		if err := a.Realtime.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "realtime server")
		}
		return nil
	})
	g.Go(func() error { return a.Monitor.Run(ctx) })
	if a.bridge != nil {
		g.Go(func() error { return a.bridge.Run(ctx) })
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.Hub.Stop()
		return multierr.Combine(
			a.Fiber.ShutdownWithContext(shutdownCtx),
			a.Realtime.Shutdown(shutdownCtx),
		)
	})
	return g.Wait()
}

// Close releases the event sinks and the database.
func (a *App) Close() error {
	a.Hub.Stop()
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	if sqlDB, dbErr := a.db.DB(); dbErr == nil {
		err = multierr.Append(err, sqlDB.Close())
	}
	return err
}
