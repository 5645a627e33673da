package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"cafe/internal/config"
	"cafe/internal/events"
	"cafe/internal/models"
	"cafe/internal/repositories"
	"cafe/internal/services"
	"cafe/pkg/rabbitmq"
)

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		log.WithError(err).Fatal("cafe failed")
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "cafe",
		Usage: "order fulfillment backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "optional config file; environment variables take precedence",
				EnvVars: []string{"CAFE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API, the admin realtime channel and the low-stock sweep",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema",
				Action: migrate,
			},
			{
				Name:  "seed",
				Usage: "add a sample menu and an admin user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "admin-email", Value: "admin@cafe.local"},
				},
				Action: seed,
			},
			{
				Name:   "sweep-low-stock",
				Usage:  "check stock once and publish a low-stock alert",
				Action: sweepLowStock,
			},
			{
				Name:  "issue-token",
				Usage: "print a signed token for an existing user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user-id", Required: true},
				},
				Action: issueToken,
			},
			{
				Name:  "tail-events",
				Usage: "print order events from the RabbitMQ exchange",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "pattern", Value: "#", Usage: "topic binding, e.g. order-status-changed"},
				},
				Action: tailEvents,
			},
		},
	}
}

// loadConfig reads the configuration and applies its logging settings.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := setupLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "invalid LOG_LEVEL")
	}
	log.SetLevel(lvl)
	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.WithError(err).Error("Error during shutdown")
		}
	}()

	ctx, stop := signalContext(c)
	defer stop()
	if err := app.Run(ctx); err != nil {
		return err
	}
	log.Info("Server gracefully stopped")
	return nil
}

func migrate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	log.WithField("driver", cfg.DBDriver).Info("Database schema is up to date")
	return nil
}

var sampleMenu = []models.Product{
	{Name: "Espresso", Category: "Coffee", Description: "Double shot", Price: 90, Stock: 40},
	{Name: "Cafe Latte", Category: "Coffee", Description: "Espresso with steamed milk", Price: 130, Stock: 30},
	{Name: "Spanish Latte", Category: "Coffee", Description: "Latte with condensed milk", Price: 150, Stock: 25},
	{Name: "Matcha Latte", Category: "Non-Coffee", Description: "Ceremonial grade matcha", Price: 160, Stock: 15},
	{Name: "Ensaymada", Category: "Pastry", Description: "Buttered brioche with cheese", Price: 75, Stock: 4},
}

func seed(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	return seedStore(c.Context, repositories.NewGORMStore(db), c.String("admin-email"))
}

// seedStore adds the sample menu to an empty catalog and makes sure an admin
// with email exists.
func seedStore(ctx context.Context, store repositories.Store, email string) error {
	return store.WithTx(ctx, func(tx repositories.Store) error {
		existing, err := tx.Products().GetAll(ctx)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			for i := range sampleMenu {
				p := sampleMenu[i]
				if err := tx.Products().Create(ctx, &p); err != nil {
					return err
				}
				log.WithFields(log.Fields{"id": p.ID, "name": p.Name}).Info("Seeded product")
			}
		}

		admin, err := tx.Users().GetByEmail(ctx, email)
		if errors.Is(err, repositories.ErrNotFound) {
			admin = &models.User{Name: "Cafe Admin", Email: email, Role: models.RoleAdmin}
			err = tx.Users().Create(ctx, admin)
		}
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"id": admin.ID, "email": admin.Email}).Info("Admin user ready")
		return nil
	})
}

func sweepLowStock(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	low, err := app.Monitor.Sweep(c.Context)
	if err != nil {
		return multierr.Append(err, app.Close())
	}
	for _, p := range low {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%d\n", p.ID, p.Name, p.Stock)
	}
	return app.Close()
}

func issueToken(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	auth := services.NewAuthService(repositories.NewGORMUserRepository(db), cfg.JWTSecret)
	token, err := auth.IssueToken(c.Context, c.String("user-id"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, token)
	return nil
}

func tailEvents(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.RabbitMQURL == "" {
		return errors.New("RABBITMQ_URL must be set to tail events")
	}
	mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange})
	if err != nil {
		return err
	}
	defer mq.Close()

	ctx, stop := signalContext(c)
	defer stop()
	return mq.Consume(ctx, c.String("pattern"), func(e events.Event) error {
		log.WithFields(log.Fields{
			"event":   e.Name,
			"orderId": e.OrderID,
			"at":      e.OccurredAt,
		}).Info(string(e.Data))
		return nil
	})
}
