package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bazas-game/internal/config"
	"bazas-game/internal/database"
	"bazas-game/internal/randutil"
	"bazas-game/internal/registry"
	"bazas-game/internal/server"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var CLI struct {
	Config    string `short:"c" long:"config" default:"bazas.hcl" env:"BAZAS_CONFIG" help:"Path to HCL configuration file"`
	Addr      string `short:"a" long:"addr" env:"BAZAS_ADDR" help:"Server address to bind to (overrides config)"`
	LogLevel  string `short:"l" long:"log-level" env:"BAZAS_LOG_LEVEL" help:"Log level (overrides config)"`
	LogFormat string `long:"log-format" env:"BAZAS_LOG_FORMAT" help:"Log format, text or json (overrides config)"`
	DBDriver  string `long:"db-driver" env:"BAZAS_DB_DRIVER" help:"Database driver, sqlite3 or pgx (overrides config)"`
	DBDSN     string `long:"db-dsn" env:"DATABASE_URL" help:"Database connection string (overrides config)"`
	NoDB      bool   `long:"no-db" help:"Run without recording game history"`
	Seed      int64  `long:"seed" env:"BAZAS_SEED" help:"Seed for room codes and shuffles, 0 picks one from the clock"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("bazas-server"),
		kong.Description("Real-time server for the Bazas trick-taking game."),
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.LogFormat != "" {
		cfg.Server.LogFormat = CLI.LogFormat
	}
	if CLI.DBDriver != "" {
		cfg.Database.Driver = CLI.DBDriver
	}
	if CLI.DBDSN != "" {
		cfg.Database.DSN = CLI.DBDSN
	}
	if CLI.NoDB {
		cfg.Database = config.DatabaseSettings{}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	logger := newLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)
	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		ctx.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rules, err := cfg.GameRules()
	if err != nil {
		return err
	}
	grace, err := cfg.Grace()
	if err != nil {
		return err
	}

	opts := []registry.Option{
		registry.WithRules(rules),
		registry.WithGrace(grace),
	}
	if CLI.Seed != 0 {
		opts = append(opts, registry.WithRand(randutil.New(CLI.Seed)))
	}

	var store server.HistoryStore
	if cfg.Database.Driver != "" {
		db, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		store = db
		opts = append(opts, registry.WithRecorder(db))
		logger.Info("Recording game history", "driver", cfg.Database.Driver)
	} else {
		logger.Warn("No database configured, game history is disabled")
	}

	hub := server.NewHub(logger.WithPrefix("hub"), opts...)
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           server.SetupRoutes(hub, store, logger.WithPrefix("http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("Starting Bazas server",
		"addr", cfg.Server.Address,
		"max_seats", rules.MaxSeats,
		"pattern", rules.Pattern,
		"end_policy", rules.EndPolicy,
		"bid_timeout", rules.BidTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
