package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/erp/bridge/internal/domain/integration"
	"github.com/erp/bridge/internal/infrastructure/config"
	"github.com/erp/bridge/internal/infrastructure/logger"
	"github.com/erp/bridge/internal/infrastructure/persistence"
)

const defaultRetention = 30 * 24 * time.Hour

func main() {
	var (
		logLevel  string
		retention time.Duration
	)

	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.DurationVar(&retention, "older-than", defaultRetention, "Age of journal entries removed by prune")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	log.Info("Journal CLI started",
		zap.String("command", command),
		zap.String("driver", cfg.Database.Driver),
	)

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	ctx := context.Background()
	repo := persistence.NewOrderSyncRecordRepository(db.DB)

	switch command {
	case "up":
		if err := db.Migrate(); err != nil {
			log.Fatal("Journal migration failed", zap.Error(err))
		}
		log.Info("Journal schema is up to date")

	case "status":
		_, total, err := repo.List(ctx, integration.OrderSyncRecordFilter{PageSize: 1})
		if err != nil {
			log.Fatal("Failed to read journal", zap.Error(err))
		}
		stats, err := db.Stats()
		if err != nil {
			log.Fatal("Failed to read connection stats", zap.Error(err))
		}
		log.Info("Journal status",
			zap.Int64("entries", total),
			zap.Int("open_connections", stats.OpenConnections),
		)

	case "prune":
		if retention <= 0 {
			log.Fatal("Retention must be positive", zap.Duration("older_than", retention))
		}
		cutoff := time.Now().Add(-retention)
		removed, err := repo.DeleteSyncedBefore(ctx, cutoff)
		if err != nil {
			log.Fatal("Journal prune failed", zap.Error(err))
		}
		log.Info("Journal pruned",
			zap.Int64("removed", removed),
			zap.Time("cutoff", cutoff),
		)

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`ERP bridge sync journal tool

Usage:
  migrate [flags] <command>

Commands:
  up        Create or update the order_sync_records table
  status    Show the number of journal entries
  prune     Delete entries older than -older-than

Flags:
  -log-level string     Log level: debug, info, warn, error (default: info)
  -older-than duration  Retention for prune (default: 720h)

Environment Variables:
  BRIDGE_DATABASE_DRIVER, BRIDGE_DATABASE_PATH, BRIDGE_DATABASE_HOST, ...

Examples:
  migrate up
  migrate -older-than 168h prune`)
}
