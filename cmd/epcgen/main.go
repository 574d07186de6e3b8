// Command epcgen turns supply-chain spreadsheet exports into EPCIS event
// documents.
//
// Simple mode reads one CSV and emits one ObjectEvent per row:
//
//	epcgen -i receipts.csv -p products.csv -l locations.csv -o events.xml
//
// Transformation mode merges consumption ("from") rows into the purchase
// orders completed by production ("to") rows:
//
//	epcgen -f consumed.csv -t produced.csv -p products.csv -l locations.csv
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/epcgen/internal/config"
	"github.com/JonMunkholm/epcgen/internal/logging"
)

const (
	exitError = 1
	exitUsage = 2
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(exitError)
	}

	log := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log.Debug("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg, log).ExecuteContext(ctx); err != nil {
		log.Error("epcgen failed", "error", err)
		stop()
		var ue *usageError
		if errors.As(err, &ue) {
			os.Exit(exitUsage)
		}
		os.Exit(exitError)
	}
}
