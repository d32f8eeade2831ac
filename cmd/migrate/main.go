package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/carbon-assessment/internal/infra"
	"github.com/xela07ax/carbon-assessment/internal/repository/postgres"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	code := run(cfg, logger)
	_ = logger.Sync()
	os.Exit(code)
}

func run(cfg *infra.Config, logger *zap.Logger) int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("Carbon Footprint Database Migration")
	fmt.Println("===================================")
	fmt.Printf("Connecting to: %s\n\n", cfg.Database.RedactedDSN())

	db, err := postgres.Connect(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Printf("FAILED: %v\n", err)
		return 1
	}
	defer db.Close()

	report := postgres.Migrate(ctx, db, logger.Named("migrate"))
	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Printf("  FAIL  %s: %v\n", res.Name, res.Err)
			continue
		}
		fmt.Printf("  OK    %s (%s)\n", res.Name, res.Duration.Round(time.Millisecond))
	}

	failed := report.Failed()
	fmt.Printf("\n%d/%d statements applied in %s\n",
		len(report.Results)-len(failed), len(report.Results), report.Elapsed.Round(time.Millisecond))
	if len(failed) > 0 {
		return 1
	}
	return 0
}
