package main

import (
	"context"
	"flag"
	"os"
	"time"

	"familyfinance/internal/cli"
	"familyfinance/internal/log"
	"familyfinance/internal/repository"
	"familyfinance/internal/seed"
)

func main() {
	n := flag.Int("n", 20, "records to create per entity kind")
	seedValue := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	cfg, logger, err := cli.Bootstrap(log.ComponentSeed)
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	if *n < 1 {
		logger.Error("Invalid record count", log.FieldCount, *n)
		os.Exit(2)
	}

	ctx := context.Background()
	result, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		// bolt holds an exclusive file lock, so the server must be stopped first
		cli.Fatal(logger, "Failed to open record store", err)
	}

	records := repository.NewSet(result.Store)
	counts, err := seed.Run(ctx, records, seed.NewGenerator(*seedValue, time.Now()), *n, logger)
	closeErr := result.Cleanup()
	if err != nil {
		cli.Fatal(logger, "Seeding failed", err)
	}
	if closeErr != nil {
		cli.Fatal(logger, "Failed to close record store", closeErr)
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	logger.Info("Seed complete", log.FieldCount, total, log.FieldBackend, cfg.DataBackend)
}
