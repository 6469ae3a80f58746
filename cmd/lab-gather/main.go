package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tradelab/internal/config"
	"tradelab/internal/gather"
	"tradelab/internal/store"
	"tradelab/internal/util"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols (overrides config watchlist)")
	flag.Parse()

	cfgPath := "config/tradelab.yaml"
	if p := os.Getenv("LAB_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, "text")
	slog.SetDefault(logger)

	symbols := cfg.Gather.Symbols
	if *symbolsFlag != "" {
		symbols = strings.Split(strings.ToUpper(*symbolsFlag), ",")
	}

	pstore := store.NewParquetStore(cfg.Storage.DataDir)

	gatherer := gather.NewDailyBarGatherer(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.DataURL,
		pstore,
		symbols,
		cfg.Gather.StartDate,
		cfg.Gather.BatchSize,
		cfg.Gather.RateLimitPerMin,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting lab-gather", "symbols", len(symbols), "start", cfg.Gather.StartDate)
	if err := gatherer.Run(ctx); err != nil {
		log.Fatalf("gather error: %v", err)
	}
}
