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
	"time"

	"github.com/google/uuid"

	"tradelab/internal/config"
	"tradelab/internal/domain"
	"tradelab/internal/evolve"
	"tradelab/internal/features"
	"tradelab/internal/store"
	"tradelab/internal/util"
)

func main() {
	symbolFlag := flag.String("symbol", "", "symbol to train on (overrides config)")
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

	symbol := cfg.Lab.Symbol
	if *symbolFlag != "" {
		symbol = strings.ToUpper(*symbolFlag)
	}
	if symbol == "" {
		log.Fatal("no symbol configured: set lab.symbol or pass -symbol")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, symbol, logger); err != nil {
		log.Fatalf("run error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, symbol string, logger *slog.Logger) error {
	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	sstore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer sstore.Close()

	bars, err := pstore.ReadBars(ctx, symbol, time.Unix(0, 0), time.Now().UTC())
	if err != nil {
		return err
	}
	logger.Info("loaded bars", "symbol", symbol, "bars", len(bars))

	feats, err := features.Matrix(bars)
	if err != nil {
		return err
	}
	returns := features.ForwardReturns(bars)

	engine, err := evolve.NewEngine(evolve.Config{
		Population:     cfg.Lab.Population,
		Generations:    cfg.Lab.Generations,
		Terms:          cfg.Lab.Terms,
		MaxLookback:    cfg.Lab.MaxLookback,
		TournamentSize: cfg.Lab.TournamentSize,
		Elites:         cfg.Lab.Elites,
		MutationRate:   cfg.Lab.MutationRate,
		WeightJitter:   cfg.Lab.WeightJitter,
		Workers:        cfg.Lab.Workers,
		Seed:           cfg.Lab.Seed,
	}, logger)
	if err != nil {
		return err
	}

	startedAt := time.Now()
	result, err := engine.Run(ctx, feats, returns)
	if err != nil {
		return err
	}
	finishedAt := time.Now()

	run := domain.Run{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		Generations: cfg.Lab.Generations,
		Population:  cfg.Lab.Population,
		BestScore:   result.Best().Trader.Score(),
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
	}
	if err := sstore.SaveRun(ctx, &run); err != nil {
		return err
	}

	survivors := min(cfg.Lab.Survivors, len(result.Ranked))
	records := make([]domain.TraderRecord, 0, survivors)
	for _, m := range result.Ranked[:survivors] {
		repr := m.Trader.Representation()
		records = append(records, domain.TraderRecord{
			ID:         m.ID.String(),
			RunID:      run.ID,
			Generation: m.Generation,
			Score:      m.Trader.Score(),
			MaxLag:     m.Trader.MaxLag(),
			Weights:    m.Trader.Weights(),
			Formulas:   repr.Formulas,
			CreatedAt:  finishedAt,
		})
	}
	if err := sstore.SaveTraders(ctx, records); err != nil {
		return err
	}

	logger.Info("run complete",
		"run", run.ID,
		"bestScore", run.BestScore,
		"survivors", len(records),
		"elapsed", finishedAt.Sub(startedAt).Round(time.Second),
	)
	return nil
}
