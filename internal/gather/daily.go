package gather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"tradelab/internal/domain"
	"tradelab/internal/store"
	"tradelab/internal/util"
)

var _ Gatherer = (*DailyBarGatherer)(nil)

// DailyBarGatherer gathers daily OHLCV bars for a fixed watchlist of US
// equity symbols via the Alpaca market-data API and writes them to the bar
// store. Writes are idempotent, so re-running extends existing history.
type DailyBarGatherer struct {
	client    *marketdata.Client
	store     store.BarStore
	symbols   []string
	startDate string
	batchSize int
	limiter   *util.RateLimiter
	log       *slog.Logger
}

// NewDailyBarGatherer creates a DailyBarGatherer configured with the given
// Alpaca credentials, target store, watchlist, and rate-limit parameters.
func NewDailyBarGatherer(apiKey, apiSecret, dataURL string, s store.BarStore, symbols []string, startDate string, batchSize, ratePerMin int) *DailyBarGatherer {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &DailyBarGatherer{
		client:    marketdata.NewClient(opts),
		store:     s,
		symbols:   symbols,
		startDate: startDate,
		batchSize: batchSize,
		limiter:   util.NewRateLimiter(ratePerMin),
		log:       slog.Default().With("gatherer", "daily"),
	}
}

// Name returns the gatherer identifier.
func (g *DailyBarGatherer) Name() string { return "daily" }

// Run fetches daily bars for every watchlist symbol from startDate through
// yesterday and writes them to the store. It blocks until done or ctx is
// cancelled.
func (g *DailyBarGatherer) Run(ctx context.Context) error {
	if len(g.symbols) == 0 {
		return fmt.Errorf("gather: no symbols configured")
	}

	start, err := time.Parse("2006-01-02", g.startDate)
	if err != nil {
		return fmt.Errorf("parsing start date %q: %w", g.startDate, err)
	}
	// Stay clear of the current session so only finished days are stored.
	end := time.Now().UTC().Truncate(24 * time.Hour)

	batches := g.splitBatches()
	runStart := time.Now()

	g.log.Info("starting daily gather",
		"symbols", len(g.symbols),
		"batches", len(batches),
		"start", g.startDate,
	)

	var totalBars int
	for i, batch := range batches {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		var bars []domain.Bar
		err := util.Retry(ctx, 3, time.Second, func() error {
			var fetchErr error
			bars, fetchErr = g.fetchMultiBars(ctx, batch, start, end)
			return fetchErr
		})
		if err != nil {
			return fmt.Errorf("fetching batch %d/%d: %w", i+1, len(batches), err)
		}

		if len(bars) > 0 {
			if err := g.store.WriteBars(ctx, bars); err != nil {
				return fmt.Errorf("writing batch %d/%d: %w", i+1, len(batches), err)
			}
		}
		totalBars += len(bars)

		g.log.Info("batch done",
			"batch", fmt.Sprintf("%d/%d", i+1, len(batches)),
			"bars", len(bars),
			"elapsed", time.Since(runStart).Round(time.Second),
		)
	}

	g.log.Info("complete",
		"bars", totalBars,
		"elapsed", time.Since(runStart).Round(time.Second),
	)
	return nil
}

func (g *DailyBarGatherer) splitBatches() [][]string {
	size := g.batchSize
	if size <= 0 {
		size = len(g.symbols)
	}
	var batches [][]string
	for i := 0; i < len(g.symbols); i += size {
		end := min(i+size, len(g.symbols))
		batches = append(batches, g.symbols[i:end])
	}
	return batches
}

// fetchMultiBars fetches daily bars for multiple symbols in a single API call.
func (g *DailyBarGatherer) fetchMultiBars(ctx context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	multiBars, err := g.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
		Feed:      "sip",
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	var bars []domain.Bar
	for symbol, alpacaBars := range multiBars {
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol:     strings.ToUpper(symbol),
				Timestamp:  ab.Timestamp,
				Open:       ab.Open,
				High:       ab.High,
				Low:        ab.Low,
				Close:      ab.Close,
				Volume:     int64(ab.Volume),
				TradeCount: int64(ab.TradeCount),
				VWAP:       ab.VWAP,
			})
		}
	}
	return bars, nil
}
