package evolve

import (
	"context"
	"math"
	"testing"
)

// synthetic deterministic feature history: 3 columns driven by a sine walk.
func testData(T int) ([][]float64, []float64) {
	features := make([][]float64, T)
	returns := make([]float64, T)
	for t := 0; t < T; t++ {
		x := float64(t)
		features[t] = []float64{
			math.Sin(x / 3),
			math.Cos(x / 5),
			math.Sin(x/7) * math.Cos(x/2),
		}
		if t+1 < T {
			returns[t] = math.Sin((x+1)/3) - math.Sin(x/3)
		}
	}
	return features, returns
}

func testConfig() Config {
	return Config{
		Population:  12,
		Generations: 4,
		Terms:       2,
		MaxLookback: 3,
		Elites:      2,
		Workers:     3,
		Seed:        42,
	}
}

func TestConfigValidate(t *testing.T) {
	bad := []Config{
		{Population: 0, Generations: 1, Terms: 1},
		{Population: 10, Generations: 0, Terms: 1},
		{Population: 10, Generations: 1, Terms: 0},
		{Population: 5, Generations: 1, Terms: 1, Elites: 5},
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Errorf("config %d accepted: %+v", i, cfg)
		}
	}

	good := testConfig()
	if err := good.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if good.TournamentSize < 2 || good.MutationRate <= 0 || good.WeightJitter <= 0 {
		t.Errorf("defaults not applied: %+v", good)
	}
}

func TestRunProducesRankedPopulation(t *testing.T) {
	features, returns := testData(40)
	e, err := NewEngine(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	res, err := e.Run(context.Background(), features, returns)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Ranked) != 12 {
		t.Errorf("ranked population = %d, want 12", len(res.Ranked))
	}
	if len(res.BestScores) != 4 {
		t.Errorf("best scores = %d, want 4", len(res.BestScores))
	}
	for i := 1; i < len(res.Ranked); i++ {
		if res.Ranked[i].Trader.Score() > res.Ranked[i-1].Trader.Score() {
			t.Fatalf("population not ranked by score at %d", i)
		}
	}
	if res.Best() != res.Ranked[0] {
		t.Error("Best() is not the top-ranked member")
	}
	for _, m := range res.Ranked {
		if len(m.Terms) != 2 {
			t.Fatalf("member has %d terms, want 2", len(m.Terms))
		}
		if m.ID.String() == "00000000-0000-0000-0000-000000000000" {
			t.Fatal("member has zero ID")
		}
	}
}

func TestRunDeterministicWithSeed(t *testing.T) {
	features, returns := testData(40)

	run := func() float64 {
		e, err := NewEngine(testConfig(), nil)
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}
		res, err := e.Run(context.Background(), features, returns)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return res.Best().Trader.Score()
	}

	if a, b := run(), run(); a != b {
		t.Errorf("same seed produced different best scores: %v vs %v", a, b)
	}
}

func TestRunInputValidation(t *testing.T) {
	e, err := NewEngine(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := e.Run(context.Background(), nil, nil); err == nil {
		t.Error("empty feature history accepted")
	}
	features, _ := testData(10)
	if _, err := e.Run(context.Background(), features, make([]float64, 3)); err == nil {
		t.Error("misaligned returns accepted")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	features, returns := testData(40)
	e, err := NewEngine(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Run(ctx, features, returns); err == nil {
		t.Error("cancelled run returned no error")
	}
}
