// Package evolve runs the population search over formula-ensemble traders:
// random seeding, parallel evaluation against a feature history, elite
// retention, and tournament breeding with term mutation and weight jitter.
package evolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"

	"tradelab/internal/formula"
	"tradelab/internal/metrics"
	"tradelab/internal/trader"
)

// Config holds the search parameters.
type Config struct {
	Population     int     // traders per generation
	Generations    int     // generations to run
	Terms          int     // formula terms per trader
	MaxLookback    int     // largest trailing window a term may use
	TournamentSize int     // parents compete in groups of this size
	Elites         int     // top traders carried over unchanged
	MutationRate   float64 // per-term probability of mutation in offspring
	WeightJitter   float64 // stddev of gaussian noise added to parent weights
	Workers        int     // parallel evaluation goroutines
	Seed           int64   // rng seed; 0 means non-deterministic
}

// Validate applies defaults and rejects unusable parameter combinations.
func (c *Config) Validate() error {
	if c.Population <= 0 {
		return fmt.Errorf("evolve: population must be positive, got %d", c.Population)
	}
	if c.Generations <= 0 {
		return fmt.Errorf("evolve: generations must be positive, got %d", c.Generations)
	}
	if c.Terms <= 0 {
		return fmt.Errorf("evolve: terms must be positive, got %d", c.Terms)
	}
	if c.Elites >= c.Population {
		return fmt.Errorf("evolve: elites (%d) must be fewer than population (%d)", c.Elites, c.Population)
	}
	if c.MaxLookback < 1 {
		c.MaxLookback = 1
	}
	if c.TournamentSize < 2 {
		c.TournamentSize = 2
	}
	if c.Elites < 1 {
		c.Elites = 1
	}
	if c.MutationRate <= 0 {
		c.MutationRate = 0.3
	}
	if c.WeightJitter <= 0 {
		c.WeightJitter = 0.1
	}
	if c.Workers < 1 {
		c.Workers = 4
	}
	return nil
}

// Member is one trader in the population, paired with the concrete terms it
// was built from so offspring can be bred and survivors persisted.
type Member struct {
	ID         uuid.UUID
	Generation int
	Terms      []*formula.Term
	Trader     *trader.Trader
}

// Result is the outcome of a finished run: the final population ranked by
// score and the best score per generation.
type Result struct {
	Ranked     []*Member
	BestScores []float64
}

// Best returns the top-ranked member.
func (r *Result) Best() *Member { return r.Ranked[0] }

// Engine drives the search. Breeding happens on the caller's goroutine;
// only trader evaluation fans out to workers, and each trader is touched by
// exactly one goroutine at a time.
type Engine struct {
	cfg Config
	rng *rand.Rand
	log *slog.Logger
}

// NewEngine validates the config and creates an engine.
func NewEngine(cfg Config, log *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
		log: log.With("component", "evolve"),
	}, nil
}

// Run executes the search over the given feature history and realized
// returns, which must be co-indexed. It honors ctx cancellation between
// generations.
func (e *Engine) Run(ctx context.Context, features [][]float64, returns []float64) (*Result, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("evolve: empty feature history")
	}
	if len(returns) != len(features) {
		return nil, fmt.Errorf("evolve: %d returns for %d feature rows", len(returns), len(features))
	}

	nFeatures := len(features[0])
	pop, err := e.seed(nFeatures)
	if err != nil {
		return nil, err
	}
	metrics.PopulationSize.Set(float64(len(pop)))

	best := make([]float64, 0, e.cfg.Generations)
	for gen := 0; gen < e.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := e.evaluate(pop, features, returns); err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}
		rank(pop)

		top := pop[0].Trader.Score()
		best = append(best, top)
		metrics.Generations.Inc()
		metrics.BestScore.Set(top)
		e.log.Info("generation done", "gen", gen, "best", top, "median", pop[len(pop)/2].Trader.Score())

		if gen == e.cfg.Generations-1 {
			break
		}
		pop, err = e.breed(pop, gen+1, nFeatures)
		if err != nil {
			return nil, err
		}
	}

	return &Result{Ranked: pop, BestScores: best}, nil
}

// seed builds the initial random population with unit weights.
func (e *Engine) seed(nFeatures int) ([]*Member, error) {
	pop := make([]*Member, e.cfg.Population)
	for i := range pop {
		terms := make([]*formula.Term, e.cfg.Terms)
		for j := range terms {
			terms[j] = formula.Random(e.rng, nFeatures, e.cfg.MaxLookback)
		}
		weights := make([]float64, e.cfg.Terms)
		for j := range weights {
			weights[j] = 1
		}
		m, err := newMember(terms, weights, 0)
		if err != nil {
			return nil, err
		}
		pop[i] = m
	}
	return pop, nil
}

func newMember(terms []*formula.Term, weights []float64, gen int) (*Member, error) {
	fs := make([]trader.Formula, len(terms))
	for j, term := range terms {
		fs[j] = term
	}
	tr, err := trader.New(weights, fs, formula.MaxLag(terms))
	if err != nil {
		return nil, err
	}
	return &Member{
		ID:         uuid.New(),
		Generation: gen,
		Terms:      terms,
		Trader:     tr,
	}, nil
}

// evaluate refreshes every trader's history, recalibrates its weights, and
// scores it, fanning members out to workers. Recalibration failures are
// tolerated (the trader keeps its prior weights) and counted; any other
// failure aborts the run.
func (e *Engine) evaluate(pop []*Member, features [][]float64, returns []float64) error {
	memberCh := make(chan *Member, len(pop))
	for _, m := range pop {
		memberCh <- m
	}
	close(memberCh)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	workers := e.cfg.Workers
	if workers > len(pop) {
		workers = len(pop)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range memberCh {
				if err := evaluateMember(m, features, returns); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("trader %s: %w", m.ID, err)
					}
					mu.Unlock()
					return
				}
				metrics.Evaluations.Inc()
			}
		}()
	}
	wg.Wait()
	return firstErr
}

// evaluateMember is the per-trader evaluation pipeline: derive the history,
// refit the weights against realized returns, then re-derive so the score
// reflects the committed weights.
func evaluateMember(m *Member, features [][]float64, returns []float64) error {
	tr := m.Trader
	if err := tr.RefreshHistory(features, trader.RefreshFull); err != nil {
		return err
	}

	switch err := tr.UpdateWeights(returns); {
	case err == nil:
		if err := tr.RefreshHistory(features, trader.RefreshFull); err != nil {
			return err
		}
	case errors.Is(err, trader.ErrInsufficientData):
		metrics.RecalibrationFailures.WithLabelValues("insufficient_data").Inc()
	case errors.Is(err, trader.ErrSingularDesign):
		metrics.RecalibrationFailures.WithLabelValues("singular_design").Inc()
	default:
		return err
	}

	return tr.UpdateScore(returns, trader.MethodDefault)
}

// rank sorts by score descending, breaking ties by ID for determinism.
func rank(pop []*Member) {
	sort.Slice(pop, func(i, j int) bool {
		si, sj := pop[i].Trader.Score(), pop[j].Trader.Score()
		if si != sj {
			return si > sj
		}
		return pop[i].ID.String() < pop[j].ID.String()
	})
}

// breed produces the next generation from a ranked population: elites carry
// over unchanged, the rest are tournament-selected offspring with mutated
// terms and jittered weights.
func (e *Engine) breed(ranked []*Member, gen, nFeatures int) ([]*Member, error) {
	next := make([]*Member, 0, e.cfg.Population)
	next = append(next, ranked[:e.cfg.Elites]...)

	for len(next) < e.cfg.Population {
		parent := e.tournament(ranked)

		terms := make([]*formula.Term, len(parent.Terms))
		for j, term := range parent.Terms {
			if e.rng.Float64() < e.cfg.MutationRate {
				terms[j] = term.Mutate(e.rng, nFeatures, e.cfg.MaxLookback)
			} else {
				clone := *term
				terms[j] = &clone
			}
		}

		weights := parent.Trader.Weights()
		for j := range weights {
			weights[j] += e.rng.NormFloat64() * e.cfg.WeightJitter
		}

		child, err := newMember(terms, weights, gen)
		if err != nil {
			return nil, err
		}
		next = append(next, child)
	}
	return next, nil
}

// tournament picks the best of TournamentSize randomly drawn members.
func (e *Engine) tournament(ranked []*Member) *Member {
	best := ranked[e.rng.Intn(len(ranked))]
	for i := 1; i < e.cfg.TournamentSize; i++ {
		c := ranked[e.rng.Intn(len(ranked))]
		if c.Trader.Score() > best.Trader.Score() {
			best = c
		}
	}
	return best
}
