// Package httpapi serves the lab results over HTTP: completed runs, ranked
// traders, and on-demand predictions from stored trader representations.
package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tradelab/internal/domain"
	"tradelab/internal/features"
	"tradelab/internal/formula"
	"tradelab/internal/metrics"
	"tradelab/internal/store"
	"tradelab/internal/trader"
)

// Server serves the lab HTTP API.
type Server struct {
	bars    store.BarStore
	traders store.TraderStore
	log     *slog.Logger
}

// NewServer creates a Server backed by the given stores.
func NewServer(bars store.BarStore, traders store.TraderStore, log *slog.Logger) *Server {
	return &Server{bars: bars, traders: traders, log: log}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/runs/latest", s.handleLatestRun)
	mux.HandleFunc("GET /api/traders", s.handleTraders)
	mux.HandleFunc("GET /api/predict/{id}", s.handlePredict)
	mux.Handle("GET /metrics", metrics.Handler())
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{Status: "ok"})
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.traders.LatestRun(r.Context())
	if err != nil {
		s.log.Error("loading latest run", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load latest run")
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "no runs recorded")
		return
	}
	writeJSON(w, convertRun(run))
}

func (s *Server) handleTraders(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runID := r.URL.Query().Get("run")
	if runID == "" {
		run, err := s.traders.LatestRun(r.Context())
		if err != nil {
			s.log.Error("loading latest run", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load latest run")
			return
		}
		if run == nil {
			writeError(w, http.StatusNotFound, "no runs recorded")
			return
		}
		runID = run.ID
	}

	records, err := s.traders.TopTraders(r.Context(), runID, limit)
	if err != nil {
		s.log.Error("loading traders", "run", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load traders")
		return
	}

	resp := TradersResponse{RunID: runID, Traders: make([]TraderJSON, 0, len(records))}
	for i := range records {
		resp.Traders = append(resp.Traders, convertTrader(&records[i]))
	}
	writeJSON(w, resp)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	record, err := s.traders.GetTrader(r.Context(), id)
	if err != nil {
		s.log.Error("loading trader", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load trader")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("trader %s not found", id))
		return
	}

	run, err := s.traders.LatestRun(r.Context())
	if err != nil || run == nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve run symbol")
		return
	}
	symbol := run.Symbol
	if v := r.URL.Query().Get("symbol"); v != "" {
		symbol = strings.ToUpper(v)
	}

	bars, err := s.bars.ReadBars(r.Context(), symbol, time.Unix(0, 0), time.Now().UTC())
	if err != nil {
		s.log.Error("reading bars", "symbol", symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read bars")
		return
	}
	if len(bars) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no bars stored for %s", symbol))
		return
	}

	tr, err := rebuildTrader(record)
	if err != nil {
		s.log.Error("rebuilding trader", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "stored trader representation is invalid")
		return
	}

	feats, err := features.Matrix(bars)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute features")
		return
	}

	pred, err := tr.Predict(feats)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("prediction failed: %v", err))
		return
	}

	writeJSON(w, PredictResponse{
		TraderID:   record.ID,
		Symbol:     symbol,
		Bars:       len(bars),
		Prediction: pred,
	})
}

// rebuildTrader reconstructs a live trader from its persisted numerical
// representation.
func rebuildTrader(rec *domain.TraderRecord) (*trader.Trader, error) {
	terms := make([]*formula.Term, 0, len(rec.Formulas))
	formulas := make([]trader.Formula, 0, len(rec.Formulas))
	for i, repr := range rec.Formulas {
		term, err := formula.FromRepr(repr)
		if err != nil {
			return nil, fmt.Errorf("decoding formula %d: %w", i, err)
		}
		terms = append(terms, term)
		formulas = append(formulas, term)
	}
	return trader.New(rec.Weights, formulas, formula.MaxLag(terms))
}

func convertRun(run *domain.Run) RunJSON {
	return RunJSON{
		ID:          run.ID,
		Symbol:      run.Symbol,
		Generations: run.Generations,
		Population:  run.Population,
		BestScore:   run.BestScore,
		StartedAt:   run.StartedAt.UnixMilli(),
		FinishedAt:  run.FinishedAt.UnixMilli(),
	}
}

func convertTrader(rec *domain.TraderRecord) TraderJSON {
	return TraderJSON{
		ID:           rec.ID,
		RunID:        rec.RunID,
		Generation:   rec.Generation,
		Score:        rec.Score,
		MaxLag:       rec.MaxLag,
		Weights:      rec.Weights,
		FormulaCount: rec.FormulaCount(),
		Formulas:     rec.Formulas,
	}
}
