// Package tradelab provides a Go client for the lab-server HTTP API.
package tradelab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client provides a Go SDK for interacting with the lab-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new lab API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Run is a completed evolutionary search run.
type Run struct {
	ID          string  `json:"id"`
	Symbol      string  `json:"symbol"`
	Generations int     `json:"generations"`
	Population  int     `json:"population"`
	BestScore   float64 `json:"best_score"`
	StartedAt   int64   `json:"started_at"`
	FinishedAt  int64   `json:"finished_at"`
}

// Trader is a persisted trader with its numerical representation.
type Trader struct {
	ID           string      `json:"id"`
	RunID        string      `json:"run_id"`
	Generation   int         `json:"generation"`
	Score        float64     `json:"score"`
	MaxLag       int         `json:"max_lag"`
	Weights      []float64   `json:"weights"`
	FormulaCount int         `json:"formula_count"`
	Formulas     [][]float64 `json:"formulas"`
}

// Traders is the ranked trader listing for a run.
type Traders struct {
	RunID   string   `json:"run_id"`
	Traders []Trader `json:"traders"`
}

// Prediction is the result of evaluating a stored trader against the
// latest bar history.
type Prediction struct {
	TraderID   string  `json:"trader_id"`
	Symbol     string  `json:"symbol"`
	Bars       int     `json:"bars"`
	Prediction float64 `json:"prediction"`
}

// LatestRun retrieves the most recent run.
func (c *Client) LatestRun(ctx context.Context) (*Run, error) {
	var run Run
	if err := c.get(ctx, "/api/runs/latest", nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// TopTraders retrieves the top ranked traders. An empty runID selects the
// latest run; limit <= 0 uses the server default.
func (c *Client) TopTraders(ctx context.Context, runID string, limit int) (*Traders, error) {
	q := url.Values{}
	if runID != "" {
		q.Set("run", runID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var traders Traders
	if err := c.get(ctx, "/api/traders", q, &traders); err != nil {
		return nil, err
	}
	return &traders, nil
}

// Predict evaluates a stored trader against the bar history for a symbol.
// An empty symbol uses the run's training symbol.
func (c *Client) Predict(ctx context.Context, traderID, symbol string) (*Prediction, error) {
	q := url.Values{}
	if symbol != "" {
		q.Set("symbol", symbol)
	}
	var pred Prediction
	if err := c.get(ctx, "/api/predict/"+url.PathEscape(traderID), q, &pred); err != nil {
		return nil, err
	}
	return &pred, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, v any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("GET %s: %s (status %d)", path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
