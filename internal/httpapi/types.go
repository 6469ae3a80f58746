package httpapi

// HealthResponse is the payload for GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// RunJSON is the JSON shape of a completed lab run.
type RunJSON struct {
	ID          string  `json:"id"`
	Symbol      string  `json:"symbol"`
	Generations int     `json:"generations"`
	Population  int     `json:"population"`
	BestScore   float64 `json:"best_score"`
	StartedAt   int64   `json:"started_at"`
	FinishedAt  int64   `json:"finished_at"`
}

// TraderJSON is the JSON shape of a persisted trader.
type TraderJSON struct {
	ID           string      `json:"id"`
	RunID        string      `json:"run_id"`
	Generation   int         `json:"generation"`
	Score        float64     `json:"score"`
	MaxLag       int         `json:"max_lag"`
	Weights      []float64   `json:"weights"`
	FormulaCount int         `json:"formula_count"`
	Formulas     [][]float64 `json:"formulas"`
}

// TradersResponse is the payload for GET /api/traders.
type TradersResponse struct {
	RunID   string       `json:"run_id"`
	Traders []TraderJSON `json:"traders"`
}

// PredictResponse is the payload for GET /api/predict/{id}.
type PredictResponse struct {
	TraderID   string  `json:"trader_id"`
	Symbol     string  `json:"symbol"`
	Bars       int     `json:"bars"`
	Prediction float64 `json:"prediction"`
}
