package tradelab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8090"
	c := NewClient(baseURL)

	if c.baseURL != baseURL {
		t.Errorf("expected baseURL %q, got %q", baseURL, c.baseURL)
	}
	if c.httpClient == nil {
		t.Fatal("expected non-nil httpClient")
	}
}

func TestClientRoundtrip(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/runs/latest", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Run{ID: "run-1", Symbol: "AAPL", BestScore: 2.5})
	})
	mux.HandleFunc("GET /api/traders", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "3" || r.URL.Query().Get("run") != "run-1" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(Traders{RunID: "run-1", Traders: []Trader{{ID: "t-1"}}})
	})
	mux.HandleFunc("GET /api/predict/t-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Prediction{TraderID: "t-1", Symbol: "AAPL", Prediction: 0.1})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	run, err := c.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if run.ID != "run-1" || run.BestScore != 2.5 {
		t.Errorf("unexpected run: %+v", run)
	}

	traders, err := c.TopTraders(ctx, "run-1", 3)
	if err != nil {
		t.Fatalf("TopTraders: %v", err)
	}
	if len(traders.Traders) != 1 || traders.Traders[0].ID != "t-1" {
		t.Errorf("unexpected traders: %+v", traders)
	}

	pred, err := c.Predict(ctx, "t-1", "")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred.Prediction != 0.1 {
		t.Errorf("unexpected prediction: %+v", pred)
	}
}

func TestClientErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "no runs recorded"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.LatestRun(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "GET /api/runs/latest: no runs recorded (status 404)" {
		t.Errorf("unexpected error: %q", got)
	}
}
