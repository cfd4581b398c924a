package api

import "net/http"

// Routes registers the gateway router's HTTP API on mux.
func Routes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("POST /v1/route", h.Route)
	mux.HandleFunc("POST /v1/tokenize", h.Tokenize)
	mux.HandleFunc("POST /v1/cost/estimate", h.EstimateCost)
	mux.HandleFunc("GET /v1/budget/summary", h.BudgetSummary)
	mux.HandleFunc("POST /v1/latency", h.RecordLatency)
}
