// Package api exposes the portfolio summary over HTTP. The version segment of
// the request path selects the fee-strategy variant.
package api

import (
	"net/http"
	"time"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, summaries Summarizer, portfolios PortfolioDirectory, reportingCurrency string) *http.Server {
	handler := NewHandler(summaries, portfolios, reportingCurrency)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/{version}/portfolios/{id}/summary", handler.GetSummary)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
