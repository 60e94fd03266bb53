package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/fms"
	"github.com/vantagewealth/summary/internal/presenter"
)

// Summarizer runs the summary pipeline for one request context.
type Summarizer interface {
	Summarize(ctx context.Context, pctx domain.PortfolioContext) (presenter.Summary, error)
}

// PortfolioDirectory resolves portfolio records for context construction.
type PortfolioDirectory interface {
	Portfolio(ctx context.Context, portfolioID int64) (domain.Portfolio, error)
	PortfoliosByUser(ctx context.Context, userID int64) (map[int64]domain.Portfolio, error)
}

// Handler provides the HTTP endpoints of the summary API.
type Handler struct {
	summaries         Summarizer
	portfolios        PortfolioDirectory
	reportingCurrency string
}

// NewHandler creates a new API handler.
func NewHandler(summaries Summarizer, portfolios PortfolioDirectory, reportingCurrency string) *Handler {
	if summaries == nil {
		panic("api.NewHandler: summaries is nil")
	}
	if portfolios == nil {
		panic("api.NewHandler: portfolios is nil")
	}
	return &Handler{summaries: summaries, portfolios: portfolios, reportingCurrency: reportingCurrency}
}

// GetSummary handles GET /api/{version}/portfolios/{id}/summary.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	version, err := domain.ParseVersion(r.PathValue("version"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported API version")
		return
	}

	portfolioID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}

	pctx, err := h.buildContext(r, version, portfolioID)
	if err != nil {
		if errors.Is(err, fms.ErrNotFound) {
			writeError(w, http.StatusNotFound, "portfolio not found")
			return
		}
		slog.Error("failed to resolve portfolio", "portfolio_id", portfolioID, "error", err)
		writeError(w, http.StatusBadGateway, "upstream failure")
		return
	}

	summary, err := h.summaries.Summarize(r.Context(), pctx)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnsupportedVersion):
			writeError(w, http.StatusBadRequest, "unsupported API version")
		case errors.Is(err, fms.ErrNotFound):
			writeError(w, http.StatusNotFound, "portfolio not found")
		default:
			slog.Error("failed to build portfolio summary", "portfolio_id", portfolioID, "version", string(version), "error", err)
			writeError(w, http.StatusBadGateway, "upstream failure")
		}
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// buildContext assembles the immutable per-request context from the resolved
// portfolio, its siblings and the request parameters.
func (h *Handler) buildContext(r *http.Request, version domain.Version, portfolioID int64) (domain.PortfolioContext, error) {
	ctx := r.Context()

	portfolio, err := h.portfolios.Portfolio(ctx, portfolioID)
	if err != nil {
		return domain.PortfolioContext{}, err
	}

	siblings, err := h.portfolios.PortfoliosByUser(ctx, portfolio.UserID)
	if err != nil {
		return domain.PortfolioContext{}, err
	}

	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency = h.reportingCurrency
	}

	pctx := domain.PortfolioContext{
		Portfolio:          portfolio,
		AllPortfolios:      siblings,
		ReportingCurrency:  currency,
		ServiceDate:        time.Now().UTC(),
		Version:            version,
		PricingPlan:        r.URL.Query().Get("pricingPlan"),
		DepositConfirmed:   r.URL.Query().Get("depositConfirmed") != "false",
		PartOfTransferPlan: r.URL.Query().Get("partOfTransferPlan") == "true",
		ShowIndicativeNav:  r.URL.Query().Get("showIndicativeNav") == "true",
	}

	if yield := r.URL.Query().Get("projectedYield"); yield != "" {
		pctx.ProjectedYield = &domain.ProjectedYield{Yield: yield}
	}

	return pctx, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
