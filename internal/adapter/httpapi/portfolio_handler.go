package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-systems/custodia-backend/internal/domain"
	"github.com/custodia-systems/custodia-backend/internal/logger"
)

type itemValuationResponse struct {
	HoldingID     string `json:"holdingId"`
	SecurityID    string `json:"securityId"`
	ResolvedPrice string `json:"resolvedPrice"`
	ResolvedValue string `json:"resolvedValue"`
	UsedFallback  bool   `json:"usedFallback"`
}

type valuationResponse struct {
	Date       string                  `json:"date"`
	Items      []itemValuationResponse `json:"items"`
	TotalValue string                  `json:"totalValue"`
}

// handleValuation values the holdings snapshot as of the requested day.
// Approved holdings only by default; ?status= widens or narrows the set.
func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	date, err := dateFromQuery(r)
	if err != nil {
		mapError(w, r, err)
		return
	}

	statuses := []domain.HoldingStatus{domain.HoldingStatusApproved}
	if r.URL.Query().Get("status") != "" {
		if statuses, err = statusFilterFromQuery(r); err != nil {
			mapError(w, r, err)
			return
		}
	}

	holdings, err := s.HoldingRepo.List(r.Context(), statuses...)
	if err != nil {
		mapError(w, r, err)
		return
	}

	snapshot, err := s.Valuation.ValueAsOf(r.Context(), holdings, date)
	if err != nil {
		mapError(w, r, err)
		return
	}

	resp := valuationResponse{
		Date:       snapshot.Date.Format("2006-01-02"),
		Items:      make([]itemValuationResponse, 0, len(snapshot.Items)),
		TotalValue: snapshot.TotalValue.String(),
	}
	fallbacks := 0
	for _, item := range snapshot.Items {
		if item.UsedFallback {
			fallbacks++
		}
		resp.Items = append(resp.Items, itemValuationResponse{
			HoldingID:     item.HoldingID.String(),
			SecurityID:    item.SecurityID,
			ResolvedPrice: item.ResolvedPrice.String(),
			ResolvedValue: item.ResolvedValue.String(),
			UsedFallback:  item.UsedFallback,
		})
	}
	if fallbacks > 0 {
		logger.FromContext(r.Context()).Warn("Valuation used fallback prices", "date", resp.Date, "items", fallbacks)
	}

	sendJSON(w, http.StatusOK, resp)
}

type metricsResponse struct {
	TotalAUM        string            `json:"totalAum"`
	TotalGainLoss   string            `json:"totalGainLoss"`
	GainLossPercent string            `json:"gainLossPercent"`
	AssetBreakdown  map[string]string `json:"assetBreakdown"`
}

// handleMetrics derives AUM, gain/loss, and the asset-class breakdown.
// All statuses are included unless ?status= restricts the set. Results
// are cached briefly; any holding mutation flushes the cache.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	statuses, err := statusFilterFromQuery(r)
	if err != nil {
		mapError(w, r, err)
		return
	}

	cacheKey := metricsCacheKey(statuses)
	if cached, found := s.metricsCache.Get(cacheKey); found {
		sendJSON(w, http.StatusOK, cached.(metricsResponse))
		return
	}

	snapshot, err := s.Metrics.Compute(r.Context(), statuses...)
	if err != nil {
		mapError(w, r, err)
		return
	}

	resp := metricsResponse{
		TotalAUM:        snapshot.TotalAUM.String(),
		TotalGainLoss:   snapshot.TotalGainLoss.String(),
		GainLossPercent: snapshot.GainLossPercent.String(),
		AssetBreakdown:  make(map[string]string, len(snapshot.AssetBreakdown)),
	}
	for class, value := range snapshot.AssetBreakdown {
		resp.AssetBreakdown[class] = value.String()
	}

	s.metricsCache.SetDefault(cacheKey, resp)
	sendJSON(w, http.StatusOK, resp)
}

func metricsCacheKey(statuses []domain.HoldingStatus) string {
	if len(statuses) == 0 {
		return "metrics:all"
	}
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return "metrics:" + strings.Join(parts, ",")
}

// invalidateMetrics drops every cached metrics snapshot after a mutation
func (s *Server) invalidateMetrics() {
	s.metricsCache.Flush()
}

type securityResponse struct {
	SecurityID string `json:"securityId"`
	Name       string `json:"name"`
	AssetClass string `json:"assetClass"`
	Country    string `json:"country"`
}

// handleLookupSecurity resolves reference data used to pre-fill drafts
func (s *Server) handleLookupSecurity(w http.ResponseWriter, r *http.Request) {
	info, err := s.RefData.LookupSecurity(chi.URLParam(r, "isin"))
	if err != nil {
		mapError(w, r, err)
		return
	}

	sendJSON(w, http.StatusOK, securityResponse{
		SecurityID: info.SecurityID,
		Name:       info.Name,
		AssetClass: info.AssetClass,
		Country:    info.Country,
	})
}
