package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-systems/custodia-backend/internal/domain"
	"github.com/custodia-systems/custodia-backend/internal/logger"
)

type recordPriceRequest struct {
	SecurityID string `json:"securityId"`
	Date       string `json:"date"` // YYYY-MM-DD
	Price      string `json:"price"`
}

type priceResponse struct {
	SecurityID string `json:"securityId"`
	Date       string `json:"date"`
	Price      string `json:"price"`
}

func toPriceResponse(obs *domain.PriceObservation) priceResponse {
	return priceResponse{
		SecurityID: obs.SecurityID,
		Date:       obs.Date.Format("2006-01-02"),
		Price:      obs.Price.String(),
	}
}

// handleRecordPrice upserts a price observation for one (security, day) key
func (s *Server) handleRecordPrice(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if !actor.Role.Can(domain.ActionRecordPrice) {
		sendJSONError(w, "role may not record prices", http.StatusForbidden)
		return
	}

	var req recordPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		sendJSONError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	price, err := parseRequiredDecimal(req.Price, "price")
	if err != nil {
		mapError(w, r, err)
		return
	}

	obs, err := s.Pricing.RecordPrice(r.Context(), req.SecurityID, date, price)
	if err != nil {
		mapError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("Price recorded", "securityID", obs.SecurityID, "date", obs.Date.Format("2006-01-02"))
	sendJSON(w, http.StatusOK, toPriceResponse(obs))
}

// handleResolvePrice looks up the exact-day price for a security.
// A miss is a 404: the client prompts the user for a manual entry.
func (s *Server) handleResolvePrice(w http.ResponseWriter, r *http.Request) {
	securityID := chi.URLParam(r, "isin")

	date, err := dateFromQuery(r)
	if err != nil {
		mapError(w, r, err)
		return
	}

	price, err := s.Pricing.ResolvePrice(r.Context(), securityID, date)
	if err != nil {
		mapError(w, r, err)
		return
	}

	sendJSON(w, http.StatusOK, priceResponse{
		SecurityID: securityID,
		Date:       domain.Day(date).Format("2006-01-02"),
		Price:      price.String(),
	})
}

// handlePriceHistory lists all observations for one security
func (s *Server) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	observations, err := s.Pricing.History(r.Context(), chi.URLParam(r, "isin"))
	if err != nil {
		mapError(w, r, err)
		return
	}

	resp := make([]priceResponse, 0, len(observations))
	for _, obs := range observations {
		resp = append(resp, toPriceResponse(obs))
	}
	sendJSON(w, http.StatusOK, resp)
}
