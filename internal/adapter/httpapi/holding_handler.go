package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/custodia-systems/custodia-backend/internal/domain"
	"github.com/custodia-systems/custodia-backend/internal/logger"
	"github.com/custodia-systems/custodia-backend/internal/usecase/approval"
)

// holdingPayload is the wire form of a holding draft or edit.
// Decimal fields travel as strings to avoid float rounding on the wire.
type holdingPayload struct {
	SecurityID    string `json:"securityId"`
	SecurityName  string `json:"securityName"`
	Quantity      string `json:"quantity"`
	Price         string `json:"price"`
	PurchasePrice string `json:"purchasePrice,omitempty"`
	PurchaseDate  string `json:"purchaseDate,omitempty"`
	AssetClass    string `json:"assetClass,omitempty"`
}

type holdingResponse struct {
	ID            string `json:"id"`
	SecurityID    string `json:"securityId"`
	SecurityName  string `json:"securityName"`
	Quantity      string `json:"quantity"`
	Price         string `json:"price"`
	PurchasePrice string `json:"purchasePrice,omitempty"`
	PurchaseDate  string `json:"purchaseDate,omitempty"`
	AssetClass    string `json:"assetClass,omitempty"`
	Status        string `json:"status"`
	OwnerID       string `json:"ownerId"`
}

func toHoldingResponse(h *domain.HoldingRecord) holdingResponse {
	resp := holdingResponse{
		ID:           h.ID.String(),
		SecurityID:   h.SecurityID,
		SecurityName: h.SecurityName,
		Quantity:     h.Quantity.String(),
		Price:        h.Price.String(),
		AssetClass:   h.AssetClass,
		Status:       string(h.Status),
		OwnerID:      h.OwnerID,
	}
	if h.HasPurchase {
		resp.PurchasePrice = h.PurchasePrice.String()
	}
	if !h.PurchaseDate.IsZero() {
		resp.PurchaseDate = h.PurchaseDate.Format("2006-01-02")
	}
	return resp
}

// handleSubmitHolding creates a new pending holding for the actor
func (s *Server) handleSubmitHolding(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var payload holdingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		sendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	input, err := payloadToSubmitInput(payload)
	if err != nil {
		mapError(w, r, err)
		return
	}

	holding, err := s.Approval.Submit(r.Context(), actor, input)
	if err != nil {
		mapError(w, r, err)
		return
	}

	s.invalidateMetrics()
	logger.FromContext(r.Context()).Info("Holding submitted", "holdingID", holding.ID, "securityID", holding.SecurityID)
	sendJSON(w, http.StatusCreated, toHoldingResponse(holding))
}

// handleListHoldings returns holdings, optionally filtered by status
func (s *Server) handleListHoldings(w http.ResponseWriter, r *http.Request) {
	statuses, err := statusFilterFromQuery(r)
	if err != nil {
		mapError(w, r, err)
		return
	}

	holdings, err := s.HoldingRepo.List(r.Context(), statuses...)
	if err != nil {
		mapError(w, r, err)
		return
	}

	resp := make([]holdingResponse, 0, len(holdings))
	for _, h := range holdings {
		resp = append(resp, toHoldingResponse(h))
	}
	sendJSON(w, http.StatusOK, resp)
}

type reviewRequest struct {
	Decision string `json:"decision"` // "APPROVE" or "REJECT"
}

// handleReviewHolding applies a checker's decision to a pending holding
func (s *Server) handleReviewHolding(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	holdingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendJSONError(w, "invalid holding id", http.StatusBadRequest)
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	holding, err := s.Approval.Review(r.Context(), actor, holdingID, approval.Decision(req.Decision))
	if err != nil {
		mapError(w, r, err)
		return
	}

	s.invalidateMetrics()
	logger.FromContext(r.Context()).Info("Holding reviewed", "holdingID", holding.ID, "status", holding.Status)
	sendJSON(w, http.StatusOK, toHoldingResponse(holding))
}

// handleEditHolding applies field changes to a pending holding
func (s *Server) handleEditHolding(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	holdingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendJSONError(w, "invalid holding id", http.StatusBadRequest)
		return
	}

	var payload struct {
		SecurityID    *string `json:"securityId"`
		SecurityName  *string `json:"securityName"`
		Quantity      *string `json:"quantity"`
		Price         *string `json:"price"`
		PurchasePrice *string `json:"purchasePrice"`
		PurchaseDate  *string `json:"purchaseDate"`
		AssetClass    *string `json:"assetClass"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		sendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	input := approval.EditInput{
		SecurityID:   payload.SecurityID,
		SecurityName: payload.SecurityName,
		AssetClass:   payload.AssetClass,
	}
	if input.Quantity, err = parseOptionalDecimal(payload.Quantity, "quantity"); err != nil {
		mapError(w, r, err)
		return
	}
	if input.Price, err = parseOptionalDecimal(payload.Price, "price"); err != nil {
		mapError(w, r, err)
		return
	}
	if input.PurchasePrice, err = parseOptionalDecimal(payload.PurchasePrice, "purchasePrice"); err != nil {
		mapError(w, r, err)
		return
	}
	if payload.PurchaseDate != nil {
		d, err := time.Parse("2006-01-02", *payload.PurchaseDate)
		if err != nil {
			sendJSONError(w, "purchaseDate must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		input.PurchaseDate = &d
	}

	holding, err := s.Approval.Edit(r.Context(), actor, holdingID, input)
	if err != nil {
		mapError(w, r, err)
		return
	}

	s.invalidateMetrics()
	sendJSON(w, http.StatusOK, toHoldingResponse(holding))
}

// handleRemoveHolding deletes a holding (admin only, any status)
func (s *Server) handleRemoveHolding(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	holdingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendJSONError(w, "invalid holding id", http.StatusBadRequest)
		return
	}

	if err := s.Approval.Remove(r.Context(), actor, holdingID); err != nil {
		mapError(w, r, err)
		return
	}

	s.invalidateMetrics()
	logger.FromContext(r.Context()).Info("Holding removed", "holdingID", holdingID)
	w.WriteHeader(http.StatusNoContent)
}

func payloadToSubmitInput(payload holdingPayload) (approval.SubmitInput, error) {
	input := approval.SubmitInput{
		SecurityID:   payload.SecurityID,
		SecurityName: payload.SecurityName,
		AssetClass:   payload.AssetClass,
	}

	qty, err := parseRequiredDecimal(payload.Quantity, "quantity")
	if err != nil {
		return input, err
	}
	input.Quantity = qty

	price, err := parseRequiredDecimal(payload.Price, "price")
	if err != nil {
		return input, err
	}
	input.Price = price

	if payload.PurchasePrice != "" {
		pp, err := parseRequiredDecimal(payload.PurchasePrice, "purchasePrice")
		if err != nil {
			return input, err
		}
		input.PurchasePrice = &pp
	}
	if payload.PurchaseDate != "" {
		d, err := time.Parse("2006-01-02", payload.PurchaseDate)
		if err != nil {
			return input, invalidField("purchaseDate must be YYYY-MM-DD")
		}
		input.PurchaseDate = d
	}

	return input, nil
}

func parseRequiredDecimal(raw, field string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, invalidField(field + " is required")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, invalidField(field + " is not a valid number")
	}
	return d, nil
}

func parseOptionalDecimal(raw *string, field string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := parseRequiredDecimal(*raw, field)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
