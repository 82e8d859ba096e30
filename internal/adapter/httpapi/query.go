package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-systems/custodia-backend/internal/domain"
)

func invalidField(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
}

// statusFilterFromQuery parses the optional ?status= query parameter.
// Accepts a comma-separated list; "all" or absence means no filter.
func statusFilterFromQuery(r *http.Request) ([]domain.HoldingStatus, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" || strings.EqualFold(raw, "all") {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	statuses := make([]domain.HoldingStatus, 0, len(parts))
	for _, p := range parts {
		status := domain.HoldingStatus(strings.ToUpper(strings.TrimSpace(p)))
		switch status {
		case domain.HoldingStatusPending, domain.HoldingStatusApproved, domain.HoldingStatusRejected:
			statuses = append(statuses, status)
		default:
			return nil, invalidField(fmt.Sprintf("unknown status %q", p))
		}
	}
	return statuses, nil
}

// dateFromQuery parses the required ?date=YYYY-MM-DD query parameter
func dateFromQuery(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Time{}, invalidField("date query parameter is required")
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, invalidField("date must be YYYY-MM-DD")
	}
	return d, nil
}
