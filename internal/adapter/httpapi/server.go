package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/custodia-systems/custodia-backend/internal/domain"
	"github.com/custodia-systems/custodia-backend/internal/usecase/approval"
	"github.com/custodia-systems/custodia-backend/internal/usecase/metrics"
	"github.com/custodia-systems/custodia-backend/internal/usecase/pricing"
	"github.com/custodia-systems/custodia-backend/internal/usecase/refdata"
	"github.com/custodia-systems/custodia-backend/internal/usecase/userdir"
	"github.com/custodia-systems/custodia-backend/internal/usecase/valuation"
)

const (
	metricsCacheTTL     = 30 * time.Second
	metricsCacheCleanup = 5 * time.Minute
)

// Server wires the usecase services to the HTTP surface
type Server struct {
	Approval    *approval.Service
	Pricing     *pricing.Service
	Valuation   *valuation.Service
	Metrics     *metrics.Service
	Users       *userdir.Service
	RefData     *refdata.Service
	HoldingRepo domain.HoldingRepository
	Tokens      *TokenManager

	metricsCache *cache.Cache
	limiter      *rate.Limiter
}

// NewServer creates a new HTTP server instance
func NewServer(
	approvalService *approval.Service,
	pricingService *pricing.Service,
	valuationService *valuation.Service,
	metricsService *metrics.Service,
	userService *userdir.Service,
	refDataService *refdata.Service,
	holdingRepo domain.HoldingRepository,
	tokens *TokenManager,
	rateLimitBurst int,
) *Server {
	return &Server{
		Approval:     approvalService,
		Pricing:      pricingService,
		Valuation:    valuationService,
		Metrics:      metricsService,
		Users:        userService,
		RefData:      refDataService,
		HoldingRepo:  holdingRepo,
		Tokens:       tokens,
		metricsCache: cache.New(metricsCacheTTL, metricsCacheCleanup),
		limiter:      rate.NewLimiter(rate.Every(100*time.Millisecond), rateLimitBurst),
	}
}

// Router builds the chi router with all middleware and routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(ContextualLoggerMiddleware)
	r.Use(RateLimitMiddleware(s.limiter))

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware)

			r.Post("/holdings", s.handleSubmitHolding)
			r.Get("/holdings", s.handleListHoldings)
			r.Put("/holdings/{id}", s.handleEditHolding)
			r.Post("/holdings/{id}/review", s.handleReviewHolding)
			r.Delete("/holdings/{id}", s.handleRemoveHolding)

			r.Post("/prices", s.handleRecordPrice)
			r.Get("/prices/{isin}", s.handleResolvePrice)
			r.Get("/prices/{isin}/history", s.handlePriceHistory)

			r.Get("/valuation", s.handleValuation)
			r.Get("/metrics", s.handleMetrics)

			r.Get("/securities/{isin}", s.handleLookupSecurity)
		})
	})

	return r
}
