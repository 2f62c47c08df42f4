package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Fund-Administration-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Fund-Administration-Backend/internal/api/middleware"
	"github.com/ndewijer/Fund-Administration-Backend/internal/config"
	"github.com/ndewijer/Fund-Administration-Backend/internal/service"
)

// Services bundles the service dependencies the router wires into handlers.
type Services struct {
	Fund       *service.FundService
	Investor   *service.InvestorService
	Allocation *service.AllocationService
	Event      *service.EventService
	Waterfall  *service.WaterfallService
}

// NewRouter creates and configures the HTTP router
func NewRouter(db *sql.DB, services Services, cfg *config.Config, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(db)
			r.Get("/health", systemHandler.Health)
		})

		fundHandler := handlers.NewFundHandler(services.Fund)
		investorHandler := handlers.NewInvestorHandler(services.Investor)
		allocationHandler := handlers.NewAllocationHandler(services.Allocation)
		eventHandler := handlers.NewEventHandler(services.Event)
		waterfallHandler := handlers.NewWaterfallHandler(services.Waterfall)

		r.Route("/fund", func(r chi.Router) {
			r.Get("/", fundHandler.Funds)
			r.Post("/", fundHandler.CreateFund)
			r.Get("/report", fundHandler.AllocationReport)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", fundHandler.Fund)
				r.Get("/commitments", investorHandler.FundCommitments)
				r.Get("/allocations", allocationHandler.FundAllocations)
				r.Get("/events", eventHandler.FundEvents)
			})
		})

		r.Route("/investor", func(r chi.Router) {
			r.Get("/", investorHandler.Investors)
			r.Post("/", investorHandler.CreateInvestor)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", investorHandler.Investor)
				r.Get("/allocations", allocationHandler.InvestorAllocations)
			})
		})

		r.Post("/commitment", investorHandler.CreateCommitment)
		r.Post("/allocation", allocationHandler.Allocate)
		r.Post("/waterfall", waterfallHandler.Calculate)

		r.Route("/event", func(r chi.Router) {
			r.Post("/", eventHandler.CreateEvent)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", eventHandler.Event)
				r.Put("/status", eventHandler.UpdateStatus)
				r.Post("/process", eventHandler.Process)
				r.Get("/calculations", eventHandler.Calculations)
			})
		})
	})

	return r
}
