package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"accrue/metrics"
	"accrue/service"
)

// Server wraps the HTTP server exposing the ledger to its collaborators:
// the deposit/withdraw front-end (mint/burn/balance), holders (transfers),
// and rate administration.
type Server struct {
	httpServer *http.Server
}

// NewServer creates the HTTP server with all routes mounted.
func NewServer(addr string, ledger service.LedgerService, rates service.RateService, collector *metrics.Collector) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      newRouter(ledger, rates, collector),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

func newRouter(ledger service.LedgerService, rates service.RateService, collector *metrics.Collector) chi.Router {
	h := &handler{
		ledger:    ledger,
		rates:     rates,
		collector: collector,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/accounts/{address}", h.getAccount)
		r.Get("/accounts/{address}/balance", h.getBalance)
		r.Get("/accounts/{address}/history", h.getHistory)
		r.Post("/accounts/{address}/settle", h.settle)

		r.Post("/mint", h.mint)
		r.Post("/burn", h.burn)
		r.Post("/transfer", h.transfer)
		r.Post("/transfer-from", h.transferFrom)
		r.Post("/approve", h.approve)
		r.Get("/allowance/{owner}/{spender}", h.getAllowance)
		r.Get("/accounts/{address}/allowances", h.listAllowances)

		r.Get("/rate", h.getRate)
		r.Put("/rate", h.setRate)
		r.Get("/rate/changes", h.getRateChanges)

		r.Get("/supply", h.getSupply)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if collector != nil {
		r.Method(http.MethodGet, "/metrics", collector.Handler())
	}

	return r
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
