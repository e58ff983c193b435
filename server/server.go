// Package server exposes calculations over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/config"
	"github.com/etnz/tradebook/oracle"
	"github.com/etnz/tradebook/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// Server serves the tradebook API.
//
// It keeps a snapshot of the latest rates and prices, refreshed on demand or on a schedule,
// so that calculations do not wait on the oracles.
type Server struct {
	cfg    *config.Config
	store  store.Store
	rates  oracle.RateOracle
	prices oracle.PriceOracle

	mu       sync.RWMutex
	snapshot tradebook.Rates
	quotes   map[string]decimal.Decimal
}

// New returns a Server. rates and prices may be nil, positions are then valued at cost and
// every currency converted at 1.
func New(cfg *config.Config, s store.Store, rates oracle.RateOracle, prices oracle.PriceOracle) *Server {
	return &Server{
		cfg:      cfg,
		store:    s,
		rates:    rates,
		prices:   prices,
		snapshot: tradebook.NewRates(cfg.BaseCurrency),
		quotes:   make(map[string]decimal.Decimal),
	}
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logger)
	r.Use(middleware.Recoverer)
	r.Use(NewCORS(s.cfg.CORS.AllowedOrigins).Handler)
	r.Use(RateLimit(nil))

	r.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/health", s.Health)
			r.Post("/refresh", s.RefreshHandler)
		})
		r.Post("/calculate", s.Calculate)
		r.Post("/calculate/csv", s.CalculateCSV)
		r.Get("/prefs", s.GetPreferences)
		r.Put("/prefs", s.PutPreferences)
		r.Get("/history", s.GetHistory)
		r.Get("/residencies", s.Residencies)
	})
	return r
}

// Refresh fetches the rates of the base currency and the prices of the tickers in the search
// history.
func (s *Server) Refresh(ctx context.Context) error {
	if s.rates != nil {
		r, err := s.rates.Rates(ctx, s.cfg.BaseCurrency)
		if err != nil {
			return fmt.Errorf("refreshing rates: %w", err)
		}
		s.mu.Lock()
		s.snapshot = r
		s.mu.Unlock()
	}
	if s.prices != nil {
		tickers, err := store.History(ctx, s.store)
		if err != nil {
			return fmt.Errorf("refreshing prices: %w", err)
		}
		p, err := oracle.ResolvePrices(ctx, s.prices, tickers, 0)
		if err != nil {
			return fmt.Errorf("refreshing prices: %w", err)
		}
		s.mu.Lock()
		for k, v := range p {
			s.quotes[k] = v
		}
		s.mu.Unlock()
	}
	return nil
}

// Schedule refreshes the snapshot on the cron spec until the returned cron is stopped.
func (s *Server) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if err := s.Refresh(ctx); err != nil {
			log.Printf("scheduled refresh failed: %v", err)
			return
		}
		log.Printf("scheduled refresh done")
	}); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}

// currentRates returns the latest rates snapshot.
func (s *Server) currentRates() tradebook.Rates {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// pricesFor returns the prices of tickers, from the snapshot or from the price oracle.
func (s *Server) pricesFor(ctx context.Context, tickers []string, override map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(tickers))
	var missing []string
	s.mu.RLock()
	for _, t := range tickers {
		if p, ok := override[t]; ok {
			out[t] = p
		} else if p, ok := s.quotes[t]; ok {
			out[t] = p
		} else {
			missing = append(missing, t)
		}
	}
	s.mu.RUnlock()
	if s.prices == nil || len(missing) == 0 {
		return out
	}
	fetched, err := oracle.ResolvePrices(ctx, s.prices, missing, 0)
	if err != nil {
		log.Printf("prices unavailable, positions valued at cost: %v", err)
		return out
	}
	s.mu.Lock()
	for k, v := range fetched {
		out[k] = v
		s.quotes[k] = v
	}
	s.mu.Unlock()
	return out
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Printf("listening on http://%s", srv.Addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
