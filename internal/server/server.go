// Package server exposes the JSON HTTP API for rate quotes.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/ratebridge/internal/ratecache"
	"github.com/tournevent/ratebridge/internal/telemetry"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Server is the HTTP server for the rate bridge.
type Server struct {
	port     int
	registry *carrier.Registry
	cache    *ratecache.Cache
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, registry *carrier.Registry, cache *ratecache.Cache, metrics *telemetry.Metrics, logger *otelzap.Logger) *Server {
	return &Server{
		port:     cfg.Port,
		registry: registry,
		cache:    cache,
		logger:   logger,
		metrics:  metrics,
	}
}

// Handler returns the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/rates", s.handleRates)
	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed,
			carrier.NewError(carrier.SystemCarrier, carrier.CodeValidation, "method not allowed, use POST"))
		return
	}

	var payload RateRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest,
			carrier.NewError(carrier.SystemCarrier, carrier.CodeValidation, "invalid JSON body").WithCause(err))
		return
	}

	req := payload.ToDomain()
	if err := carrier.Validate(req); err != nil {
		s.writeError(w, http.StatusBadRequest, carrier.Wrap(carrier.SystemCarrier, err))
		return
	}

	key := ratecache.Key(payload.Carriers, req)
	if results, ok := s.cache.Get(key); ok {
		resp := BuildResponsePayload(results, nil)
		resp.Cached = true
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	start := time.Now()
	results, errs := s.registry.GetRatesFromCarriers(r.Context(), req, payload.Carriers)
	elapsed := time.Since(start).Seconds()

	for _, resp := range results {
		if len(resp.Quotes) > 0 {
			s.metrics.RecordRequest(resp.Quotes[0].Carrier, "ok", elapsed)
		}
	}
	for _, err := range errs {
		e := carrier.Wrap(carrier.SystemCarrier, err)
		s.metrics.RecordRequest(e.Carrier, "error", elapsed)
		s.metrics.RecordError(e.Carrier, string(e.Code))
		s.logger.Warn("Carrier rate call failed",
			zap.String("carrier", e.Carrier),
			zap.String("code", string(e.Code)),
			zap.Error(e),
		)
	}

	if len(results) > 0 {
		s.cache.Set(key, results)
	}

	status := http.StatusOK
	if len(results) == 0 {
		// Every carrier failed; surface it as an upstream failure.
		status = http.StatusBadGateway
	}
	s.writeJSON(w, status, BuildResponsePayload(results, errs))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, e *carrier.Error) {
	s.writeJSON(w, status, RatesResponsePayload{
		Results: []RateResultPayload{},
		Errors: []RateErrorPayload{{
			Carrier:   e.Carrier,
			Code:      string(e.Code),
			Message:   e.Message,
			Retryable: e.Retryable,
		}},
	})
}
