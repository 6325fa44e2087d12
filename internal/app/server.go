// Package app wires the mesh gateway together: it loads the service-mesh
// registry, refuses to start unless every required api contract is routable
// and this hop's publish body limit conforms to the policy, and then serves
// a contract-resolving reverse proxy. The registry is immutable after load
// and shared by all request handlers without locking.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"meshgateway/internal/config"
	"meshgateway/internal/core"
	"meshgateway/internal/loader"
	"meshgateway/internal/middleware/bodylimit"
	"meshgateway/internal/policy"
	"meshgateway/internal/registry"
	"meshgateway/pkg/metrics"
	"meshgateway/pkg/requestid"
)

// Server is the mesh gateway process
type Server struct {
	cfg      *config.Config
	registry *registry.Registry
	targets  map[string]*url.URL
	handler  http.Handler
	limiter  *bodylimit.Middleware
	metrics  *metrics.Metrics
	logger   *slog.Logger

	httpServer *http.Server
}

// NewServer loads and validates the registry, runs this hop's startup gate,
// and builds the request pipeline. Any validation failure is fatal here:
// serving traffic with an incomplete routing table or an under-provisioned
// body limit is worse than refusing to start.
func NewServer(cfg *config.Config, env loader.Environ, m *metrics.Metrics, logger *slog.Logger) (*Server, error) {
	src := loader.Resolve(env, cfg.FallbackDocument())
	reg, err := src.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("service mesh registry loaded",
		"source", src.Type(),
		"version", reg.Version(),
		"services", len(reg.Services()))

	if err := reg.EnsureContractsRegistered(registry.GatewayAPIContracts); err != nil {
		return nil, err
	}

	limit, err := policy.HopLimit(env, reg.Policy(), cfg.Gateway.Hop)
	if err != nil {
		return nil, err
	}
	if reg.Policy() != nil {
		logger.Info("publish ingress limit validated",
			"hop", cfg.Gateway.Hop,
			"configuredMaxBodyBytes", limit,
			"requiredPolicyBytes", reg.Policy().DefaultMaxBodyBytes)
	}

	targets := make(map[string]*url.URL, len(reg.Services()))
	for _, svc := range reg.Services() {
		u, err := url.Parse(svc.BaseURL)
		if err != nil {
			// Unreachable after document validation; guard anyway.
			return nil, fmt.Errorf("service %s base_url: %w", svc.ServiceName, err)
		}
		targets[svc.ServiceName] = u
	}

	s := &Server{
		cfg:      cfg,
		registry: reg,
		targets:  targets,
		metrics:  m,
		logger:   logger,
	}

	s.limiter = bodylimit.New(reg.Policy(), cfg.Gateway.Hop, limit, m, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", withRequestID(s.limiter.Wrap(s.proxyHandler())))
	s.handler = mux

	return s, nil
}

// Handler returns the gateway's request pipeline
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving in the background
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Gateway.Listen.Host, s.cfg.Gateway.Listen.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  time.Duration(s.cfg.Gateway.Listen.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Gateway.Listen.WriteTimeout) * time.Second,
	}

	s.logger.Info("mesh gateway listening", "addr", addr, "hop", s.cfg.Gateway.Hop)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server failed", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","registryVersion":%q}`, s.registry.Version())
}

// withRequestID guarantees every request carries an ID before enforcement and
// proxying, so rejection metrics and logs always have one to report
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(core.HeaderRequestID) == "" {
			r.Header.Set(core.HeaderRequestID, requestid.New())
		}
		next.ServeHTTP(w, r)
	})
}
