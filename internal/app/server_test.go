package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"meshgateway/internal/config"
	"meshgateway/internal/core"
	"meshgateway/internal/loader"
	"meshgateway/internal/registry"
	"meshgateway/pkg/errors"
	"meshgateway/pkg/metrics"
)

const dataCenterLimitVar = "WORLD_BUILDER_DATA_CENTER_MAX_JSON_BODY_BYTES"

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Gateway.Listen = config.Listen{Host: "127.0.0.1", Port: 0}
	cfg.Gateway.Hop = "data-center"
	cfg.Gateway.Service = config.Service{
		Name:    "backend-data-center",
		BaseURL: "http://127.0.0.1:8787",
	}
	return cfg
}

func registryJSONFor(baseURL string, contracts []string, withPolicy bool) string {
	doc := registry.SingleService("2026-02-21", "backend-data-center", baseURL, contracts)
	if withPolicy {
		doc.PublishIngressPolicy = &registry.PolicyDocument{
			PolicyOwnerProduct:  "worldbuilder",
			PublishAPIContract:  registry.APIDiscoveryPublishCreateV1,
			DefaultMaxBodyBytes: 64,
			RequiredHops: []registry.HopSpec{
				{HopName: "data-center", Product: "backend-data-center", MaxBodyBytesEnvVar: dataCenterLimitVar},
			},
			Observability: registry.ObservabilitySpec{
				RejectionMetricName: "worldbuilder_publish_ingress_payload_rejected_total",
				RejectionLogFields:  []string{"publishIngressHop", "requestId"},
			},
		}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return string(data)
}

func newTestServer(t *testing.T, env loader.Environ) *Server {
	t.Helper()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewServer(testConfig(), env, m, logger)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func TestServer_ProxiesByContract(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "backend saw %s", r.URL.Path)
	}))
	defer backend.Close()

	env := loader.MapEnviron{
		loader.EnvRegistryJSON: registryJSONFor(backend.URL, registry.GatewayAPIContracts, true),
		dataCenterLimitVar:     "64",
	}
	s := newTestServer(t, env)

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	req.Header.Set(core.HeaderAPIContract, registry.APIDiscoveryCatalogV1)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != "backend saw /catalog" {
		t.Errorf("body = %q", got)
	}
}

func TestServer_UnknownContract(t *testing.T) {
	env := loader.MapEnviron{
		loader.EnvRegistryJSON: registryJSONFor("http://127.0.0.1:8787", registry.GatewayAPIContracts, false),
	}
	s := newTestServer(t, env)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(core.HeaderAPIContract, "worldbuilder.discovery.unknown.v1")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServer_MissingContractHeader(t *testing.T) {
	env := loader.MapEnviron{
		loader.EnvRegistryJSON: registryJSONFor("http://127.0.0.1:8787", registry.GatewayAPIContracts, false),
	}
	s := newTestServer(t, env)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServer_RejectsOversizedPublish(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend should not receive a rejected publish")
	}))
	defer backend.Close()

	env := loader.MapEnviron{
		loader.EnvRegistryJSON: registryJSONFor(backend.URL, registry.GatewayAPIContracts, true),
		dataCenterLimitVar:     "64",
	}
	s := newTestServer(t, env)

	req := httptest.NewRequest(http.MethodPost, "/publish", strings.NewReader(strings.Repeat("x", 100)))
	req.Header.Set(core.HeaderAPIContract, registry.APIDiscoveryPublishCreateV1)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestServer_RejectsOversizedChunkedPublish(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The upload aborts mid-body, so this drain never completes normally.
		io.Copy(io.Discard, r.Body)
	}))
	defer backend.Close()

	env := loader.MapEnviron{
		loader.EnvRegistryJSON: registryJSONFor(backend.URL, registry.GatewayAPIContracts, true),
		dataCenterLimitVar:     "64",
	}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewServer(testConfig(), env, m, logger)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	// Chunked transfer: no declared Content-Length, so only the body cap can
	// catch the oversized payload, and it trips while the proxy streams the
	// body upstream.
	req := httptest.NewRequest(http.MethodPost, "/publish", strings.NewReader(strings.Repeat("x", 200)))
	req.ContentLength = -1
	req.Header.Set(core.HeaderAPIContract, registry.APIDiscoveryPublishCreateV1)
	req.Header.Set(core.HeaderRequestID, "req-77")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
	if v := testutil.ToFloat64(m.PayloadRejected.WithLabelValues(
		"data-center", "64", "64", "-1", "req-77", registry.APIDiscoveryPublishCreateV1)); v != 1 {
		t.Errorf("rejection counter = %v, want 1", v)
	}
}

func TestServer_Healthz(t *testing.T) {
	env := loader.MapEnviron{
		loader.EnvRegistryJSON: registryJSONFor("http://127.0.0.1:8787", registry.GatewayAPIContracts, false),
	}
	s := newTestServer(t, env)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "2026-02-21") {
		t.Errorf("health body = %q, want registry version included", rec.Body.String())
	}
}

func TestNewServer_MissingRequiredContracts(t *testing.T) {
	env := loader.MapEnviron{
		loader.EnvRegistryJSON: registryJSONFor("http://127.0.0.1:8787",
			[]string{registry.APIDiscoveryCatalogV1}, false),
	}

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := NewServer(testConfig(), env, m, logger)
	if err == nil {
		t.Fatal("expected startup to fail with missing contracts")
	}
	if missing := errors.MissingContractSet(err); len(missing) != 4 {
		t.Errorf("expected 4 missing contracts, got %v", missing)
	}
}

func TestNewServer_HopBelowPolicyMinimum(t *testing.T) {
	env := loader.MapEnviron{
		loader.EnvRegistryJSON: registryJSONFor("http://127.0.0.1:8787", registry.GatewayAPIContracts, true),
		dataCenterLimitVar:     "63",
	}

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := NewServer(testConfig(), env, m, logger)
	if !errors.IsType(err, errors.ErrorTypePolicyViolation) {
		t.Errorf("expected policy_violation error, got %v", err)
	}
}

func TestNewServer_FallsBackToLocalService(t *testing.T) {
	s := newTestServer(t, loader.MapEnviron{})

	if s.registry.Version() != "local" {
		t.Errorf("expected fallback registry, got version %q", s.registry.Version())
	}
	if _, err := s.registry.ResolveContract(registry.APIDiscoveryCatalogV1); err != nil {
		t.Errorf("fallback registry should serve the gateway contract set: %v", err)
	}
}

func TestServer_StartStop(t *testing.T) {
	env := loader.MapEnviron{
		loader.EnvRegistryJSON: registryJSONFor("http://127.0.0.1:8787", registry.GatewayAPIContracts, false),
	}
	s := newTestServer(t, env)

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
