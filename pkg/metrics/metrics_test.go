package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPayloadRejectedCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.PayloadRejected.With(prometheus.Labels{
		LabelPublishIngressHop:      "data-center",
		LabelConfiguredMaxBodyBytes: "67108864",
		LabelRequiredPolicyBytes:    "67108864",
		LabelRequestContentLength:   "99999999",
		LabelRequestID:              "req-1",
		LabelAPIContract:            "worldbuilder.discovery.publish.create.v1",
	}).Inc()

	if got := testutil.CollectAndCount(m.PayloadRejected); got != 1 {
		t.Errorf("expected 1 series, got %d", got)
	}

	expected := strings.NewReader(`
# HELP worldbuilder_publish_ingress_payload_rejected_total Publish payloads rejected by this hop for exceeding its configured body-size limit
# TYPE worldbuilder_publish_ingress_payload_rejected_total counter
worldbuilder_publish_ingress_payload_rejected_total{apiContract="worldbuilder.discovery.publish.create.v1",configuredMaxBodyBytes="67108864",publishIngressHop="data-center",requestContentLength="99999999",requestId="req-1",requiredPolicyBytes="67108864"} 1
`)
	if err := testutil.CollectAndCompare(m.PayloadRejected, expected); err != nil {
		t.Errorf("unexpected metric output: %v", err)
	}
}

func TestNewWithRegistry_RegistersAllMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.RequestsTotal.WithLabelValues("worldbuilder.discovery.catalog.v1", "backend-data-center", "200").Inc()
	m.RequestDuration.WithLabelValues("worldbuilder.discovery.catalog.v1", "backend-data-center").Observe(0.05)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) != 2 {
		t.Errorf("expected 2 metric families, got %d", len(families))
	}
}
