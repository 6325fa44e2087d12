package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label dimensions mandated by the publish ingress policy for the payload
// rejection counter.
const (
	LabelPublishIngressHop      = "publishIngressHop"
	LabelConfiguredMaxBodyBytes = "configuredMaxBodyBytes"
	LabelRequiredPolicyBytes    = "requiredPolicyBytes"
	LabelRequestContentLength   = "requestContentLength"
	LabelRequestID              = "requestId"
	LabelAPIContract            = "apiContract"
)

// Metrics holds all Prometheus metrics for the mesh gateway
type Metrics struct {
	// PayloadRejected counts publish payloads rejected by this hop for
	// exceeding its configured body-size limit. Name and dimensions are
	// mandated by the publish ingress policy contract.
	PayloadRejected *prometheus.CounterVec

	// Proxy metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates a Metrics instance registered on the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a Metrics instance on a custom registry
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		PayloadRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worldbuilder_publish_ingress_payload_rejected_total",
				Help: "Publish payloads rejected by this hop for exceeding its configured body-size limit",
			},
			[]string{
				LabelPublishIngressHop,
				LabelConfiguredMaxBodyBytes,
				LabelRequiredPolicyBytes,
				LabelRequestContentLength,
				LabelRequestID,
				LabelAPIContract,
			},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worldbuilder_gateway_requests_total",
				Help: "Total requests proxied by the mesh gateway",
			},
			[]string{"apiContract", "service", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "worldbuilder_gateway_request_duration_seconds",
				Help:    "Proxied request latencies in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"apiContract", "service"},
		),
	}
}
