// Package bodylimit enforces this hop's publish-ingress body-size limit.
// Requests targeting the publish api contract with a body larger than the
// configured limit are rejected with 413; every rejection increments the
// policy's mandated counter and emits a structured log restricted to the
// policy's rejection_log_fields.
package bodylimit

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"meshgateway/internal/core"
	"meshgateway/internal/registry"
	"meshgateway/pkg/metrics"
	"meshgateway/pkg/requestid"
)

// Middleware rejects oversized publish payloads for one hop
type Middleware struct {
	hopName   string
	limit     int64
	policy    *registry.PolicyDocument
	logFields map[string]struct{}
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates the body-limit middleware. The limit must already have passed
// the startup gate; this layer only enforces it.
func New(pol *registry.PolicyDocument, hopName string, limit int64, m *metrics.Metrics, logger *slog.Logger) *Middleware {
	mw := &Middleware{
		hopName: hopName,
		limit:   limit,
		policy:  pol,
		metrics: m,
		logger:  logger,
	}
	if pol != nil {
		mw.logFields = make(map[string]struct{}, len(pol.Observability.RejectionLogFields))
		for _, field := range pol.Observability.RejectionLogFields {
			mw.logFields[field] = struct{}{}
		}
	}
	return mw
}

// Wrap applies the limit to publish-contract requests
func (mw *Middleware) Wrap(next http.Handler) http.Handler {
	if mw.policy == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(core.HeaderAPIContract) != mw.policy.PublishAPIContract {
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength > mw.limit {
			mw.Reject(w, r)
			return
		}

		// Chunked uploads carry no Content-Length; cap the body instead.
		// The cap surfaces as *http.MaxBytesError on the read path, and
		// whoever reads the body routes it back through Reject.
		r.Body = http.MaxBytesReader(w, r.Body, mw.limit)
		next.ServeHTTP(w, r)
	})
}

// IsOversized reports whether err is the body cap tripping, so downstream
// readers can distinguish an oversized payload from a transport failure
func IsOversized(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

// Reject refuses the request with 413 and emits the rejection counter and
// log mandated by the publish ingress policy. It is called for oversized
// declared Content-Lengths before dispatch, and by the body-reading layer
// when the cap trips on a chunked upload. For chunked uploads the reported
// requestContentLength is -1, the declared (unknown) length.
func (mw *Middleware) Reject(w http.ResponseWriter, r *http.Request) {
	if mw.policy == nil {
		http.Error(w, "request body exceeds the publish ingress limit", http.StatusRequestEntityTooLarge)
		return
	}

	requestID := r.Header.Get(core.HeaderRequestID)
	if requestID == "" {
		requestID = requestid.New()
	}
	contentLength := strconv.FormatInt(r.ContentLength, 10)
	configured := strconv.FormatInt(mw.limit, 10)
	required := strconv.FormatInt(mw.policy.DefaultMaxBodyBytes, 10)

	mw.metrics.PayloadRejected.WithLabelValues(
		mw.hopName, configured, required, contentLength, requestID,
		mw.policy.PublishAPIContract,
	).Inc()

	attrs := []any{}
	for field, value := range map[string]string{
		metrics.LabelPublishIngressHop:      mw.hopName,
		metrics.LabelConfiguredMaxBodyBytes: configured,
		metrics.LabelRequiredPolicyBytes:    required,
		metrics.LabelRequestContentLength:   contentLength,
		metrics.LabelRequestID:              requestID,
		metrics.LabelAPIContract:            mw.policy.PublishAPIContract,
	} {
		if _, ok := mw.logFields[field]; ok {
			attrs = append(attrs, field, value)
		}
	}
	mw.logger.Warn("publish payload rejected", attrs...)

	http.Error(w, "request body exceeds the publish ingress limit", http.StatusRequestEntityTooLarge)
}
