package app

import (
	"net/http"
	"net/http/httputil"
	"strconv"
	"time"

	"meshgateway/internal/core"
	"meshgateway/internal/middleware/bodylimit"
	"meshgateway/pkg/errors"
)

// proxyHandler forwards each request to the backend serving its api contract.
// Routing is a synchronous lookup against the immutable registry; there is no
// per-request discovery.
func (s *Server) proxyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contract := r.Header.Get(core.HeaderAPIContract)
		if contract == "" {
			http.Error(w, "missing "+core.HeaderAPIContract+" header", http.StatusBadRequest)
			return
		}

		target, err := s.registry.ResolveContract(contract)
		if err != nil {
			if errors.IsType(err, errors.ErrorTypeUnknownContract) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		targetURL := s.targets[target.ServiceName]
		proxy := &httputil.ReverseProxy{
			Rewrite: func(pr *httputil.ProxyRequest) {
				pr.SetURL(targetURL)
				pr.SetXForwarded()
			},
			ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
				// A chunked publish over the limit trips the body cap while
				// the proxy copies the request; that is a policy rejection,
				// not a backend failure.
				if bodylimit.IsOversized(err) {
					s.limiter.Reject(w, r)
					return
				}
				s.logger.Error("backend request failed",
					"service", target.ServiceName,
					"apiContract", target.APIContract,
					"error", err)
				w.WriteHeader(http.StatusBadGateway)
			},
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		proxy.ServeHTTP(rec, r)

		s.metrics.RequestsTotal.WithLabelValues(
			target.APIContract, target.ServiceName, strconv.Itoa(rec.status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(
			target.APIContract, target.ServiceName).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach Flush and Hijack on the
// underlying writer, which streaming backend responses rely on
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
