package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/deafauth/deafauth/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Auth flow metrics

	RegistrationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deafauth",
		Name:      "registrations_total",
		Help:      "Total registration attempts, by outcome.",
	}, []string{"outcome"})

	VerificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deafauth",
		Name:      "verifications_total",
		Help:      "Total verification-token claims, by outcome.",
	}, []string{"outcome"})

	LoginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deafauth",
		Name:      "logins_total",
		Help:      "Total login attempts, by outcome.",
	}, []string{"outcome"})

	// Token engine metrics

	TokenRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deafauth",
		Name:      "token_rejections_total",
		Help:      "Bearer tokens rejected by the authorization gate, by reason.",
	}, []string{"reason"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "deafauth",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deafauth",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		RegistrationsTotal,
		VerificationsTotal,
		LoginsTotal,
		TokenRejectionsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer serves /metrics plus the liveness/readiness endpoints on the
// internal metrics port.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(result)
}
