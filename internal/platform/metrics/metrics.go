// Package metrics holds the Prometheus instruments of the pipeline. All
// collectors are registered with the global registry and served by Handler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SubscriptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_subscriptions_total",
			Help: "Subscribe calls by outcome (created, existing, error).",
		}, []string{"outcome"})

	UnsubscriptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_unsubscriptions_total",
			Help: "Unsubscribe calls by outcome (deleted, not_found, error).",
		}, []string{"outcome"})

	CampaignEmailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_campaign_emails_total",
			Help: "Campaign deliveries by result (sent, failed, skipped).",
		}, []string{"result"})

	LocatorLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_locator_lookups_total",
			Help: "Geolocation lookups by result (ok, degraded).",
		}, []string{"result"})

	WelcomeEmailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_welcome_emails_total",
			Help: "Welcome emails by result (sent, failed).",
		}, []string{"result"})

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(
		SubscriptionsTotal,
		UnsubscriptionsTotal,
		CampaignEmailsTotal,
		LocatorLookupsTotal,
		WelcomeEmailsTotal,
		HTTPRequestDuration,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request latency labelled with the matched chi route so
// cardinality stays bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
