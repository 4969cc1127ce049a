package api

import (
	"strconv"
	"time"

	"github.com/edjs-platform/edjs/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry         *prometheus.Registry
	inFlight         prometheus.Gauge
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	redirectOutcomes *prometheus.CounterVec
	accessDecisions  *prometheus.CounterVec
}

// newMetrics builds a private registry so several handlers can coexist in
// one process (tests).
func newMetrics(version string) *metrics {
	registry := prometheus.NewRegistry()
	m := &metrics{
		registry: registry,
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "edjs_http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edjs_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edjs_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		redirectOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edjs_login_redirect_outcomes_total",
			Help: "Terminal states of the post-login redirect flow.",
		}, []string{"state", "dashboard"}),
		accessDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edjs_route_access_decisions_total",
			Help: "Route guard decisions for application pages.",
		}, []string{"decision"}),
	}

	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "edjs_build_info",
		Help: "EDJS platform build information.",
	}, []string{"version"})
	buildInfo.WithLabelValues(version).Set(1)

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		buildInfo,
		m.inFlight,
		m.requestsTotal,
		m.requestDuration,
		m.redirectOutcomes,
		m.accessDecisions,
	)
	return m
}

// MetricsMiddleware records every request under its route template so path
// parameters do not explode label cardinality.
func (handler *Handler) MetricsMiddleware(c *fiber.Ctx) error {
	handler.metrics.inFlight.Inc()
	defer handler.metrics.inFlight.Dec()

	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			status = fiberErr.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}

	route := c.Route().Path
	if route == "" || (route == "/" && c.Path() != "/") {
		route = "unmatched"
	}
	labels := []string{c.Method(), route, strconv.Itoa(status)}
	handler.metrics.requestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	handler.metrics.requestsTotal.WithLabelValues(labels...).Inc()
	return err
}

func (handler *Handler) Metrics() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(handler.metrics.registry, promhttp.HandlerOpts{}))
}

func (handler *Handler) observeRedirect(outcome services.RedirectOutcome) {
	handler.metrics.redirectOutcomes.WithLabelValues(string(outcome.State), string(outcome.Dashboard)).Inc()
}

func (handler *Handler) observeAccess(decision services.AccessDecision) {
	handler.metrics.accessDecisions.WithLabelValues(string(decision)).Inc()
}
