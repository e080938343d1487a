// Package metrics exposes Prometheus counters for relayed traffic and an
// echo middleware recording RED metrics per route.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Relay directions.
const (
	DirectionInbound  = "line_to_teams"
	DirectionOutbound = "teams_to_line"
)

// Relay results.
const (
	ResultRelayed    = "relayed"
	ResultUnroutable = "unroutable"
	ResultFailed     = "failed"
	ResultIgnored    = "ignored"
)

// Metrics groups every collector the bridge records into.
type Metrics struct {
	registry *prometheus.Registry

	httpDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	relayEvents  *prometheus.CounterVec
	dispatches   *prometheus.CounterVec
	tokenChecks  *prometheus.GaugeVec
}

// New creates a Metrics bound to a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers the bridge collectors into reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method", "status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"path", "method", "status"}),
		relayEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_relay_events_total",
			Help: "Relay attempts by direction and result.",
		}, []string{"direction", "result"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_dispatch_outcomes_total",
			Help: "Per-recipient push outcomes by channel pair.",
		}, []string{"pair", "success"}),
		tokenChecks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bridge_token_valid",
			Help: "1 when the last bot info call for a pair succeeded.",
		}, []string{"pair"}),
	}
	reg.MustRegister(m.httpDuration, m.httpRequests, m.relayEvents, m.dispatches, m.tokenChecks)
	return m
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RelayEvent counts one relay attempt. A nil receiver is a no-op.
func (m *Metrics) RelayEvent(direction, result string) {
	if m == nil {
		return
	}
	m.relayEvents.WithLabelValues(direction, result).Inc()
}

// DispatchOutcome counts one recipient push.
func (m *Metrics) DispatchOutcome(pairKey string, success bool) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(pairKey, strconv.FormatBool(success)).Inc()
}

// TokenValid records the latest token check for a pair.
func (m *Metrics) TokenValid(pairKey string, valid bool) {
	if m == nil {
		return
	}
	v := 0.0
	if valid {
		v = 1
	}
	m.tokenChecks.WithLabelValues(pairKey).Set(v)
}

// Middleware records duration and count per route pattern.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			code := strconv.Itoa(status)
			method := c.Request().Method
			m.httpDuration.WithLabelValues(path, method, code).Observe(time.Since(start).Seconds())
			m.httpRequests.WithLabelValues(path, method, code).Inc()
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
