// Package metrics collects and exposes Prometheus metrics for the
// WarningWeb server: per-route HTTP traffic plus a handful of domain
// counters (sign-ins, lockouts, orders).
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers Prometheus metrics. Services receive the *Collector
// directly; a nil Collector is safe to call and records nothing, so tests
// and tools can skip metrics wiring entirely.
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	loginSuccess  prometheus.Counter
	loginFailure  prometheus.Counter
	loginLockout  prometheus.Counter
	signups       prometheus.Counter
	ordersCreated prometheus.Counter
	ordersPaid    prometheus.Counter
	ordersExpired prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with the
// given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warningweb_http_requests_total",
			Help: "HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "warningweb_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warningweb_login_success_total",
			Help: "Successful sign-ins.",
		}),
		loginFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warningweb_login_failure_total",
			Help: "Failed sign-in attempts.",
		}),
		loginLockout: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warningweb_login_lockout_total",
			Help: "Sign-in attempts rejected by the per-email lockout.",
		}),
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warningweb_signups_total",
			Help: "New accounts created.",
		}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warningweb_orders_created_total",
			Help: "Checkout orders created.",
		}),
		ordersPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warningweb_orders_paid_total",
			Help: "Checkout orders confirmed as paid.",
		}),
		ordersExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warningweb_orders_expired_total",
			Help: "Checkout orders that expired unpaid.",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.loginSuccess,
		c.loginFailure,
		c.loginLockout,
		c.signups,
		c.ordersCreated,
		c.ordersPaid,
		c.ordersExpired,
	)

	return c
}

// Middleware returns Echo middleware that records request counts and
// latency per route. The route template (e.g. /api/cart/:id) is used
// rather than the raw path to keep label cardinality bounded.
func (c *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			if c == nil {
				return next(ec)
			}

			start := time.Now()
			err := next(ec)

			route := ec.Path()
			if route == "" {
				route = "unmatched"
			}
			method := ec.Request().Method
			status := strconv.Itoa(ec.Response().Status)

			c.httpRequests.WithLabelValues(method, route, status).Inc()
			c.httpLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// RecordLoginSuccess counts a successful sign-in.
func (c *Collector) RecordLoginSuccess() {
	if c != nil {
		c.loginSuccess.Inc()
	}
}

// RecordLoginFailure counts a failed sign-in attempt.
func (c *Collector) RecordLoginFailure() {
	if c != nil {
		c.loginFailure.Inc()
	}
}

// RecordLoginLockout counts an attempt rejected by the per-email lockout.
func (c *Collector) RecordLoginLockout() {
	if c != nil {
		c.loginLockout.Inc()
	}
}

// RecordSignup counts a new account.
func (c *Collector) RecordSignup() {
	if c != nil {
		c.signups.Inc()
	}
}

// RecordOrderCreated counts a new checkout order.
func (c *Collector) RecordOrderCreated() {
	if c != nil {
		c.ordersCreated.Inc()
	}
}

// RecordOrderPaid counts a confirmed payment.
func (c *Collector) RecordOrderPaid() {
	if c != nil {
		c.ordersPaid.Inc()
	}
}

// RecordOrderExpired counts an order that expired unpaid.
func (c *Collector) RecordOrderExpired() {
	if c != nil {
		c.ordersExpired.Inc()
	}
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
