package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	ReportComputations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_report_computations_total",
			Help: "Report computations by outcome (ok, invalid, unavailable, superseded)",
		},
		[]string{"outcome"},
	)

	ReportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analytics_report_duration_seconds",
			Help:    "Snapshot fetch plus computation time",
			Buckets: prometheus.DefBuckets,
		},
	)

	OrderFeedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderfeed_events_total",
			Help: "Order change events consumed, by result",
		},
		[]string{"result"},
	)

	PhoneBlocksExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "phone_blocks_expired_total",
			Help: "Phone blocks moved from active to expired",
		},
	)
)

var once sync.Once

// Init registers all collectors with the default registry. Safe to call
// more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal, HTTPRequestDuration,
			ReportComputations, ReportDuration,
			OrderFeedEvents, PhoneBlocksExpired,
		)
	})
}

// Middleware records request counts and latencies by route template.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		path := c.Route().Path
		if path == "" {
			path = "undefined"
		}

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
		return err
	}
}

// Handler serves the Prometheus exposition format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
