package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ecoquest/ecoquest-api/internal/domain"
)

const namespace = "ecoquest"

// Metrics holds the Prometheus collectors for the API.
type Metrics struct {
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	Submissions      prometheus.Counter
	PointsAwarded    prometheus.Counter
	BadgesAwarded    *prometheus.CounterVec
}

// NewMetrics registers every collector on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
		Submissions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "accrual",
				Name:      "submissions_total",
				Help:      "Accepted challenge submissions",
			},
		),
		PointsAwarded: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "accrual",
				Name:      "points_total",
				Help:      "Points granted by accepted submissions",
			},
		),
		BadgesAwarded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "accrual",
				Name:      "badges_awarded_total",
				Help:      "Badges awarded, by badge name",
			},
			[]string{"badge"},
		),
	}
}

// GinMiddleware records request count, latency and in-flight requests.
// Routes are labelled with their pattern, not the raw path.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.WithLabelValues(ctx.Request.Method, route).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
	}
}

func (m *Metrics) SubmissionAccepted(_ context.Context, result domain.SubmissionResult) {
	m.Submissions.Inc()
	m.PointsAwarded.Add(float64(result.Reward))
	for _, b := range result.Badges {
		m.BadgesAwarded.WithLabelValues(b.Name).Inc()
	}
}
