package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // collectors register once per process
var (
	requestDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "cvtailor_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.99: 0.001,
			},
		},
		[]string{"method", "path", "status_code"},
	)

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvtailor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
)

// metrics records duration and count per route and status.
func metrics() (handler gin.HandlerFunc) {
	handler = func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		labels := []string{ctx.Request.Method, path, strconv.Itoa(ctx.Writer.Status())}

		requestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(labels...).Inc()
	}
	return handler
}
