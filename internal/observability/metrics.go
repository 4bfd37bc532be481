package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pmsense",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pmsense",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
	decodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pmsense",
			Subsystem: "decoder",
			Name:      "decodes_total",
			Help:      "Decode attempts by result.",
		},
		[]string{"result"},
	)
	decodeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pmsense",
			Subsystem: "decoder",
			Name:      "decode_duration_seconds",
			Help:      "Time from marker scan start to parsed measurement.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
	)
	sinkErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pmsense",
			Subsystem: "sink",
			Name:      "errors_total",
			Help:      "Failed sink writes.",
		},
		[]string{"sink"},
	)
	pointValues = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pmsense",
			Name:      "reading",
			Help:      "Latest sensor reading; ug/m3 for pm groups, particles per 0.1L for counts.",
		},
		[]string{"group", "field"},
	)
	lastReading = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pmsense",
			Name:      "last_reading_timestamp_seconds",
			Help:      "Unix time of the latest successful reading.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			decodeTotal, decodeDuration,
			sinkErrors, pointValues, lastReading,
		)
	})
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordDecode counts one decode attempt; result is "ok" or an error kind.
func RecordDecode(result string, duration time.Duration) {
	RegisterMetrics()
	decodeTotal.WithLabelValues(result).Inc()
	if result == "ok" {
		decodeDuration.Observe(duration.Seconds())
	}
}

func RecordSinkError(sink string) {
	RegisterMetrics()
	sinkErrors.WithLabelValues(sink).Inc()
}

// SetReading publishes one time-series point as a gauge.
func SetReading(group, field string, value float64, at time.Time) {
	RegisterMetrics()
	pointValues.WithLabelValues(group, field).Set(value)
	lastReading.Set(float64(at.UnixNano()) / 1e9)
}
