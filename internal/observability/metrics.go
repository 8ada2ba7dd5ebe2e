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
			Namespace: "ducklive",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ducklive",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "route", "status"},
	)
	streamActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ducklive",
			Subsystem: "stream",
			Name:      "active",
			Help:      "Streams currently pushing frames.",
		},
	)
	streamFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ducklive",
			Subsystem: "stream",
			Name:      "frames_total",
			Help:      "Frames written to clients.",
		},
		[]string{"flip"},
	)
	streamRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ducklive",
			Subsystem: "stream",
			Name:      "rejected_total",
			Help:      "Streaming requests answered without frames.",
		},
		[]string{"reason"},
	)
	framesLoaded = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ducklive",
			Subsystem: "frames",
			Name:      "loaded",
			Help:      "Frames held in memory per playback variant.",
		},
		[]string{"variant"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, streamActive, streamFrames, streamRejected, framesLoaded)
	})
}

func RecordHTTPRequest(node, method, route string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, route, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, route, statusLabel).Observe(duration.Seconds())
}

// StreamOpened and StreamClosed bracket one streaming session.
func StreamOpened() {
	RegisterMetrics()
	streamActive.Inc()
}

func StreamClosed() {
	RegisterMetrics()
	streamActive.Dec()
}

func RecordFrameWritten(flip bool) {
	RegisterMetrics()
	streamFrames.WithLabelValues(strconv.FormatBool(flip)).Inc()
}

func RecordStreamRejected(reason string) {
	RegisterMetrics()
	streamRejected.WithLabelValues(reason).Inc()
}

func RecordFramesLoaded(original, flipped int) {
	RegisterMetrics()
	framesLoaded.WithLabelValues("original").Set(float64(original))
	framesLoaded.WithLabelValues("flipped").Set(float64(flipped))
}
