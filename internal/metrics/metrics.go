package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestDuration tracks request duration in seconds
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal tracks total number of requests
	requestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// WSConnections is the number of live websocket connections on this instance.
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections",
		Help: "Number of live websocket connections",
	})

	// PushDelivered counts payloads enqueued to a live connection.
	PushDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "push_delivered_total",
		Help: "Push payloads handed to a live connection",
	})

	// PushDropped counts payloads dropped because a connection buffer was full.
	PushDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "push_dropped_total",
		Help: "Push payloads dropped on a full connection buffer",
	})

	// FanoutNotifications counts persisted notifications per kind.
	FanoutNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_notifications_total",
			Help: "Notifications created by the fan-out engine",
		},
		[]string{"kind"},
	)

	// FanoutFailures counts aborted fan-outs per stage (audience, persist, publish).
	FanoutFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_failures_total",
			Help: "Fan-out failures by stage",
		},
		[]string{"stage"},
	)
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware collects request count and duration. The mux route template is
// used as the path label so IDs do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		status := strconv.Itoa(rec.status)
		requestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
