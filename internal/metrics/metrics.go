package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values
const (
	OutcomeOK      = "ok"
	OutcomeWarning = "warning"
	OutcomeError   = "error"
	OutcomeInfo    = "info"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mviewer_commands_total",
		Help: "Number of session commands processed.",
	}, []string{"command", "outcome"})
	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mviewer_command_duration_seconds",
		Help:    "Time taken to process a session command, including Montage calls.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
	}, []string{"command"})
	collaboratorCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mviewer_collaborator_calls_total",
		Help: "Number of Montage tool invocations.",
	}, []string{"tool", "outcome"})
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mviewer_active_sessions",
		Help: "Number of open viewer sessions.",
	})
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "mviewer_http_response_time_seconds",
		Help: "Duration of HTTP requests.",
	}, []string{"path"})
)

func ObserveCommand(command, outcome string, elapsed time.Duration) {
	commandsTotal.WithLabelValues(command, outcome).Inc()
	commandDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}

func ObserveCollaborator(tool, outcome string) {
	collaboratorCalls.WithLabelValues(tool, outcome).Inc()
}

func SessionOpened() { activeSessions.Inc() }
func SessionClosed() { activeSessions.Dec() }

// Middleware records request latency by route template when one is known
func Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			path := r.URL.Path
			if route != nil {
				if tpl := route(r); tpl != "" {
					path = tpl
				}
			}
			httpDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
		})
	}
}
