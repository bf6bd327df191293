// Package metrics holds the Prometheus collectors of the relay.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "whiteboard"

var (
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_connections",
		Help:      "Current number of open websocket connections",
	})

	eventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_received_total",
		Help:      "Inbound websocket events by event name and outcome",
	}, []string{"event", "outcome"})

	rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "request_rejections_total",
		Help:      "Create and join requests rejected with a client-visible error",
	}, []string{"event", "reason"})

	droppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_frames_total",
		Help:      "Outbound frames dropped because a connection's send buffer was full",
	})

	evictedRooms = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evicted_rooms_total",
		Help:      "Idle rooms removed by the janitor",
	})

	liveState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_state",
		Help:      "Number of live rooms, private rooms and sessions at the last janitor run",
	}, []string{"kind"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "path", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func ConnectionOpened() { activeConnections.Inc() }
func ConnectionClosed() { activeConnections.Dec() }

// EventReceived counts one inbound event. outcome is "ok", "ignored" or "error".
func EventReceived(event, outcome string) {
	eventsReceived.WithLabelValues(event, outcome).Inc()
}

func RequestRejected(event, reason string) {
	rejections.WithLabelValues(event, reason).Inc()
}

func FrameDropped() { droppedFrames.Inc() }

func RoomsEvicted(n int) { evictedRooms.Add(float64(n)) }

// SetLiveState publishes point-in-time counts of live state.
func SetLiveState(rooms, privateRooms, sessions int) {
	liveState.WithLabelValues("rooms").Set(float64(rooms))
	liveState.WithLabelValues("private_rooms").Set(float64(privateRooms))
	liveState.WithLabelValues("sessions").Set(float64(sessions))
}

// ObserveHTTPRequest records one served request. path should be the route template, not the raw URL.
func ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	httpRequests.With(labels).Inc()
	httpLatency.With(labels).Observe(elapsed.Seconds())
}

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
