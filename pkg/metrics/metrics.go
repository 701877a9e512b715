package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveRooms tracks rooms with at least one member.
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "designforge_active_rooms",
		Help: "Rooms currently holding at least one member.",
	})

	// ActiveSessions tracks registered live connections.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "designforge_active_sessions",
		Help: "Connected collaboration sessions.",
	})

	// WSMessages counts inbound websocket messages by type.
	WSMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "designforge_ws_messages_total",
		Help: "Inbound websocket messages by message type.",
	}, []string{"type"})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
