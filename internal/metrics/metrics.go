// Package metrics exposes the Prometheus counters and gauges the
// dispatcher updates as it runs. All metrics are registered against a
// package-level registry; Handler serves it for scraping.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

var registry = prometheus.NewRegistry()

var (
	// DispatchSentTicks counts Action Tick Stream ticks the dispatcher has
	// broadcast to players, labeled by game id.
	DispatchSentTicks = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flo_dispatch_sent_ticks_total",
			Help: "Number of action ticks dispatched to players.",
		},
		[]string{"game_id"},
	)

	// DispatchBroadcastDrops counts broadcast sends dropped, labeled by
	// reason: "full" (send queue at capacity) or "closed" (sink torn down
	// by its owner before a PlayerDisconnect message arrived).
	DispatchBroadcastDrops = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flo_dispatch_broadcast_drops_total",
			Help: "Number of broadcast sends dropped due to backpressure.",
		},
		[]string{"game_id", "reason"},
	)

	// DispatchPlayerAckLag tracks, per player, how many ticks behind the
	// dispatcher's send count the player's observed ack count is.
	DispatchPlayerAckLag = promauto.With(registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flo_dispatch_player_ack_lag",
			Help: "Ticks sent minus ticks acked, per player.",
		},
		[]string{"game_id", "player_id"},
	)

	// LanProxySessions is a gauge of LAN proxy sessions by phase (lobby,
	// load, game). It is registered and exported, but no code in this
	// module sets it, so it always reads empty.
	LanProxySessions = promauto.With(registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flo_lan_proxy_sessions",
			Help: "Live LAN proxy sessions by phase.",
		},
		[]string{"phase"},
	)
)

// Handler returns an http.Handler serving the registry in the Prometheus
// exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
