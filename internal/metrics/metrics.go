// Package metrics exports game and transport counters in Prometheus format.
package metrics

import (
	"flagsmash/internal/events"
	"flagsmash/internal/gamedata"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flagsmash"

// Collector gathers game metrics. It is an engine.Observer.
type Collector struct {
	registry *prometheus.Registry

	gamesStarted   prometheus.Counter
	gamesOver      prometheus.Counter
	gamesActive    prometheus.Gauge
	gamesAbandoned prometheus.Counter
	finalScore     prometheus.Histogram
	targets        *prometheus.CounterVec
	reaction       prometheus.Histogram
	wsConnections  prometheus.Gauge
	journalDrops   prometheus.Counter
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		gamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Games that left the idle phase.",
		}),
		gamesOver: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_over_total",
			Help:      "Games that reached the miss limit.",
		}),
		gamesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "games_active",
			Help:      "Games in countdown or play.",
		}),
		gamesAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_abandoned_total",
			Help:      "Games closed before game over.",
		}),
		finalScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "final_score",
			Help:      "Score at game over.",
			Buckets:   []float64{0, 5, 10, 25, 50, 75, 100, 150},
		}),
		targets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "targets_resolved_total",
			Help:      "Targets resolved, by result.",
		}, []string{"result"}),
		reaction: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reaction_seconds",
			Help:      "Time from spawn to hit.",
			Buckets:   prometheus.LinearBuckets(0.2, 0.2, 10),
		}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections_active",
			Help:      "Open WebSocket connections.",
		}),
		journalDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_dropped_total",
			Help:      "Journal records dropped because the buffer was full.",
		}),
	}
	c.registry.MustRegister(
		c.gamesStarted, c.gamesOver, c.gamesActive, c.gamesAbandoned, c.finalScore,
		c.targets, c.reaction, c.wsConnections, c.journalDrops,
		collectors.NewGoCollector(),
	)
	return c
}

func inGame(p gamedata.Phase) bool {
	return p == gamedata.PhaseCountdown || p == gamedata.PhasePlaying
}

func (c *Collector) PhaseChanged(_ string, from, to gamedata.Phase, snap gamedata.Snapshot) {
	if from == gamedata.PhaseIdle && inGame(to) {
		c.gamesStarted.Inc()
	}
	switch {
	case !inGame(from) && inGame(to):
		c.gamesActive.Inc()
	case inGame(from) && !inGame(to):
		c.gamesActive.Dec()
	}
	if to == gamedata.PhaseGameOver {
		c.gamesOver.Inc()
		c.finalScore.Observe(float64(snap.Score))
	}
}

// SessionClosed drops a game abandoned mid-play from the active gauge.
func (c *Collector) SessionClosed(_ string, snap gamedata.Snapshot) {
	if inGame(snap.Phase) {
		c.gamesActive.Dec()
		c.gamesAbandoned.Inc()
	}
}

func (c *Collector) TargetResolved(_ string, o events.Outcome) {
	if o.Hit {
		c.targets.WithLabelValues("hit").Inc()
		c.reaction.Observe(o.Reaction.Seconds())
		return
	}
	c.targets.WithLabelValues("miss").Inc()
}

// WSConnection records a connection opening (+1) or closing (-1).
func (c *Collector) WSConnection(delta int) {
	c.wsConnections.Add(float64(delta))
}

func (c *Collector) JournalDropped() {
	c.journalDrops.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
