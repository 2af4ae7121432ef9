// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	ActiveSessions   prometheus.Gauge
	BallotsReceived  prometheus.Counter
	GamesCompleted   prometheus.Counter
	PhaseDuration    prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of games in progress",
		}),
		BallotsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ballots_received_total",
			Help:      "Total number of accepted ballot submissions",
		}),
		GamesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_completed_total",
			Help:      "Total number of games that reached a verdict",
		}),
		PhaseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Time spent in each game phase",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}

	prometheus.MustRegister(
		m.ActiveSessions,
		m.BallotsReceived,
		m.GamesCompleted,
		m.PhaseDuration,
	)

	return m
}

type Monitor struct {
	metrics     *Metrics
	startTime   time.Time
	ballotCount int64
	mutex       sync.Mutex
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())

	// 添加expvar指标
	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("ballots", expvar.Func(func() interface{} {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.ballotCount
	}))

	go http.ListenAndServe(addr, nil)
}

func (m *Monitor) IncActiveSessions() {
	m.metrics.ActiveSessions.Inc()
}

func (m *Monitor) DecActiveSessions() {
	m.metrics.ActiveSessions.Dec()
}

func (m *Monitor) IncBallotsReceived() {
	m.metrics.BallotsReceived.Inc()
	m.mutex.Lock()
	m.ballotCount++
	m.mutex.Unlock()
}

func (m *Monitor) IncGamesCompleted() {
	m.metrics.GamesCompleted.Inc()
}

func (m *Monitor) ObservePhaseDuration(d time.Duration) {
	m.metrics.PhaseDuration.Observe(d.Seconds())
}
