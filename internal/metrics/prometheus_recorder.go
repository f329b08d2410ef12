package metrics

import (
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once                sync.Once
	events              *prom.CounterVec
	evolutions          *prom.CounterVec
	resets              prom.Counter
	persistenceFailures *prom.CounterVec
	restartFailures     prom.Counter
	experience          prom.Gauge
	ageDays             prom.Gauge
}

// NewPrometheusRecorder constructs and registers the pet metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.events = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "digivice",
			Name:      "events_total",
			Help:      "Network events recorded by kind",
		}, []string{"kind"})
		pr.evolutions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "digivice",
			Name:      "evolutions_total",
			Help:      "Evolutions by source and target form",
		}, []string{"from", "to"})
		pr.resets = prom.NewCounter(prom.CounterOpts{
			Namespace: "digivice",
			Name:      "lifecycle_resets_total",
			Help:      "Lifecycle resets triggered by reaching the maximum lifespan",
		})
		pr.persistenceFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "digivice",
			Name:      "persistence_failures_total",
			Help:      "Snapshot or history write failures by operation",
		}, []string{"op"})
		pr.restartFailures = prom.NewCounter(prom.CounterOpts{
			Namespace: "digivice",
			Name:      "restart_failures_total",
			Help:      "Failed restart attempts",
		})
		pr.experience = prom.NewGauge(prom.GaugeOpts{
			Namespace: "digivice",
			Name:      "experience",
			Help:      "Accumulated experience of the current lifecycle",
		})
		pr.ageDays = prom.NewGauge(prom.GaugeOpts{
			Namespace: "digivice",
			Name:      "age_days",
			Help:      "Age of the current lifecycle in whole days",
		})
		reg.MustRegister(pr.events, pr.evolutions, pr.resets, pr.persistenceFailures,
			pr.restartFailures, pr.experience, pr.ageDays)
	})
	return pr
}

func (p *PrometheusRecorder) IncEvent(kind string) {
	if p == nil || p.events == nil {
		return
	}
	p.events.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncEvolution(from, to string) {
	if p == nil || p.evolutions == nil {
		return
	}
	p.evolutions.WithLabelValues(from, to).Inc()
}

func (p *PrometheusRecorder) IncLifecycleReset() {
	if p == nil || p.resets == nil {
		return
	}
	p.resets.Inc()
}

func (p *PrometheusRecorder) IncPersistenceFailure(op string) {
	if p == nil || p.persistenceFailures == nil {
		return
	}
	p.persistenceFailures.WithLabelValues(op).Inc()
}

func (p *PrometheusRecorder) IncRestartFailure() {
	if p == nil || p.restartFailures == nil {
		return
	}
	p.restartFailures.Inc()
}

func (p *PrometheusRecorder) SetExperience(xp float64) {
	if p == nil || p.experience == nil {
		return
	}
	p.experience.Set(xp)
}

func (p *PrometheusRecorder) SetAgeDays(days int) {
	if p == nil || p.ageDays == nil {
		return
	}
	p.ageDays.Set(float64(days))
}
