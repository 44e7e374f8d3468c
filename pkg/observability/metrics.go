package observability

import (
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "homeward"

// Metrics holds the collectors fed by the return-to-launch lifecycle hooks.
type Metrics struct {
	PhaseEntries   *prometheus.CounterVec
	CurrentPhase   *prometheus.GaugeVec
	Advisories     *prometheus.CounterVec
	TargetChanges  prometheus.Counter
	TargetAltitude prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PhaseEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rtl_phase_entries_total",
				Help:      "Total number of return-to-launch phase entries",
			},
			[]string{"phase"},
		),
		CurrentPhase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rtl_phase",
				Help:      "1 for the current return-to-launch phase, 0 otherwise",
			},
			[]string{"phase"},
		),
		Advisories: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "advisories_total",
				Help:      "Total number of operator advisories by severity",
			},
			[]string{"severity"},
		),
		TargetChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rtl_target_changes_total",
			Help:      "Total number of setpoints produced by the controller",
		}),
		TargetAltitude: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rtl_target_altitude_meters",
			Help:      "Absolute altitude of the current target",
		}),
	}
	for _, p := range domain.Phases {
		m.CurrentPhase.WithLabelValues(p.String()).Set(0)
	}
	m.CurrentPhase.WithLabelValues(domain.PhaseNone.String()).Set(1)

	if reg != nil {
		reg.MustRegister(m.PhaseEntries, m.CurrentPhase, m.Advisories, m.TargetChanges, m.TargetAltitude)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseEnter: func(e *domain.PhaseEvent) {
			m.PhaseEntries.WithLabelValues(e.Phase.String()).Inc()
			m.CurrentPhase.WithLabelValues(e.From.String()).Set(0)
			m.CurrentPhase.WithLabelValues(e.Phase.String()).Set(1)
		},
		OnTargetChanged: func(e *domain.TargetEvent) {
			m.TargetChanges.Inc()
			m.TargetAltitude.Set(e.Item.Altitude)
		},
		OnAdvisory: func(e *domain.AdvisoryEvent) {
			m.Advisories.WithLabelValues(string(e.Advisory.Severity)).Inc()
		},
	}
}
