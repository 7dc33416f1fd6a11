package control

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/dualarm/simcore/components/arm"
	"github.com/dualarm/simcore/motionplan"
)

const metricsNamespace = "simcore"

// Metrics counts what the control core does to the physics scene. A nil *Metrics records nothing.
type Metrics struct {
	Steps        *prometheus.CounterVec
	Renders      prometheus.Counter
	RenderErrors prometheus.Counter
	Waypoints    *prometheus.CounterVec
	Aborts       *prometheus.CounterVec
	PlanResults  *prometheus.CounterVec
}

// NewMetrics creates the control metrics and registers them with reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "physics_steps_total",
			Help:      "Physics steps issued, by the arm whose command caused them.",
		}, []string{"arm"}),
		Renders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "renders_total",
			Help:      "Render updates issued.",
		}),
		RenderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "render_errors_total",
			Help:      "Render updates that failed.",
		}),
		Waypoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "waypoints_applied_total",
			Help:      "Trajectory waypoints written to the drives.",
		}, []string{"arm"}),
		Aborts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "trajectory_aborts_total",
			Help:      "Trajectories abandoned before their last waypoint.",
		}, []string{"arm"}),
		PlanResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "plan_results_total",
			Help:      "Planning results, by arm and status.",
		}, []string{"arm", "status"}),
	}
	if reg == nil {
		return m, nil
	}
	var err error
	for _, c := range m.collectors() {
		err = multierr.Combine(err, reg.Register(c))
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Steps, m.Renders, m.RenderErrors, m.Waypoints, m.Aborts, m.PlanResults}
}

func (m *Metrics) step(tag arm.Tag) {
	if m == nil {
		return
	}
	m.Steps.WithLabelValues(tag.String()).Inc()
}

func (m *Metrics) render(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.RenderErrors.Inc()
		return
	}
	m.Renders.Inc()
}

func (m *Metrics) waypoint(tag arm.Tag) {
	if m == nil {
		return
	}
	m.Waypoints.WithLabelValues(tag.String()).Inc()
}

func (m *Metrics) abort(tag arm.Tag) {
	if m == nil {
		return
	}
	m.Aborts.WithLabelValues(tag.String()).Inc()
}

// ObservePlan counts a planning result.
func (m *Metrics) ObservePlan(tag arm.Tag, result motionplan.Result) {
	if m == nil {
		return
	}
	m.PlanResults.WithLabelValues(tag.String(), result.Status.String()).Inc()
}
