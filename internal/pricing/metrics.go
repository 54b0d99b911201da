package pricing

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments a Service. A nil *Metrics records nothing.
type Metrics struct {
	solves      prometheus.Counter
	evaluations prometheus.Counter
	doublings   prometheus.Counter
	duration    prometheus.Histogram
	builds      *prometheus.CounterVec
}

// NewMetrics creates the pricing metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		solves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "valact_solves_total",
			Help: "Premium solves completed",
		}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "valact_projection_evaluations_total",
			Help: "Account value projections run by the solver",
		}),
		doublings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "valact_bracket_doublings_total",
			Help: "Upper-bound doublings during premium bracketing",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "valact_solve_duration_seconds",
			Help:    "Time to build rates and solve one case",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "valact_rate_table_builds_total",
			Help: "Rate table builds by result",
		}, []string{"result"}),
	}
	reg.MustRegister(m.solves, m.evaluations, m.doublings, m.duration, m.builds)
	return m
}

func (m *Metrics) observeBuild(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.builds.WithLabelValues(result).Inc()
}

func (m *Metrics) observeSolve(q Quote) {
	if m == nil {
		return
	}
	m.solves.Inc()
	m.evaluations.Add(float64(q.Evaluations))
	m.doublings.Add(float64(q.Doublings))
	m.duration.Observe(q.Elapsed.Seconds())
}
