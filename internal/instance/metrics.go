package instance

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the counters a Reader maintains. Each Reader owns its own set;
// register them with Collectors.
type Metrics struct {
	PlanBuilds       *prometheus.CounterVec
	PlanLookups      *prometheus.CounterVec
	Seeks            *prometheus.CounterVec
	Materializations prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		PlanBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecreader",
			Subsystem: "plan_cache",
			Name:      "builds",
		}, []string{"result"}),
		PlanLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecreader",
			Subsystem: "plan_cache",
			Name:      "lookups",
		}, []string{"result"}),
		Seeks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecreader",
			Subsystem: "reader",
			Name:      "seeks",
		}, []string{"result"}),
		Materializations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ecreader",
			Subsystem: "reader",
			Name:      "materializations",
		}),
	}
}

// Collectors returns every collector for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.PlanBuilds, m.PlanLookups, m.Seeks, m.Materializations}
}
