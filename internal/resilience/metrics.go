package resilience

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Mani87-nq/yardbooks-pos/internal/obs"
)

var (
	breakerOnce sync.Once

	// BreakerState reports the current state per target: 0 closed, 1 open,
	// 2 half-open.
	BreakerState *prometheus.GaugeVec
	// BreakerTransitions counts breaker state transitions per target.
	BreakerTransitions *prometheus.CounterVec
	// BreakerOpenedTotal counts transitions into the open state per target.
	BreakerOpenedTotal *prometheus.CounterVec
)

// MustRegisterBreakerMetrics initialises and registers the breaker collectors
// under the given namespace. Safe to call more than once; until it is called
// the breaker runs without telemetry.
func MustRegisterBreakerMetrics(namespace string, reg prometheus.Registerer) {
	breakerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed, 1=open, 2=half-open.",
		}, []string{"target"})
		BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transition_total",
			Help:      "Count of breaker state transitions.",
		}, []string{"target", "from", "to"})
		BreakerOpenedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_open_total",
			Help:      "Number of times a breaker transitioned into the open state.",
		}, []string{"target"})

		obs.MustRegisterCollector(reg, BreakerState, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.GaugeVec); ok {
				BreakerState = v
			}
		})
		obs.MustRegisterCollector(reg, BreakerTransitions, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BreakerTransitions = v
			}
		})
		obs.MustRegisterCollector(reg, BreakerOpenedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BreakerOpenedTotal = v
			}
		})
	})
}
