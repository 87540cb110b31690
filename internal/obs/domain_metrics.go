package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutTotal counts checkout submissions by tender method and outcome.
	CheckoutTotal *prometheus.CounterVec
	// HoldTotal counts carts parked as held orders.
	HoldTotal prometheus.Counter
	// VoidTotal counts carts discarded before submission.
	VoidTotal prometheus.Counter
	// ReceiptTaskTotal counts background receipt task outcomes by kind.
	ReceiptTaskTotal *prometheus.CounterVec
	// BackendCallTotal counts business-backend calls by operation and outcome.
	BackendCallTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers the terminal's domain
// collectors. Safe to call more than once.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout submissions by tender method and outcome.",
		}, []string{"method", "result"})
		HoldTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hold_total",
			Help:      "Number of carts parked as held orders.",
		})
		VoidTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "void_total",
			Help:      "Number of carts voided before submission.",
		})
		ReceiptTaskTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_task_total",
			Help:      "Count of processed receipt tasks by kind and outcome.",
		}, []string{"kind", "result"})
		BackendCallTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_call_total",
			Help:      "Count of business-backend calls by operation and outcome.",
		}, []string{"op", "result"})

		MustRegisterCollector(reg, CheckoutTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutTotal = v
			}
		})
		MustRegisterCollector(reg, HoldTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				HoldTotal = v
			}
		})
		MustRegisterCollector(reg, VoidTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				VoidTotal = v
			}
		})
		MustRegisterCollector(reg, ReceiptTaskTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReceiptTaskTotal = v
			}
		})
		MustRegisterCollector(reg, BackendCallTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BackendCallTotal = v
			}
		})
	})
}
