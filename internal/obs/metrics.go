package obs

import "github.com/prometheus/client_golang/prometheus"

// Domain collectors shared across handlers and workers. Nil until
// MustRegisterDomainMetrics runs, so library code guards each use.
var (
	// TotalsComputedTotal counts totals computations by document kind and result.
	TotalsComputedTotal *prometheus.CounterVec
	// DocumentsCreatedTotal counts persisted documents by kind.
	DocumentsCreatedTotal *prometheus.CounterVec
	// RecurringMaterializedTotal counts documents created by the recurring worker.
	RecurringMaterializedTotal prometheus.Counter
)

// MustRegisterDomainMetrics registers the domain collectors on the provided
// registerer (the default one when nil). Must be called once at startup.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	TotalsComputedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "totals_computed_total",
		Help:      "Total number of document totals computations.",
	}, []string{"kind", "result"})
	DocumentsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_created_total",
		Help:      "Total number of documents persisted.",
	}, []string{"kind"})
	RecurringMaterializedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recurring_materialized_total",
		Help:      "Total number of documents generated from recurring schedules.",
	})
	reg.MustRegister(TotalsComputedTotal, DocumentsCreatedTotal, RecurringMaterializedTotal)
}
