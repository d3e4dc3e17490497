package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterWorkoutsIngested   prometheus.Counter
	CounterPersonalRecords    prometheus.Counter
	CounterSummaryCacheHits   prometheus.Counter
	CounterSummaryCacheMisses prometheus.Counter
	CounterIngestionsRejected prometheus.Counter
}

func NewTestManager() *Manager {
	return NewManager("trainlog", "test_service", prometheus.NewRegistry())
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterWorkoutsIngested := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workouts_ingested",
		Help:      "The total number of ingested workouts",
	})
	counterPersonalRecords := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "personal_records",
		Help:      "The total number of broken personal records",
	})
	counterSummaryCacheHits := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "summary_cache_hits",
		Help:      "The total number of period summary cache hits",
	})
	counterSummaryCacheMisses := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "summary_cache_misses",
		Help:      "The total number of period summary cache misses",
	})
	counterIngestionsRejected := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "ingestions_rejected",
		Help:      "The total number of rejected workout ingestions",
	})

	return &Manager{
		CounterWorkoutsIngested:   counterWorkoutsIngested,
		CounterPersonalRecords:    counterPersonalRecords,
		CounterSummaryCacheHits:   counterSummaryCacheHits,
		CounterSummaryCacheMisses: counterSummaryCacheMisses,
		CounterIngestionsRejected: counterIngestionsRejected,
	}
}
