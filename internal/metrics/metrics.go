package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ledger counters and histograms, partitioned by transaction type.

var (
	TransactionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "transactions",
		Name:      "created_total",
		Help:      "Total transactions opened in pending state",
	}, []string{"type"})

	TransactionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "transactions",
		Name:      "completed_total",
		Help:      "Total transactions completed with a stamped balance",
	}, []string{"type"})

	TransactionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "transactions",
		Name:      "failed_total",
		Help:      "Total transactions marked failed",
	}, []string{"type"})

	// StuckTransactions counts settlements that succeeded but could not be recorded.
	StuckTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "transactions",
		Name:      "unrecorded_settlements_total",
		Help:      "Settled payments whose completion could not be persisted",
	}, []string{"type"})

	// Settlement
	SettlementLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledger",
		Subsystem: "settlement",
		Name:      "submit_duration_seconds",
		Help:      "Settlement payment submission duration",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"type", "outcome"})

	SettlementErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "settlement",
		Name:      "errors_total",
		Help:      "Settlement rejections by result code",
	}, []string{"code"})

	// Rates
	RateLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "rates",
		Name:      "lookups_total",
		Help:      "Rate lookups by the source that answered",
	}, []string{"source"})
)
