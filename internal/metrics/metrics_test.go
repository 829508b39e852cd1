package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	before := testutil.ToFloat64(TransactionsCreated.WithLabelValues("deposit"))
	TransactionsCreated.WithLabelValues("deposit").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(TransactionsCreated.WithLabelValues("deposit")))

	RateLookups.WithLabelValues("fallback").Add(2)
	assert.GreaterOrEqual(t, testutil.ToFloat64(RateLookups.WithLabelValues("fallback")), 2.0)
}

func TestMetrics_Histogram(t *testing.T) {
	SettlementLatency.WithLabelValues("withdrawal", "ok").Observe(0.2)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(SettlementLatency), 1)
}
