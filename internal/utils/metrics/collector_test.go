package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRPC("getBalance", "ok", 20*time.Millisecond)
	c.RecordRPC("getBalance", "network", time.Second)
	c.RecordCache("balance", "hit")
	c.RecordCurveGap()
	c.RecordCurveGap()
	c.RecordLedgerAppend("manual")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.rpcRequests.WithLabelValues("getBalance", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rpcRequests.WithLabelValues("getBalance", "network")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheRequests.WithLabelValues("balance", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.curveGaps))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ledgerAppends.WithLabelValues("manual")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordRPC("getBalance", "ok", time.Millisecond)
		c.RecordCache("balance", "miss")
		c.RecordCurveGap()
		c.RecordLedgerAppend("import")
	})
}
