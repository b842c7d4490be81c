package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ConnectionsTotal.WithLabelValues("bff").Inc()
	m.HeartbeatsSkippedTotal.Inc()
	m.HeartbeatsSkippedTotal.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ConnectionsTotal.WithLabelValues("bff")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.HeartbeatsSkippedTotal))
}

func TestNopUsableWithoutRegistry(t *testing.T) {
	m := Nop()
	require.NotNil(t, m)
	m.FramesDroppedTotal.WithLabelValues("broker").Inc()
	m.PeersKnown.Set(3)
}
