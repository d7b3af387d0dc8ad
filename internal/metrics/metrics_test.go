package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageItemsTotal_IncrementsByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.StageItemsTotal.WithLabelValues("3", "ok").Add(5)
	m.StageItemsTotal.WithLabelValues("3", "failed").Add(1)

	var out dto.Metric
	require.NoError(t, m.StageItemsTotal.WithLabelValues("3", "ok").Write(&out))
	assert.Equal(t, 5.0, out.GetCounter().GetValue())
}

func TestRateLimiterWaitMS_ObservesPerClass(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.RateLimiterWaitMS.WithLabelValues("winticket").Observe(42)

	var out dto.Metric
	require.NoError(t, m.RateLimiterWaitMS.WithLabelValues("winticket").Write(&out))
	assert.Equal(t, uint64(1), out.GetHistogram().GetSampleCount())
}
