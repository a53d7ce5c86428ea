package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	r := NewRegistry()

	r.ScansTotal.WithLabelValues("success").Inc()
	r.ScansTotal.WithLabelValues("stale_data").Inc()
	r.ActiveScans.Set(1)
	r.RejectionsTotal.WithLabelValues("price_too_low").Add(7)

	snap, err := r.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, 2.0, snap["equityrun_scans_total"])
	assert.Equal(t, 1.0, snap["equityrun_active_scans"])
	assert.Equal(t, 7.0, snap["equityrun_universe_rejections_total"])
	// histograms are excluded from the snapshot
	_, ok := snap["equityrun_stage_duration_seconds"]
	assert.False(t, ok)
}
