package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegistry exercises every recording method against a single shared
// Registry instance: NewRegistry registers its collectors with the default
// Prometheus registerer, and a second registration in the same process
// would panic on a duplicate-name collision.
func TestRegistry(t *testing.T) {
	r := NewRegistry()

	t.Run("RunTimer records duration and increments the run counter", func(t *testing.T) {
		timer := r.StartRunTimer("equities", "B")
		time.Sleep(time.Millisecond)
		timer.Stop("success")

		count := testutil.ToFloat64(r.RunsTotal.WithLabelValues("equities", "success"))
		assert.Equal(t, 1.0, count)
	})

	t.Run("RecordRunError increments the error counter for the stage", func(t *testing.T) {
		r.RecordRunError("equities", "scoring")
		count := testutil.ToFloat64(r.RunErrors.WithLabelValues("equities", "scoring"))
		assert.Equal(t, 1.0, count)
	})

	t.Run("RecordSweep sets duration, size, and best Sharpe gauges", func(t *testing.T) {
		r.RecordSweep("perpetuals", 12*time.Second, 96, 1.8)
		assert.Equal(t, 96.0, testutil.ToFloat64(r.SweepSize.WithLabelValues("perpetuals")))
		assert.Equal(t, 1.8, testutil.ToFloat64(r.ActiveSharpe.WithLabelValues("perpetuals")))
	})

	t.Run("RecordCacheHit and RecordCacheMiss increment independent counters", func(t *testing.T) {
		r.RecordCacheHit("slice")
		r.RecordCacheHit("slice")
		r.RecordCacheMiss("slice")

		assert.Equal(t, 2.0, testutil.ToFloat64(r.CacheHits.WithLabelValues("slice")))
		assert.Equal(t, 1.0, testutil.ToFloat64(r.CacheMisses.WithLabelValues("slice")))
	})

	t.Run("Handler returns a non-nil metrics HTTP handler", func(t *testing.T) {
		require.NotNil(t, r.Handler())
	})
}
