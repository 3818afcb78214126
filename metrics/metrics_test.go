package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CacheLookup(KindEntity, true)
	m.CacheLookup(KindEntity, false)
	m.CacheLookup(KindEntity, false)
	m.RemoteFetch("User", nil)
	m.RemoteFetch("User", errors.New("boom"))
	m.Revalidation(RevalidationChanged)

	if got := testutil.ToFloat64(m.lookups.WithLabelValues(KindEntity, "miss")); got != 2 {
		t.Fatalf("misses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.remote.WithLabelValues("User", "error")); got != 1 {
		t.Fatalf("remote errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.revalidations.WithLabelValues(RevalidationChanged)); got != 1 {
		t.Fatalf("revalidations = %v, want 1", got)
	}
}

func TestMetrics_PendingGauge(t *testing.T) {
	m := New(nil)
	m.BatchStarted()
	m.BatchStarted()
	m.BatchFinished(time.Millisecond)
	if got := testutil.ToFloat64(m.pending); got != 1 {
		t.Fatalf("pending = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.batch); n != 1 {
		t.Fatalf("histogram series = %d, want 1", n)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.CacheLookup(KindCollection, true)
	m.RemoteFetch("User", nil)
	m.Revalidation(RevalidationError)
	m.BatchStarted()
	m.BatchFinished(time.Second)
}
