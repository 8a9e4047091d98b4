package extract

import (
	"errors"
	"testing"
	"time"
)

func TestLLMStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(ms, nil)
	}

	snap := stats.Snapshot()
	if snap.Calls != 5 || snap.Failures != 0 {
		t.Fatalf("expected 5 calls, 0 failures, got %+v", snap)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestLLMStatsCountsFailures(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record(100, nil)
	stats.Record(5000, errors.New("boom"))
	stats.Record(20, &RetryableError{StatusCode: 429})
	stats.Record(300, nil)

	snap := stats.Snapshot()
	if snap.Calls != 4 {
		t.Fatalf("expected 4 calls, got %d", snap.Calls)
	}
	if snap.Failures != 2 || snap.Throttled != 1 {
		t.Fatalf("expected failures=2 throttled=1, got %d/%d", snap.Failures, snap.Throttled)
	}
	if snap.ErrorRate != 0.5 {
		t.Fatalf("expected error rate 0.5, got %f", snap.ErrorRate)
	}
	// Failed calls stay out of the latency figures.
	if snap.MaxMs != 300 {
		t.Fatalf("expected max=300, got %d", snap.MaxMs)
	}
}

func TestLLMStatsPrunesExpiredSamples(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	stats := NewLLMStats(10 * time.Minute)
	stats.now = func() time.Time { return now }

	stats.Record(100, nil)
	now = now.Add(11 * time.Minute)

	if snap := stats.Snapshot(); snap.Calls != 0 {
		t.Fatalf("expected calls=0 after prune, got %d", snap.Calls)
	}

	stats.Record(200, nil)
	snap := stats.Snapshot()
	if snap.Calls != 1 {
		t.Fatalf("expected calls=1 for fresh sample, got %d", snap.Calls)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestLLMStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record(-10, nil)
	snap := stats.Snapshot()
	if snap.Calls != 1 {
		t.Fatalf("expected calls=1, got %d", snap.Calls)
	}
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestLLMStatsAllFailed(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record(10, errors.New("x"))
	snap := stats.Snapshot()
	if snap.ErrorRate != 1 || snap.P50Ms != 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
