package extract

import (
	"slices"
	"sync"
	"time"
)

type call struct {
	at         time.Time
	durationMs int64
	failed     bool
	throttled  bool
}

// StatsSnapshot aggregates model calls inside the rolling window. Latency
// figures cover successful calls only.
type StatsSnapshot struct {
	Calls     int     `json:"calls"`
	Failures  int     `json:"failures"`
	Throttled int     `json:"throttled"`
	ErrorRate float64 `json:"error_rate"`
	MinMs     int64   `json:"min_ms"`
	MaxMs     int64   `json:"max_ms"`
	AvgMs     float64 `json:"avg_ms"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
	P99Ms     float64 `json:"p99_ms"`
}

// LLMStats records model call outcomes within a rolling window.
type LLMStats struct {
	mu     sync.Mutex
	calls  []call
	maxAge time.Duration
	now    func() time.Time
}

func NewLLMStats(maxAge time.Duration) *LLMStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &LLMStats{
		calls:  make([]call, 0, 256),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Record adds one call. A RetryableError counts as both a failure and a
// throttle.
func (s *LLMStats) Record(durationMs int64, err error) {
	durationMs = max(durationMs, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.calls = append(s.calls, call{
		at:         now,
		durationMs: durationMs,
		failed:     err != nil,
		throttled:  IsRetryable(err),
	})
}

func (s *LLMStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	if len(s.calls) == 0 {
		return StatsSnapshot{}
	}

	snap := StatsSnapshot{Calls: len(s.calls)}
	values := make([]int64, 0, len(s.calls))
	var sum int64
	for _, c := range s.calls {
		if c.failed {
			snap.Failures++
			if c.throttled {
				snap.Throttled++
			}
			continue
		}
		values = append(values, c.durationMs)
		sum += c.durationMs
	}
	snap.ErrorRate = float64(snap.Failures) / float64(snap.Calls)
	if len(values) == 0 {
		return snap
	}
	slices.Sort(values)

	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *LLMStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	s.calls = slices.DeleteFunc(s.calls, func(c call) bool {
		return c.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}

	rank := float64(len(sorted)-1) * pct / 100
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(rank-float64(lower))
}
