package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/specscan/internal/extract"
	"github.com/dgallion1/specscan/internal/tiler"
)

// ErrClassifierUnavailable is returned when every classification call in a
// scan failed, so an empty result would be meaningless.
var ErrClassifierUnavailable = errors.New("classifier unavailable")

// Config tunes the scan to the classifier's throughput limits.
type Config struct {
	BatchSize   int           // tiles classified concurrently
	BatchDelay  time.Duration // pause between batches
	Attempts    int           // tries per tile, including the first
	RetryDelay  time.Duration // base delay before a re-attempt
	CallTimeout time.Duration // per call
}

func DefaultConfig() Config {
	return Config{
		BatchSize:   5,
		BatchDelay:  time.Second,
		Attempts:    2,
		RetryDelay:  500 * time.Millisecond,
		CallTimeout: 90 * time.Second,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.BatchDelay < 0 {
		c.BatchDelay = 0
	}
	if c.Attempts <= 0 {
		c.Attempts = def.Attempts
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = def.CallTimeout
	}
	return c
}

// MatchedTile is a tile accepted for the target. DivisionStart and
// DivisionEnd are document offsets derived from the verdict's approximate
// bounds, clamped to the tile.
type MatchedTile struct {
	tiler.Tile
	Verdict       Verdict `json:"verdict"`
	DivisionStart *int    `json:"division_start,omitempty"`
	DivisionEnd   *int    `json:"division_end,omitempty"`
}

// Progress is called after each batch.
type Progress func(scanned, matched, total int)

// Scanner classifies tiles in rate-limited batches.
type Scanner struct {
	classifier TileClassifier
	cfg        Config
	log        *slog.Logger
}

func NewScanner(classifier TileClassifier, cfg Config, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Scanner{classifier: classifier, cfg: cfg.normalized(), log: log}
}

type outcome struct {
	verdict Verdict
	err     error
}

// Scan classifies every tile and returns the accepted ones in tile order.
// A failed call counts as a non-match. The scan never stops early; it fails
// only when ctx is cancelled or when no call succeeded.
func (s *Scanner) Scan(ctx context.Context, tiles []tiler.Tile, target Target, progress Progress) ([]MatchedTile, error) {
	log := s.log.With("division", target.Code)
	var (
		matches []MatchedTile
		failed  int
		lastErr error
	)

	for start := 0; start < len(tiles); start += s.cfg.BatchSize {
		if start > 0 {
			if err := sleep(ctx, s.cfg.BatchDelay); err != nil {
				return nil, err
			}
		} else if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch := tiles[start:min(start+s.cfg.BatchSize, len(tiles))]
		outcomes := make([]outcome, len(batch))

		var g errgroup.Group
		for i, tile := range batch {
			g.Go(func() error {
				v, err := s.classifyTile(ctx, tile, target)
				outcomes[i] = outcome{verdict: v, err: err}
				return nil // a failed tile must not cancel its siblings
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i, o := range outcomes {
			tile := batch[i]
			if o.err != nil {
				failed++
				lastErr = o.err
				log.Warn("tile classification failed", "tile", tile.Index, "error", o.err)
				continue
			}
			if !o.verdict.Accepted() {
				continue
			}
			matches = append(matches, newMatch(tile, o.verdict))
			log.Debug("tile matched", "tile", tile.Index, "confidence", o.verdict.Confidence)
		}

		if progress != nil {
			progress(start+len(batch), len(matches), len(tiles))
		}
	}

	if len(tiles) > 0 && failed == len(tiles) {
		return nil, fmt.Errorf("%w: all %d calls failed: %v", ErrClassifierUnavailable, failed, lastErr)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Index < matches[j].Index })
	log.Info("scan complete", "tiles", len(tiles), "matched", len(matches), "failed", failed)
	return matches, nil
}

func (s *Scanner) classifyTile(ctx context.Context, tile tiler.Tile, target Target) (Verdict, error) {
	return retry.DoWithData(
		func() (Verdict, error) {
			callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
			defer cancel()
			return s.classifier.Classify(callCtx, tile, target)
		},
		retry.Context(ctx),
		retry.Attempts(uint(s.cfg.Attempts)),
		retry.Delay(s.cfg.RetryDelay),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return extract.Backoff(s.cfg.RetryDelay, int(n))
		}),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled)
		}),
	)
}

func newMatch(tile tiler.Tile, v Verdict) MatchedTile {
	m := MatchedTile{Tile: tile, Verdict: v}
	if v.ApproximateStart != nil {
		off := tile.Start + clamp(*v.ApproximateStart, 0, tile.End-tile.Start)
		m.DivisionStart = &off
	}
	if v.ApproximateEnd != nil {
		off := tile.Start + clamp(*v.ApproximateEnd, 0, tile.End-tile.Start)
		m.DivisionEnd = &off
	}
	return m
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Tiles strips verdicts for stitching.
func Tiles(matches []MatchedTile) []tiler.Tile {
	out := make([]tiler.Tile, len(matches))
	for i, m := range matches {
		out[i] = m.Tile
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
