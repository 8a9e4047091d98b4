package tiler

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dgallion1/specscan/internal/pages"
)

func reassemble(tiles []Tile) string {
	var sb strings.Builder
	for i, t := range tiles {
		if i == 0 {
			sb.WriteString(t.Text)
			continue
		}
		sb.WriteString(t.Text[t.Overlap:])
	}
	return sb.String()
}

func TestSplit_ShortTextSingleTile(t *testing.T) {
	text := "DIVISION 04 - MASONRY\nUnit masonry assemblies."
	tiles := Split(text, DefaultConfig())
	if len(tiles) != 1 {
		t.Fatalf("expected 1 tile, got %d", len(tiles))
	}
	if tiles[0].Text != text {
		t.Errorf("expected tile text to equal input")
	}
	if tiles[0].Overlap != 0 {
		t.Errorf("expected no overlap on single tile, got %d", tiles[0].Overlap)
	}
	if tiles[0].Start != 0 || tiles[0].End != len(text) {
		t.Errorf("unexpected offsets %d-%d", tiles[0].Start, tiles[0].End)
	}
}

func TestSplit_ExactlyBudget(t *testing.T) {
	text := strings.Repeat("x", 100)
	tiles := Split(text, Config{Budget: 100, Overlap: 10})
	if len(tiles) != 1 {
		t.Fatalf("expected 1 tile at exactly the budget, got %d", len(tiles))
	}
}

func TestSplit_EmptyText(t *testing.T) {
	tiles := Split("", DefaultConfig())
	if len(tiles) != 1 || tiles[0].Text != "" {
		t.Fatalf("expected a single empty tile, got %+v", tiles)
	}
}

func TestSplit_OverlapInvariant(t *testing.T) {
	var sb strings.Builder
	for i := 0; sb.Len() < 450; i++ {
		sb.WriteByte(byte('a' + i%26))
	}
	text := sb.String()[:450]

	tiles := Split(text, Config{Budget: 100, Overlap: 20})
	if len(tiles) != 6 {
		t.Fatalf("expected 6 tiles, got %d", len(tiles))
	}
	for i, tile := range tiles {
		if tile.Index != i {
			t.Errorf("tile %d has index %d", i, tile.Index)
		}
		if len(tile.Text) > 100 {
			t.Errorf("tile %d exceeds budget: %d", i, len(tile.Text))
		}
		if i == 0 {
			continue
		}
		if tile.Overlap != 20 {
			t.Errorf("tile %d: expected overlap 20, got %d", i, tile.Overlap)
		}
		prev := tiles[i-1].Text
		if prev[len(prev)-20:] != tile.Text[:20] {
			t.Errorf("tile %d: overlap region does not match previous tile suffix", i)
		}
	}
	if tiles[len(tiles)-1].End != len(text) {
		t.Errorf("last tile should end at text end")
	}
	if got := reassemble(tiles); got != text {
		t.Error("reassembled tiles do not reproduce the input")
	}
}

func TestSplit_NeverSplitsPageMarker(t *testing.T) {
	bodies := make([]string, 40)
	for i := range bodies {
		bodies[i] = fmt.Sprintf("Body text for page %d with a few words.", i+1)
	}
	text := pages.Render(bodies)
	idx := pages.NewIndex(text)

	// 40/30 leaves a stride shorter than a marker line until it is clamped.
	for _, budget := range []int{40, 90, 120, 151, 200} {
		tiles := Split(text, Config{Budget: budget, Overlap: 30})
		for _, tile := range tiles[:len(tiles)-1] {
			if m, ok := idx.MarkerAt(tile.End); ok {
				t.Errorf("budget %d: tile %d cuts marker for page %d", budget, tile.Index, m.Page)
			}
		}
		for p := 1; p <= len(bodies); p++ {
			marker := pages.FormatMarker(p)
			found := false
			for _, tile := range tiles {
				if strings.Contains(tile.Text, marker) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("budget %d: marker %q not intact in any tile", budget, marker)
			}
		}
		if got := reassemble(tiles); got != text {
			t.Errorf("budget %d: reassembled tiles do not reproduce the input", budget)
		}
	}
}

func TestSplit_PageRanges(t *testing.T) {
	bodies := make([]string, 10)
	for i := range bodies {
		bodies[i] = strings.Repeat("w", 80)
	}
	text := pages.Render(bodies)
	tiles := Split(text, Config{Budget: 300, Overlap: 50})
	if tiles[0].PageFrom != 1 {
		t.Errorf("expected first tile to start on page 1, got %d", tiles[0].PageFrom)
	}
	last := tiles[len(tiles)-1]
	if last.PageTo != 10 {
		t.Errorf("expected last tile to end on page 10, got %d", last.PageTo)
	}
	for _, tile := range tiles {
		if tile.PageTo < tile.PageFrom {
			t.Errorf("tile %d has inverted page range %d-%d", tile.Index, tile.PageFrom, tile.PageTo)
		}
	}
}

func TestSplit_MultiByteRunes(t *testing.T) {
	text := strings.Repeat("é", 300)
	tiles := Split(text, Config{Budget: 101, Overlap: 21})
	if len(tiles) < 2 {
		t.Fatalf("expected several tiles, got %d", len(tiles))
	}
	for _, tile := range tiles {
		if !utf8.ValidString(tile.Text) {
			t.Errorf("tile %d is not valid UTF-8", tile.Index)
		}
	}
	if got := reassemble(tiles); got != text {
		t.Error("reassembled tiles do not reproduce the input")
	}
}

func TestConfig_Normalized(t *testing.T) {
	tests := []struct {
		in   Config
		want Config
	}{
		{Config{}, Config{Budget: DefaultBudget, Overlap: 0}},
		{Config{Budget: 1000, Overlap: -1}, Config{Budget: 1000, Overlap: 100}},
		{Config{Budget: 1000, Overlap: 1000}, Config{Budget: 1000, Overlap: 100}},
		{Config{Budget: 1000, Overlap: 50}, Config{Budget: 1000, Overlap: 50}},
		{Config{Budget: 40, Overlap: 30}, Config{Budget: 40, Overlap: 40 - MinStride}},
		{Config{Budget: 20, Overlap: 10}, Config{Budget: 20, Overlap: 0}},
	}
	for _, tt := range tests {
		if got := tt.in.normalized(); got != tt.want {
			t.Errorf("normalized(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("expected 0 tokens for empty text")
	}
	tests := []struct {
		text string
		want int
	}{
		{"one two three", 4},
		{"x", 1},
		{"04 20 00 " + strings.Repeat(".", 391), 100},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%.20q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
