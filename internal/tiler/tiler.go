// Package tiler splits very large documents into overlapping windows sized
// for a single classification call.
package tiler

import (
	"unicode/utf8"

	"github.com/dgallion1/specscan/internal/pages"
)

const (
	DefaultBudget  = 50000
	DefaultOverlap = 5000

	// MinStride is the smallest advance between tile starts. A page marker
	// longer than the stride could be cut in two adjacent tiles, so overlap
	// is reduced until Budget-Overlap reaches it.
	MinStride = 32
)

// Config controls tile sizing. Sizes are in bytes of extracted text.
type Config struct {
	Budget  int // Maximum tile length.
	Overlap int // Text shared between consecutive tiles.
}

// DefaultConfig returns the production tile sizes.
func DefaultConfig() Config {
	return Config{Budget: DefaultBudget, Overlap: DefaultOverlap}
}

func (c Config) normalized() Config {
	if c.Budget <= 0 {
		c.Budget = DefaultBudget
	}
	if c.Overlap < 0 {
		c.Overlap = DefaultOverlap
	}
	if c.Overlap >= c.Budget {
		c.Overlap = c.Budget / 10
	}
	if c.Budget-c.Overlap < MinStride {
		c.Overlap = max(c.Budget-MinStride, 0)
	}
	return c
}

// Tile is one window of the source document.
type Tile struct {
	Index     int    `json:"index"`
	Start     int    `json:"start_offset"`
	End       int    `json:"end_offset"`
	Text      string `json:"-"`
	CharCount int    `json:"char_count"`
	// Overlap is the length of the prefix this tile shares with the
	// previous one. Zero for the first tile.
	Overlap  int `json:"overlap"`
	PageFrom int `json:"page_from"`
	PageTo   int `json:"page_to"`
}

// Split cuts text into tiles of at most cfg.Budget bytes. Consecutive tiles
// share exactly Tile.Overlap bytes. A cut never lands inside a page marker or
// a multi-byte rune.
func Split(text string, cfg Config) []Tile {
	cfg = cfg.normalized()
	idx := pages.NewIndex(text)

	if len(text) <= cfg.Budget {
		return []Tile{newTile(idx, text, 0, 0, len(text), 0)}
	}

	var tiles []Tile
	start, overlap := 0, 0
	for {
		end := start + cfg.Budget
		if end >= len(text) {
			end = len(text)
		} else {
			end = runeStart(text, end)
			if m, ok := idx.MarkerAt(end); ok && m.Start > start+cfg.Overlap {
				end = m.Start
			}
		}

		tiles = append(tiles, newTile(idx, text, len(tiles), start, end, overlap))
		if end == len(text) {
			break
		}

		next := runeStart(text, end-cfg.Overlap)
		if next <= start {
			next = end
		}
		overlap = end - next
		start = next
	}
	return tiles
}

func newTile(idx *pages.Index, text string, i, start, end, overlap int) Tile {
	t := Tile{
		Index:     i,
		Start:     start,
		End:       end,
		Text:      text[start:end],
		Overlap:   overlap,
		CharCount: utf8.RuneCountInString(text[start:end]),
		PageFrom:  idx.PageAt(start),
	}
	t.PageTo = t.PageFrom
	if end > start {
		t.PageTo = idx.PageAt(end - 1)
	}
	return t
}

func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
