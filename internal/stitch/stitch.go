// Package stitch reassembles matched tiles into one excerpt.
package stitch

import (
	"sort"
	"strings"

	"github.com/dgallion1/specscan/internal/tiler"
)

// GapMarker separates text from non-adjacent tiles.
const GapMarker = "\n\n--- [GAP] ---\n\n"

// Stitch concatenates tiles in index order. Adjacent tiles have their shared
// overlap removed so no text is duplicated; a GapMarker is inserted wherever
// tiles were skipped. Duplicate indices are ignored.
func Stitch(tiles []tiler.Tile) string {
	ordered := uniqueByIndex(tiles)
	switch len(ordered) {
	case 0:
		return ""
	case 1:
		return ordered[0].Text
	}

	var sb strings.Builder
	sb.WriteString(ordered[0].Text)
	for i := 1; i < len(ordered); i++ {
		cur := ordered[i]
		if cur.Index == ordered[i-1].Index+1 {
			sb.WriteString(trimOverlap(cur))
			continue
		}
		sb.WriteString(GapMarker)
		sb.WriteString(cur.Text)
	}
	return sb.String()
}

func trimOverlap(t tiler.Tile) string {
	if t.Overlap <= 0 {
		return t.Text
	}
	if t.Overlap >= len(t.Text) {
		return ""
	}
	return t.Text[t.Overlap:]
}

func uniqueByIndex(tiles []tiler.Tile) []tiler.Tile {
	out := append([]tiler.Tile(nil), tiles...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	n := 0
	for i, t := range out {
		if i > 0 && t.Index == out[n-1].Index {
			continue
		}
		out[n] = t
		n++
	}
	return out[:n]
}
