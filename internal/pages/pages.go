// Package pages locates page markers in extracted document text and slices
// text by page number.
//
// A page marker is a line of the form "--- PAGE 12 ---". Parsers emit one
// marker before the text of each page; documents without markers are still
// accepted and fall back to proportional slicing.
package pages

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

var markerRe = regexp.MustCompile(`(?im)^[ \t]*-{3}[ \t]*PAGE[ \t]+(\d+)[ \t]*-{3}[ \t]*\r?$`)

// Marker is a page marker line located at [Start, End) in the text.
type Marker struct {
	Page  int
	Start int
	End   int
}

// FormatMarker returns the marker line for page n.
func FormatMarker(n int) string {
	return fmt.Sprintf("--- PAGE %d ---", n)
}

// FindMarkers returns every page marker in text in offset order.
func FindMarkers(text string) []Marker {
	locs := markerRe.FindAllStringSubmatchIndex(text, -1)
	markers := make([]Marker, 0, len(locs))
	for _, loc := range locs {
		n, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		markers = append(markers, Marker{Page: n, Start: loc[0], End: loc[1]})
	}
	return markers
}

// Index answers page lookups for a single document.
type Index struct {
	markers []Marker
	total   int
}

func NewIndex(text string) *Index {
	idx := &Index{markers: FindMarkers(text)}
	for _, m := range idx.markers {
		if m.Page > idx.total {
			idx.total = m.Page
		}
	}
	return idx
}

// Markers returns the markers in offset order.
func (idx *Index) Markers() []Marker {
	return idx.markers
}

// HasMarkers reports whether the document carries any page markers.
func (idx *Index) HasMarkers() bool {
	return len(idx.markers) > 0
}

// TotalPages returns the highest page number seen, or 0 without markers.
func (idx *Index) TotalPages() int {
	return idx.total
}

// PageAt returns the page of the nearest marker starting at or before
// offset, or 0 when no marker precedes it.
func (idx *Index) PageAt(offset int) int {
	i := sort.Search(len(idx.markers), func(i int) bool {
		return idx.markers[i].Start > offset
	})
	if i == 0 {
		return 0
	}
	return idx.markers[i-1].Page
}

// MarkerAt returns the marker that a cut at offset would split.
func (idx *Index) MarkerAt(offset int) (Marker, bool) {
	i := sort.Search(len(idx.markers), func(i int) bool {
		return idx.markers[i].End > offset
	})
	if i < len(idx.markers) && idx.markers[i].Start < offset {
		return idx.markers[i], true
	}
	return Marker{}, false
}

// Extract returns the text of pages start..end inclusive.
//
// With page markers, capture begins at the first marker whose page is >= start
// and stops before the first later marker whose page is > end. Without
// markers the text is sliced proportionally using totalPages. Extract never
// fails; impossible ranges yield "".
func Extract(text string, start, end, totalPages int) string {
	if start < 1 {
		start = 1
	}
	if end < start || text == "" {
		return ""
	}

	markers := FindMarkers(text)
	if len(markers) == 0 {
		return proportional(text, start, end, totalPages)
	}

	from := -1
	to := len(text)
	for _, m := range markers {
		if from < 0 {
			if m.Page >= start {
				from = m.Start
			}
			continue
		}
		if m.Page > end {
			to = m.Start
			break
		}
	}
	if from < 0 {
		return ""
	}
	return strings.TrimSpace(text[from:to])
}

func proportional(text string, start, end, totalPages int) string {
	if totalPages < 1 {
		totalPages = 1
	}
	avg := len(text) / totalPages
	from := (start - 1) * avg
	to := end * avg
	if end >= totalPages {
		to = len(text)
	}
	if from >= len(text) {
		return ""
	}
	if to > len(text) {
		to = len(text)
	}
	from = runeStart(text, from)
	to = runeStart(text, to)
	if to <= from {
		return ""
	}
	return strings.TrimSpace(text[from:to])
}

// runeStart moves i back to the first byte of the rune containing it.
func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// Render joins page texts into a page-marked document, numbering from 1.
func Render(pageTexts []string) string {
	var sb strings.Builder
	for i, p := range pageTexts {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(FormatMarker(i + 1))
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(p))
		sb.WriteString("\n")
	}
	return sb.String()
}
