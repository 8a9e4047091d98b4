package structure

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/specscan/internal/catalog"
)

const (
	tocWindow      = 15000
	bodyLookahead  = 500
	maxTOCPage     = 9999
	minTitleLength = 3

	pageOrderMaxPage = 20
)

// Start markers in priority order. The first pattern that matches anywhere
// wins, even if a lower priority marker appears earlier in the text.
var tocStartPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bTABLE[ \t]+OF[ \t]+CONTENTS\b`),
	regexp.MustCompile(`(?i)\bPROJECT[ \t]+MANUAL[ \t]+(?:TABLE[ \t]+OF[ \t]+)?CONTENTS\b`),
	regexp.MustCompile(`(?i)\bINDEX[ \t]+OF[ \t]+SPECIFICATIONS\b`),
	regexp.MustCompile(`(?i)\bSPECIFICATIONS?[ \t]+INDEX\b`),
	regexp.MustCompile(`(?im)^[ \t]*CONTENTS[ \t]*\r?$`),
}

var (
	tocEndRe       = regexp.MustCompile(`(?i)\bEND[ \t]+OF[ \t]+(?:TABLE[ \t]+OF[ \t]+CONTENTS|CONTENTS|INDEX)\b`)
	divisionOneRe  = regexp.MustCompile(`(?im)^[ \t]*DIVISION[ \t]+0?1\b([^\n]*)$`)
	tocEntryRe     = regexp.MustCompile(`(?im)^[ \t]*(?:SECTION[ \t]+)?(\d{2})[ \t]*(\d{2})[ \t]*(\d{2})(?:\.(\d{1,2}))?` + sep + `(.+?)[ \t.·…_]*[ \t.](\d{1,5})[ \t]*\r?$`)
	realStartRe    = regexp.MustCompile(`(?i)\bPART[ \t]+1\b`)
	titleTrimChars = " \t.·…_-–—:"
)

// TOCStrategy reads the table of contents.
type TOCStrategy struct {
	Catalog *catalog.Catalog
}

func (s *TOCStrategy) Method() Method { return MethodTOC }

func (s *TOCStrategy) Detect(doc *Document) Result {
	region, ok := findTOCRegion(doc.Text)
	if !ok {
		return Empty()
	}

	bound := maxTOCPage
	if doc.TotalPages > 0 {
		bound = doc.TotalPages
	}
	entries := parseTOCEntries(region, bound, s.Catalog)
	if len(entries) == 0 || pageOrderTOC(entries, doc.TotalPages) {
		return Empty()
	}

	return Result{
		HasTOC:            true,
		TOCEntries:        entries,
		DivisionMap:       buildTOCDivisionMap(entries, doc.TotalPages, s.Catalog),
		DocumentStructure: StructureStandard,
		Confidence:        tocConfidence(len(entries)),
		ExtractionMethod:  MethodTOC,
	}
}

// findTOCRegion returns the text between the first matching start marker and
// the nearest end marker, capped at tocWindow bytes.
func findTOCRegion(text string) (string, bool) {
	start := -1
	for _, re := range tocStartPatterns {
		if loc := re.FindStringIndex(text); loc != nil {
			start = loc[1]
			break
		}
	}
	if start < 0 {
		return "", false
	}

	end := start + tocWindow
	if end > len(text) {
		end = len(text)
	}
	window := text[start:end]

	if loc := tocEndRe.FindStringIndex(window); loc != nil {
		end = start + loc[0]
		window = text[start:end]
	}
	for _, m := range divisionOneRe.FindAllStringSubmatchIndex(window, -1) {
		if isBodyHeading(text, start+m[1], window[m[2]:m[3]]) {
			end = start + m[0]
			break
		}
	}
	return text[start:end], true
}

// isBodyHeading decides whether a DIVISION 01 line starts the specification
// body rather than being a group heading inside the contents listing.
func isBodyHeading(text string, lineEnd int, rest string) bool {
	if isTOCLine(rest) {
		return false
	}
	after := text[lineEnd:]
	if len(after) > bodyLookahead {
		after = after[:bodyLookahead]
	}
	entry := tocEntryRe.FindStringIndex(after)
	part := realStartRe.FindStringIndex(after)
	if part != nil && (entry == nil || part[0] < entry[0]) {
		return true
	}
	return entry == nil
}

func parseTOCEntries(region string, bound int, cat *catalog.Catalog) []TOCEntry {
	seen := make(map[string]bool)
	var entries []TOCEntry
	for _, m := range tocEntryRe.FindAllStringSubmatch(region, -1) {
		div := m[1]
		if cat != nil && !cat.Valid(div) {
			continue
		}
		number := m[1] + m[2] + m[3]
		if m[4] != "" {
			number += "." + m[4]
		}
		title := strings.Trim(m[5], titleTrimChars)
		if utf8.RuneCountInString(title) < minTitleLength {
			continue
		}
		page, err := strconv.Atoi(m[6])
		if err != nil || page <= 0 || page > bound {
			continue
		}
		if seen[number] {
			continue
		}
		seen[number] = true
		entries = append(entries, TOCEntry{
			SectionNumber: number,
			SectionTitle:  title,
			PageNumber:    page,
			DivisionCode:  div,
		})
	}
	return entries
}

// pageOrderTOC rejects listings whose "page numbers" are really sequence
// numbers (1, 2, 3 ...) in a document known to be much longer than the
// listing's page span. A short document can legitimately start its sections
// on pages 1 through 20.
func pageOrderTOC(entries []TOCEntry, totalPages int) bool {
	if len(entries) < 3 || totalPages <= pageOrderMaxPage {
		return false
	}
	lo, hi := entries[0].PageNumber, entries[0].PageNumber
	for _, e := range entries[1:] {
		lo = min(lo, e.PageNumber)
		hi = max(hi, e.PageNumber)
	}
	return hi <= pageOrderMaxPage && lo <= 2
}

func buildTOCDivisionMap(entries []TOCEntry, totalPages int, cat *catalog.Catalog) DivisionMap {
	sorted := append([]TOCEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PageNumber != sorted[j].PageNumber {
			return sorted[i].PageNumber < sorted[j].PageNumber
		}
		return sorted[i].SectionNumber < sorted[j].SectionNumber
	})

	dm := DivisionMap{}
	for i, e := range sorted {
		end := e.PageNumber
		if i+1 < len(sorted) {
			end = sorted[i+1].PageNumber - 1
		} else if totalPages > 0 {
			end = totalPages
		}
		end = clipEnd(end, e.PageNumber, 0)

		d, ok := dm[e.DivisionCode]
		if !ok {
			d = Division{Code: e.DivisionCode, Pages: PageRange{Start: e.PageNumber, End: end}}
			if cat != nil {
				d.Title = cat.Title(e.DivisionCode)
			}
		}
		d.Sections = append(d.Sections, Section{
			Number: e.SectionNumber,
			Title:  e.SectionTitle,
			Pages:  PageRange{Start: e.PageNumber, End: end},
		})
		d.Pages.Start = min(d.Pages.Start, e.PageNumber)
		d.Pages.End = max(d.Pages.End, end)
		dm[e.DivisionCode] = d
	}
	return dm
}

func tocConfidence(n int) float64 {
	switch {
	case n > 5:
		return 0.9
	case n > 2:
		return 0.7
	case n > 0:
		return 0.5
	}
	return 0
}
