package structure

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/specscan/internal/catalog"
)

const (
	sectionWindow = 200000
	// SectionSpanPages is the page span assumed for a section whose end
	// cannot be located.
	SectionSpanPages = 10
)

var (
	divisionHeaderRe = regexp.MustCompile(`(?im)^[ \t]*DIVISION[ \t]+(\d{1,2})\b` + sep + `([^\n]*)$`)
	sectionHeaderRe  = regexp.MustCompile(`(?im)^[ \t]*SECTION[ \t]+(\d{2})[ \t]*(\d{2})[ \t]*(\d{2})(?:\.(\d{1,2}))?\b` + sep + `([^\n]*)$`)
	generalRe        = regexp.MustCompile(`(?i)\bGENERAL\b`)
	sectionWordRe    = regexp.MustCompile(`(?i)\bSECTION\b`)
)

// HeaderStrategy scans the body for DIVISION and SECTION headings.
type HeaderStrategy struct {
	Catalog *catalog.Catalog
}

func (s *HeaderStrategy) Method() Method { return MethodHeaders }

type divisionHeader struct {
	code  string
	title string
	start int // offset of the heading line
	end   int // offset just past the heading line
}

func (s *HeaderStrategy) Detect(doc *Document) Result {
	headers := s.findDivisionHeaders(doc.Text)
	if len(headers) == 0 {
		return Empty()
	}

	// Without markers or a page count every heading would land on page 1,
	// so divisions and sections stay unresolved.
	locatable := doc.Locatable()

	dm := DivisionMap{}
	for i, h := range headers {
		limit := len(doc.Text)
		if i+1 < len(headers) {
			limit = headers[i+1].start
		}
		limit = min(limit, h.end+sectionWindow)

		title := h.title
		if title == "" && s.Catalog != nil {
			title = s.Catalog.Title(h.code)
		}
		div := Division{Code: h.code, Title: title}
		if locatable {
			startPage := doc.pageAt(h.start)
			endPage := doc.TotalPages
			if i+1 < len(headers) {
				endPage = doc.pageAt(headers[i+1].start) - 1
			}
			if endPage <= 0 {
				endPage = startPage
			}
			div.Pages = PageRange{Start: startPage, End: clipEnd(endPage, startPage, doc.TotalPages)}
		}
		div.Sections = s.findSections(doc, h, limit, div.Pages, locatable)
		dm[h.code] = div
	}

	return Result{
		TOCEntries:        []TOCEntry{},
		DivisionMap:       dm,
		DocumentStructure: StructureStandard,
		Confidence:        headerConfidence(len(dm)),
		ExtractionMethod:  MethodHeaders,
	}
}

// findDivisionHeaders returns one heading per catalog division, ordered by
// position. Lines that look like contents entries are skipped, and a heading
// followed by PART 1 (or SECTION ... GENERAL) is preferred over earlier
// bare mentions.
func (s *HeaderStrategy) findDivisionHeaders(text string) []divisionHeader {
	first := make(map[string]divisionHeader)
	started := make(map[string]divisionHeader)
	for _, m := range divisionHeaderRe.FindAllStringSubmatchIndex(text, -1) {
		code, ok := catalog.NormalizeCode(text[m[2]:m[3]])
		if !ok {
			continue
		}
		if s.Catalog != nil && !s.Catalog.Valid(code) {
			continue
		}
		rest := text[m[4]:m[5]]
		if isTOCLine(rest) {
			continue
		}
		h := divisionHeader{
			code:  code,
			title: strings.TrimSpace(strings.Trim(rest, titleTrimChars)),
			start: m[0],
			end:   m[1],
		}
		if _, ok := first[code]; !ok {
			first[code] = h
		}
		if _, ok := started[code]; !ok && realStart(text, m[1]) {
			started[code] = h
		}
	}

	headers := make([]divisionHeader, 0, len(first))
	for code, h := range first {
		if r, ok := started[code]; ok {
			h = r
		}
		headers = append(headers, h)
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].start < headers[j].start })
	return headers
}

// realStart reports whether the text after offset reads like the start of
// specification content.
func realStart(text string, offset int) bool {
	after := text[offset:]
	if len(after) > bodyLookahead {
		after = after[:bodyLookahead]
	}
	if realStartRe.MatchString(after) {
		return true
	}
	return sectionWordRe.MatchString(after) && generalRe.MatchString(after)
}

func (s *HeaderStrategy) findSections(doc *Document, h divisionHeader, limit int, divPages PageRange, locatable bool) []Section {
	if limit <= h.end {
		return []Section{}
	}
	window := doc.Text[h.end:limit]

	type found struct {
		number string
		title  string
		page   int
	}
	var hits []found
	seen := make(map[string]bool)
	for _, m := range sectionHeaderRe.FindAllStringSubmatchIndex(window, -1) {
		if window[m[2]:m[3]] != h.code {
			continue
		}
		number := window[m[2]:m[3]] + window[m[4]:m[5]] + window[m[6]:m[7]]
		if m[8] >= 0 {
			number += "." + window[m[8]:m[9]]
		}
		title := window[m[10]:m[11]]
		if isTOCLine(title) || seen[number] {
			continue
		}
		seen[number] = true
		hits = append(hits, found{
			number: number,
			title:  strings.TrimSpace(strings.Trim(title, titleTrimChars)),
			page:   doc.pageAt(h.end + m[0]),
		})
	}

	sections := make([]Section, 0, len(hits))
	if !locatable {
		for _, f := range hits {
			sections = append(sections, Section{Number: f.number, Title: f.title})
		}
		return sections
	}
	for i, f := range hits {
		end := f.page + SectionSpanPages - 1
		if i+1 < len(hits) && hits[i+1].page > f.page {
			end = hits[i+1].page - 1
		} else if i+1 < len(hits) {
			end = f.page
		}
		if divPages.End >= f.page {
			end = min(end, divPages.End)
		}
		sections = append(sections, Section{
			Number: f.number,
			Title:  f.title,
			Pages:  PageRange{Start: f.page, End: clipEnd(end, f.page, doc.TotalPages)},
		})
	}
	return sections
}

func headerConfidence(n int) float64 {
	switch {
	case n > 3:
		return 0.85
	case n > 0:
		return 0.6
	}
	return 0
}
