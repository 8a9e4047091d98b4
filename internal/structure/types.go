package structure

import (
	"sort"
)

// Method names the strategy that produced a Result.
type Method string

const (
	MethodTOC      Method = "toc"
	MethodHeaders  Method = "division-headers"
	MethodKeywords Method = "keyword-search"
	MethodNone     Method = "none"
)

// DocumentStructure classifies how the document is organized.
type DocumentStructure string

const (
	StructureStandard    DocumentStructure = "standard"
	StructureNonStandard DocumentStructure = "non-standard"
	StructureUnknown     DocumentStructure = "unknown"
)

// PageRange is an inclusive page span. {0, 0} means unresolved.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Resolved reports whether the range points at real pages.
func (p PageRange) Resolved() bool {
	return p.Start > 0 && p.End >= p.Start
}

type Section struct {
	Number string    `json:"number"`
	Title  string    `json:"title"`
	Pages  PageRange `json:"pages"`
}

type Division struct {
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Pages       PageRange `json:"pages"`
	Sections    []Section `json:"sections"`
	KeywordHits int       `json:"keyword_hits,omitempty"`
}

// DivisionMap is keyed by two-digit division code.
type DivisionMap map[string]Division

// Codes returns the division codes in ascending order.
func (m DivisionMap) Codes() []string {
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// TOCEntry is one section line recovered from a table of contents.
type TOCEntry struct {
	SectionNumber string `json:"section_number"`
	SectionTitle  string `json:"section_title"`
	PageNumber    int    `json:"page_number"`
	DivisionCode  string `json:"division_code"`
}

// Result is the outcome of structure analysis.
type Result struct {
	HasTOC            bool              `json:"has_toc"`
	TOCEntries        []TOCEntry        `json:"toc_entries"`
	DivisionMap       DivisionMap       `json:"division_map"`
	DocumentStructure DocumentStructure `json:"document_structure"`
	Confidence        float64           `json:"confidence"`
	ExtractionMethod  Method            `json:"extraction_method"`
}

// Empty is the result reported when no strategy finds anything.
func Empty() Result {
	return Result{
		TOCEntries:        []TOCEntry{},
		DivisionMap:       DivisionMap{},
		DocumentStructure: StructureUnknown,
		Confidence:        0,
		ExtractionMethod:  MethodNone,
	}
}

// Usable reports whether the result carries at least one division.
func (r Result) Usable() bool {
	return len(r.DivisionMap) > 0
}

// PagesFor returns the resolved page range for a division, if any.
func (r Result) PagesFor(code string) (PageRange, bool) {
	d, ok := r.DivisionMap[code]
	if !ok || !d.Pages.Resolved() {
		return PageRange{}, false
	}
	return d.Pages, true
}
