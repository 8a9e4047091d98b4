// Package structure recovers the division layout of a construction
// specification from its extracted text.
//
// Strategies are tried in order of decreasing reliability: the table of
// contents, then DIVISION headings in the body, then keyword density. The
// first strategy that yields any division wins.
package structure

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/dgallion1/specscan/internal/catalog"
	"github.com/dgallion1/specscan/internal/pages"
)

// Document is the analyzer's view of one extracted text.
type Document struct {
	Text       string
	Pages      *pages.Index
	TotalPages int
}

// NewDocument indexes text. A positive totalPages (for example a PDF page
// count) overrides the count derived from page markers.
func NewDocument(text string, totalPages int) *Document {
	idx := pages.NewIndex(text)
	if totalPages <= 0 {
		totalPages = idx.TotalPages()
	}
	return &Document{Text: text, Pages: idx, TotalPages: totalPages}
}

// Locatable reports whether offsets can be mapped to pages: the text carries
// page markers or its page count is known.
func (d *Document) Locatable() bool {
	return d.Pages.HasMarkers() || (d.TotalPages > 0 && len(d.Text) > 0)
}

// pageAt estimates the page containing offset. Without markers the page is
// derived from the offset's share of the text.
func (d *Document) pageAt(offset int) int {
	if d.Pages.HasMarkers() {
		if p := d.Pages.PageAt(offset); p > 0 {
			return p
		}
		return 1
	}
	if d.TotalPages > 0 && len(d.Text) > 0 {
		return offset*d.TotalPages/len(d.Text) + 1
	}
	return 1
}

// Strategy is one way of recovering a DivisionMap.
type Strategy interface {
	Method() Method
	Detect(doc *Document) Result
}

type Analyzer struct {
	strategies []Strategy
	log        *slog.Logger
}

// NewAnalyzer returns the standard toc -> division-headers -> keyword-search
// cascade over cat.
func NewAnalyzer(cat *catalog.Catalog, log *slog.Logger) *Analyzer {
	return NewAnalyzerWith(log,
		&TOCStrategy{Catalog: cat},
		&HeaderStrategy{Catalog: cat},
		&KeywordStrategy{Catalog: cat},
	)
}

// NewAnalyzerWith builds an analyzer over an explicit strategy list.
func NewAnalyzerWith(log *slog.Logger, strategies ...Strategy) *Analyzer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{strategies: strategies, log: log}
}

// Analyze runs the cascade. It never fails: a document with no recognizable
// structure yields Empty().
func (a *Analyzer) Analyze(text string, totalPages int) Result {
	doc := NewDocument(text, totalPages)
	for _, s := range a.strategies {
		res := s.Detect(doc)
		if res.Usable() {
			a.log.Info("structure detected",
				"method", res.ExtractionMethod,
				"divisions", len(res.DivisionMap),
				"confidence", res.Confidence,
			)
			return res
		}
		a.log.Debug("structure strategy found nothing", "method", s.Method())
	}
	a.log.Info("no structure detected", "total_pages", doc.TotalPages)
	return Empty()
}

// tocLineRe matches dot leaders or a trailing page number, the signature of
// a contents line rather than a body heading.
var tocLineRe = regexp.MustCompile(`\.{3,}|[ \t]\d{1,4}[ \t]*$`)

func isTOCLine(s string) bool {
	return tocLineRe.MatchString(strings.TrimRight(s, "\r"))
}

// dashes accepted between a number and its title.
const sep = `[ \t]*(?:[-–—:][ \t]*)?`

func clipEnd(end, start, total int) int {
	if total > 0 && end > total {
		end = total
	}
	if end < start {
		end = start
	}
	return end
}
