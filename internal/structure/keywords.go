package structure

import (
	"regexp"
	"strings"

	"github.com/dgallion1/specscan/internal/catalog"
)

// minKeywordHits is the number of keyword occurrences a division needs
// before it is reported.
const minKeywordHits = 3

// KeywordStrategy infers divisions from trade vocabulary when the document
// has no usable headings. Page ranges are left unresolved.
type KeywordStrategy struct {
	Catalog *catalog.Catalog
}

func (s *KeywordStrategy) Method() Method { return MethodKeywords }

func (s *KeywordStrategy) Detect(doc *Document) Result {
	if s.Catalog == nil || doc.Text == "" {
		return Empty()
	}

	dm := DivisionMap{}
	for _, d := range s.Catalog.Divisions() {
		re := keywordPattern(d.Keywords)
		if re == nil {
			continue
		}
		hits := len(re.FindAllStringIndex(doc.Text, -1))
		if hits < minKeywordHits {
			continue
		}
		dm[d.Code] = Division{
			Code:        d.Code,
			Title:       d.Title,
			Sections:    []Section{},
			KeywordHits: hits,
		}
	}
	if len(dm) == 0 {
		return Empty()
	}

	return Result{
		TOCEntries:        []TOCEntry{},
		DivisionMap:       dm,
		DocumentStructure: StructureNonStandard,
		Confidence:        keywordConfidence(len(dm)),
		ExtractionMethod:  MethodKeywords,
	}
}

// keywordPattern builds a case-insensitive whole-word alternation. Longer
// keywords come first so "UNIT MASONRY" counts once, not as "MASONRY" too.
func keywordPattern(keywords []string) *regexp.Regexp {
	if len(keywords) == 0 {
		return nil
	}
	quoted := make([]string, 0, len(keywords))
	for _, kw := range sortByLengthDesc(keywords) {
		quoted = append(quoted, regexp.QuoteMeta(kw))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

func sortByLengthDesc(in []string) []string {
	out := append([]string(nil), in...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j]) > len(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func keywordConfidence(n int) float64 {
	switch {
	case n > 5:
		return 0.5
	case n > 2:
		return 0.3
	case n > 0:
		return 0.1
	}
	return 0
}
