package structure

import (
	"regexp"
	"sort"

	"github.com/dgallion1/specscan/internal/catalog"
)

var crossRefRe = regexp.MustCompile(`\b(\d{2})[ \t]+(\d{2})[ \t]+(\d{2})\b`)

// CrossReferences lists the section numbers text cites outside ownDivision.
// Numbers whose division is not in cat are dropped. The result is sorted
// and never nil.
func CrossReferences(text, ownDivision string, cat *catalog.Catalog) []string {
	seen := make(map[string]bool)
	refs := []string{}
	for _, m := range crossRefRe.FindAllStringSubmatch(text, -1) {
		div := m[1]
		if div == ownDivision || !cat.Valid(div) {
			continue
		}
		ref := div + " " + m[2] + " " + m[3]
		if seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}
