// Package doctree is the format-neutral form of a parsed upload. Parsers
// build a tree; the analyzer consumes its page-marked rendering.
package doctree

import (
	"strings"

	"github.com/dgallion1/specscan/internal/pages"
)

// DocTree is the root of a parsed document.
type DocTree struct {
	Title      string     // Document title (from metadata or filename)
	TotalPages int        // Page count reported by the format, 0 if unknown
	Children   []*DocNode // Top-level sections or pages
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page (0 if N/A)
	Children []*DocNode // Subsections
}

// Pages returns TotalPages, or the highest node page when the format did
// not report a count.
func (t *DocTree) Pages() int {
	if t.TotalPages > 0 {
		return t.TotalPages
	}
	highest := 0
	t.Walk(func(n *DocNode) {
		highest = max(highest, n.Page)
	})
	return highest
}

// Walk visits nodes depth first in document order.
func (t *DocTree) Walk(fn func(*DocNode)) {
	var walk func([]*DocNode)
	walk = func(nodes []*DocNode) {
		for _, n := range nodes {
			fn(n)
			walk(n.Children)
		}
	}
	walk(t.Children)
}

// Render flattens the tree into analysis text. Headings become their own
// lines, blocks are separated by blank lines, and a page marker is written
// whenever a node starts a new page.
func (t *DocTree) Render() string {
	var b strings.Builder
	page := 0
	afterMarker := false

	block := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if b.Len() > 0 && !afterMarker {
			b.WriteString("\n\n")
		}
		b.WriteString(s)
		afterMarker = false
	}

	t.Walk(func(n *DocNode) {
		if n.Page > 0 && n.Page != page {
			page = n.Page
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(pages.FormatMarker(page))
			b.WriteString("\n")
			afterMarker = true
		}
		block(n.Title)
		block(n.Text)
	})
	return b.String()
}
