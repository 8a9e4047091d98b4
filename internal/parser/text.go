package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/specscan/internal/doctree"
)

// TextParser handles plain text, typically the output of an earlier text
// extraction. Form feeds split pages; text that already carries page
// markers is passed through unchanged.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(b), "\r\n", "\n")

	tree := &doctree.DocTree{Title: baseTitle(filename, ".txt")}
	if !strings.Contains(text, "\f") {
		if strings.TrimSpace(text) != "" {
			tree.Children = []*doctree.DocNode{{Text: text}}
		}
		return tree, nil
	}

	pageTexts := strings.Split(text, "\f")
	tree.TotalPages = len(pageTexts)
	for i, page := range pageTexts {
		if strings.TrimSpace(page) == "" {
			continue
		}
		tree.Children = append(tree.Children, &doctree.DocNode{Text: page, Page: i + 1})
	}
	return tree, nil
}
