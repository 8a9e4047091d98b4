package doctree

import "strings"

type outlineEntry struct {
	node  *DocNode
	level int
}

// Outline builds a tree from a flat stream of headings and paragraphs.
// Text goes to the most recent heading; a heading nests under the nearest
// earlier heading of a lower level.
type Outline struct {
	root  DocNode
	stack []outlineEntry
	text  strings.Builder
}

func NewOutline() *Outline {
	o := &Outline{}
	o.stack = []outlineEntry{{node: &o.root, level: 0}}
	return o
}

// Heading opens a section at level (1 is outermost).
func (o *Outline) Heading(level int, title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	o.flush()
	node := &DocNode{Title: title}
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	parent := o.stack[len(o.stack)-1].node
	parent.Children = append(parent.Children, node)
	o.stack = append(o.stack, outlineEntry{node: node, level: level})
}

// Paragraph appends a block of body text to the open section.
func (o *Outline) Paragraph(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if o.text.Len() > 0 {
		o.text.WriteString("\n\n")
	}
	o.text.WriteString(text)
}

func (o *Outline) flush() {
	t := o.text.String()
	o.text.Reset()
	if t == "" {
		return
	}
	top := o.stack[len(o.stack)-1].node
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// Tree closes the outline. Text before the first heading becomes a leading
// untitled node.
func (o *Outline) Tree(title string) *DocTree {
	o.flush()
	tree := &DocTree{Title: title}
	if o.root.Text != "" {
		tree.Children = append(tree.Children, &DocNode{Text: o.root.Text})
	}
	tree.Children = append(tree.Children, o.root.Children...)
	return tree
}
