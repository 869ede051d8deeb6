package scl

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"
)

// Tree renders the subtree rooted at h.
func (d *Document) Tree(h Handle) string {
	if !d.Valid(h) {
		return ""
	}
	tree := treeprint.NewWithRoot(d.Label(h))
	d.populate(tree, h)
	return strings.TrimRight(tree.String(), "\n")
}

// Label formats an element as `Tag [name="value", ...]`.
func (d *Document) Label(h Handle) string {
	if !d.Valid(h) {
		return ""
	}
	n := d.nodes[h]
	if len(n.attrs) == 0 {
		return n.tag
	}
	parts := make([]string, len(n.attrs))
	for i, attr := range n.attrs {
		parts[i] = fmt.Sprintf("%s=\"%s\"", attr.Name, attr.Value)
	}
	return fmt.Sprintf("%s [%s]", n.tag, strings.Join(parts, ", "))
}

func (d *Document) populate(tree treeprint.Tree, h Handle) {
	n := d.nodes[h]
	for _, child := range n.children {
		if len(d.nodes[child].children) == 0 && d.nodes[child].text == "" {
			tree.AddNode(d.Label(child))
			continue
		}
		d.populate(tree.AddBranch(d.Label(child)), child)
	}
	if n.text != "" {
		tree.AddNode(fmt.Sprintf("%q", n.text))
	}
}
