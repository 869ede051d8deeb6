package scl

import (
	"errors"
	"sort"
)

// Handle identifies an element inside a Document. Handles stay stable across
// commits; a handle whose element was removed reports Valid == false.
type Handle int

// NoHandle is the absent element.
const NoHandle Handle = -1

// ErrInvalidHandle is returned when an action targets an unknown element.
var ErrInvalidHandle = errors.New("元素不存在")

// Attribute retains attribute order.
type Attribute struct {
	Name  string
	Value string
}

type node struct {
	tag       string
	attrs     []Attribute
	attrIndex map[string]int
	text      string
	// leading holds comments and processing instructions written before
	// the element, trailing those before its end tag.
	leading   []string
	trailing  []string
	parent    Handle
	children  []Handle
	detached  bool
}

type idKey struct {
	tag string
	id  string
}

// Document is an SCL element tree stored as an arena of nodes with tag and
// id lookup indices.
type Document struct {
	nodes  []*node
	root   Handle
	epilog []string

	order []int
	byTag map[string][]Handle
	byID  map[idKey][]Handle

	modified  bool
	undoStack []*command
	redoStack []*command
}

// NewDocument builds a document holding a single root element.
func NewDocument(rootTag string, attrs ...Attribute) *Document {
	d := &Document{root: NoHandle}
	d.root = d.newNode(rootTag, NoHandle, attrs)
	d.reindex()
	return d
}

// Root returns the document element.
func (d *Document) Root() Handle {
	return d.root
}

// IsModified reports whether the document has uncommitted-to-disk changes.
func (d *Document) IsModified() bool {
	return d.modified
}

// SetModified overrides the modified state.
func (d *Document) SetModified(value bool) {
	d.modified = value
}

// Valid reports whether h names a live element.
func (d *Document) Valid(h Handle) bool {
	return h >= 0 && int(h) < len(d.nodes) && !d.nodes[h].detached
}

// Tag returns the element name, or "" for an invalid handle.
func (d *Document) Tag(h Handle) string {
	if !d.Valid(h) {
		return ""
	}
	return d.nodes[h].tag
}

// Attr returns an attribute value.
func (d *Document) Attr(h Handle, name string) (string, bool) {
	if !d.Valid(h) {
		return "", false
	}
	n := d.nodes[h]
	idx, ok := n.attrIndex[name]
	if !ok {
		return "", false
	}
	return n.attrs[idx].Value, true
}

// Value returns an attribute as a Value, Null when absent.
func (d *Document) Value(h Handle, name string) Value {
	if v, ok := d.Attr(h, name); ok {
		return String(v)
	}
	return Null
}

// Attributes returns a copy of the element's attributes in document order.
func (d *Document) Attributes(h Handle) []Attribute {
	if !d.Valid(h) {
		return nil
	}
	out := make([]Attribute, len(d.nodes[h].attrs))
	copy(out, d.nodes[h].attrs)
	return out
}

// Text returns the element's character data.
func (d *Document) Text(h Handle) string {
	if !d.Valid(h) {
		return ""
	}
	return d.nodes[h].text
}

// Parent returns the parent element, NoHandle for the root.
func (d *Document) Parent(h Handle) Handle {
	if !d.Valid(h) {
		return NoHandle
	}
	return d.nodes[h].parent
}

// Children returns the direct children of h, optionally restricted to tags.
func (d *Document) Children(h Handle, tags ...string) []Handle {
	if !d.Valid(h) {
		return nil
	}
	var out []Handle
	for _, child := range d.nodes[h].children {
		if matchTag(d.nodes[child].tag, tags) {
			out = append(out, child)
		}
	}
	return out
}

// Child returns the first direct child with the given tag.
func (d *Document) Child(h Handle, tag string) Handle {
	children := d.Children(h, tag)
	if len(children) == 0 {
		return NoHandle
	}
	return children[0]
}

// Closest returns h or its nearest ancestor with the given tag.
func (d *Document) Closest(h Handle, tag string) Handle {
	for cur := h; d.Valid(cur); cur = d.nodes[cur].parent {
		if d.nodes[cur].tag == tag {
			return cur
		}
	}
	return NoHandle
}

// IsAncestor reports whether ancestor is a proper ancestor of h.
func (d *Document) IsAncestor(ancestor, h Handle) bool {
	if !d.Valid(h) {
		return false
	}
	for cur := d.nodes[h].parent; d.Valid(cur); cur = d.nodes[cur].parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// All returns every element carrying one of tags, in document order.
func (d *Document) All(tags ...string) []Handle {
	var out []Handle
	for _, tag := range tags {
		out = append(out, d.byTag[tag]...)
	}
	if len(tags) > 1 {
		sort.Slice(out, func(i, j int) bool {
			return d.order[out[i]] < d.order[out[j]]
		})
	}
	return out
}

// ByID returns the first element of the given tag whose id attribute equals id.
func (d *Document) ByID(tag, id string) (Handle, bool) {
	matches := d.byID[idKey{tag: tag, id: id}]
	if len(matches) == 0 {
		return NoHandle, false
	}
	return matches[0], true
}

// LookupID is ByID restricted to descendants of scope.
func (d *Document) LookupID(scope Handle, tag, id string) (Handle, bool) {
	for _, h := range d.byID[idKey{tag: tag, id: id}] {
		if d.IsAncestor(scope, h) {
			return h, true
		}
	}
	return NoHandle, false
}

// IDs returns the id attributes of every element with the given tag.
func (d *Document) IDs(tag string) []string {
	var ids []string
	for _, h := range d.byTag[tag] {
		if id, ok := d.Attr(h, "id"); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (d *Document) newNode(tag string, parent Handle, attrs []Attribute) Handle {
	n := &node{
		tag:       tag,
		attrs:     make([]Attribute, 0, len(attrs)),
		attrIndex: map[string]int{},
		parent:    parent,
	}
	for _, attr := range attrs {
		n.setAttr(attr.Name, attr.Value)
	}
	d.nodes = append(d.nodes, n)
	h := Handle(len(d.nodes) - 1)
	if parent != NoHandle {
		d.nodes[parent].children = append(d.nodes[parent].children, h)
	}
	return h
}

func (n *node) setAttr(name, value string) {
	if idx, ok := n.attrIndex[name]; ok {
		n.attrs[idx].Value = value
		return
	}
	n.attrIndex[name] = len(n.attrs)
	n.attrs = append(n.attrs, Attribute{Name: name, Value: value})
}

func (n *node) removeAttr(name string) {
	idx, ok := n.attrIndex[name]
	if !ok {
		return
	}
	n.attrs = append(n.attrs[:idx], n.attrs[idx+1:]...)
	n.attrIndex = make(map[string]int, len(n.attrs))
	for i, attr := range n.attrs {
		n.attrIndex[attr.Name] = i
	}
}

func (d *Document) detach(h Handle) {
	n := d.nodes[h]
	n.detached = true
	for _, child := range n.children {
		d.detach(child)
	}
}

func (d *Document) reindex() {
	d.order = make([]int, len(d.nodes))
	d.byTag = map[string][]Handle{}
	d.byID = map[idKey][]Handle{}
	pos := 0
	var walk func(Handle)
	walk = func(h Handle) {
		n := d.nodes[h]
		d.order[h] = pos
		pos++
		d.byTag[n.tag] = append(d.byTag[n.tag], h)
		if idx, ok := n.attrIndex["id"]; ok {
			key := idKey{tag: n.tag, id: n.attrs[idx].Value}
			d.byID[key] = append(d.byID[key], h)
		}
		for _, child := range n.children {
			walk(child)
		}
	}
	if d.Valid(d.root) {
		walk(d.root)
	}
}

func cloneNodes(nodes []*node) []*node {
	out := make([]*node, len(nodes))
	for i, n := range nodes {
		cloned := &node{
			tag:       n.tag,
			attrs:     make([]Attribute, len(n.attrs)),
			attrIndex: make(map[string]int, len(n.attrIndex)),
			text:      n.text,
			leading:   append([]string(nil), n.leading...),
			trailing:  append([]string(nil), n.trailing...),
			parent:    n.parent,
			children:  make([]Handle, len(n.children)),
			detached:  n.detached,
		}
		copy(cloned.attrs, n.attrs)
		for k, v := range n.attrIndex {
			cloned.attrIndex[k] = v
		}
		copy(cloned.children, n.children)
		out[i] = cloned
	}
	return out
}

func matchTag(tag string, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
