package scl

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrNothingToUndo is returned by Undo on an empty history.
	ErrNothingToUndo = errors.New("没有可撤销的操作")
	// ErrNothingToRedo is returned by Redo on an empty redo stack.
	ErrNothingToRedo = errors.New("没有可重做的操作")
)

// Action is one step of an edit batch.
type Action interface {
	apply(d *Document) error
	describe(d *Document) string
}

// SetAttributes writes attributes on Element. A Null value removes the
// attribute.
type SetAttributes struct {
	Element    Handle
	Attributes map[string]Value
}

// InsertElement appends a new child element under Parent.
type InsertElement struct {
	Parent     Handle
	Tag        string
	Attributes []Attribute
	Text       string
}

// RemoveElement detaches Element and its subtree.
type RemoveElement struct {
	Element Handle
}

// SetText replaces the character data of Element.
type SetText struct {
	Element Handle
	Text    string
}

func (a SetAttributes) apply(d *Document) error {
	if !d.Valid(a.Element) {
		return fmt.Errorf("%w: %d", ErrInvalidHandle, a.Element)
	}
	n := d.nodes[a.Element]
	for _, name := range sortedNames(a.Attributes) {
		if name == "" {
			return errors.New("属性名不能为空")
		}
		if text, ok := a.Attributes[name].Get(); ok {
			n.setAttr(name, text)
		} else {
			n.removeAttr(name)
		}
	}
	return nil
}

func (a SetAttributes) describe(d *Document) string {
	parts := make([]string, 0, len(a.Attributes))
	for _, name := range sortedNames(a.Attributes) {
		parts = append(parts, fmt.Sprintf("%s=%s", name, a.Attributes[name]))
	}
	return fmt.Sprintf("set %s [%s]", d.Tag(a.Element), strings.Join(parts, ", "))
}

func (a InsertElement) apply(d *Document) error {
	if !d.Valid(a.Parent) {
		return fmt.Errorf("父元素不存在: %d", a.Parent)
	}
	if strings.TrimSpace(a.Tag) == "" {
		return errors.New("元素名不能为空")
	}
	h := d.newNode(a.Tag, a.Parent, a.Attributes)
	d.nodes[h].text = a.Text
	return nil
}

func (a InsertElement) describe(d *Document) string {
	return fmt.Sprintf("insert %s under %s", a.Tag, d.Tag(a.Parent))
}

func (a RemoveElement) apply(d *Document) error {
	if !d.Valid(a.Element) {
		return fmt.Errorf("%w: %d", ErrInvalidHandle, a.Element)
	}
	if a.Element == d.root {
		return errors.New("不能删除根元素")
	}
	parent := d.nodes[d.nodes[a.Element].parent]
	for i, child := range parent.children {
		if child == a.Element {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	d.detach(a.Element)
	return nil
}

func (a RemoveElement) describe(d *Document) string {
	return "remove " + d.Tag(a.Element)
}

func (a SetText) apply(d *Document) error {
	if !d.Valid(a.Element) {
		return fmt.Errorf("%w: %d", ErrInvalidHandle, a.Element)
	}
	d.nodes[a.Element].text = a.Text
	return nil
}

func (a SetText) describe(d *Document) string {
	return "text " + d.Tag(a.Element)
}

type command struct {
	description string
	before      []*node
	after       []*node
}

// Commit applies actions as one undoable transaction. If any action fails
// the document is left untouched and every failure is reported.
func (d *Document) Commit(actions ...Action) error {
	if len(actions) == 0 {
		return nil
	}
	before := cloneNodes(d.nodes)
	var result *multierror.Error
	descriptions := make([]string, 0, len(actions))
	for i, action := range actions {
		if action == nil {
			result = multierror.Append(result, fmt.Errorf("第 %d 个操作为空", i+1))
			continue
		}
		descriptions = append(descriptions, action.describe(d))
		if err := action.apply(d); err != nil {
			result = multierror.Append(result, fmt.Errorf("第 %d 个操作失败: %w", i+1, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		d.nodes = before
		d.reindex()
		return err
	}
	d.reindex()
	d.undoStack = append(d.undoStack, &command{
		description: strings.Join(descriptions, "; "),
		before:      before,
		after:       cloneNodes(d.nodes),
	})
	d.redoStack = nil
	d.modified = true
	return nil
}

// Undo reverts the last committed batch.
func (d *Document) Undo() error {
	if len(d.undoStack) == 0 {
		return ErrNothingToUndo
	}
	last := d.undoStack[len(d.undoStack)-1]
	d.undoStack = d.undoStack[:len(d.undoStack)-1]
	d.applySnapshot(last.before)
	d.redoStack = append(d.redoStack, last)
	d.modified = true
	return nil
}

// Redo reapplies the last undone batch.
func (d *Document) Redo() error {
	if len(d.redoStack) == 0 {
		return ErrNothingToRedo
	}
	last := d.redoStack[len(d.redoStack)-1]
	d.redoStack = d.redoStack[:len(d.redoStack)-1]
	d.applySnapshot(last.after)
	d.undoStack = append(d.undoStack, last)
	d.modified = true
	return nil
}

// History lists the descriptions of committed batches, oldest first.
func (d *Document) History() []string {
	out := make([]string, len(d.undoStack))
	for i, cmd := range d.undoStack {
		out[i] = cmd.description
	}
	return out
}

func (d *Document) applySnapshot(snapshot []*node) {
	d.nodes = cloneNodes(snapshot)
	d.reindex()
}

func sortedNames(attrs map[string]Value) []string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
