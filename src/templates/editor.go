package templates

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"scltemplates/src/dialog"
	"scltemplates/src/scl"
)

// DefaultIDMaxLength bounds type definition ids.
const DefaultIDMaxLength = 127

// Options configures an Editor.
type Options struct {
	// Committer applies edits; defaults to the document itself.
	Committer Committer
	Dialog    dialog.Dialog
	// StrictEnumCascade restricts DAType and EnumType renames to
	// references with the matching bType.
	StrictEnumCascade bool
	IDMaxLength       int
	Logger            hclog.Logger
}

// Item is one row of a type or child list.
type Item struct {
	Element        scl.Handle
	Headline       string
	SupportingText string
	// References reports whether the element points at another type.
	References bool
}

// Editor is the DataTypeTemplates plugin: one list and one panel per kind.
type Editor struct {
	doc       *scl.Document
	committer Committer
	dialog    dialog.Dialog
	cascade   *Cascade
	logger    hclog.Logger

	panels map[Kind]*Panel
}

// NewEditor builds an editor over doc.
func NewEditor(doc *scl.Document, opts Options) (*Editor, error) {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	committer := opts.Committer
	if committer == nil {
		committer = doc
	}
	idMax := opts.IDMaxLength
	if idMax <= 0 {
		idMax = DefaultIDMaxLength
	}
	e := &Editor{
		doc:       doc,
		committer: committer,
		dialog:    opts.Dialog,
		cascade:   NewCascade(opts.StrictEnumCascade, logger.Named("cascade")),
		logger:    logger,
		panels:    map[Kind]*Panel{},
	}
	for _, kind := range Kinds {
		panel, err := newPanel(kind, doc, committer, e.cascade, idMax, logger)
		if err != nil {
			return nil, err
		}
		e.panels[kind] = panel
	}
	return e, nil
}

// Document returns the edited document.
func (e *Editor) Document() *scl.Document {
	return e.doc
}

// Cascade returns the rename cascade in use.
func (e *Editor) Cascade() *Cascade {
	return e.cascade
}

// Panel returns the edit panel of kind.
func (e *Editor) Panel(kind Kind) *Panel {
	return e.panels[kind]
}

// DataTypeTemplates returns the DataTypeTemplates element, NoHandle if the
// document has none.
func (e *Editor) DataTypeTemplates() scl.Handle {
	return e.doc.Child(e.doc.Root(), "DataTypeTemplates")
}

// Items lists the type definitions of kind.
func (e *Editor) Items(kind Kind) []Item {
	var items []Item
	for _, h := range e.doc.Children(e.DataTypeTemplates(), string(kind)) {
		id, _ := e.doc.Attr(h, "id")
		item := Item{Element: h, Headline: id}
		switch kind {
		case LNodeType:
			item.SupportingText, _ = e.doc.Attr(h, "lnClass")
		case DOType:
			item.SupportingText, _ = e.doc.Attr(h, "cdc")
		}
		items = append(items, item)
	}
	return items
}

// Children lists the children of the selected type definition of kind.
func (e *Editor) Children(kind Kind) []Item {
	var items []Item
	for _, h := range e.doc.Children(e.Selected(kind), ChildTags(kind)...) {
		item := Item{Element: h}
		switch e.doc.Tag(h) {
		case "EnumVal":
			item.Headline = e.doc.Text(h)
			item.SupportingText, _ = e.doc.Attr(h, "ord")
		case "DO":
			item.Headline, _ = e.doc.Attr(h, "name")
			item.References = true
		default:
			item.Headline, _ = e.doc.Attr(h, "name")
			_, item.References = e.doc.Attr(h, "type")
		}
		items = append(items, item)
	}
	return items
}

// Selected returns the selected element of kind, NoHandle when the list is
// shown instead.
func (e *Editor) Selected(kind Kind) scl.Handle {
	panel, ok := e.panels[kind]
	if !ok {
		return scl.NoHandle
	}
	return panel.Selected()
}

// Select opens h in the panel of its kind.
func (e *Editor) Select(h scl.Handle) error {
	kind, err := ParseKind(e.doc.Tag(h))
	if err != nil {
		return err
	}
	e.panels[kind].Load(h)
	return nil
}

// SelectByID selects the type definition of kind with the given id.
func (e *Editor) SelectByID(kind Kind, id string) error {
	if _, ok := e.panels[kind]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	h, ok := e.doc.LookupID(e.DataTypeTemplates(), string(kind), id)
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	e.panels[kind].Load(h)
	return nil
}

// Deselect closes the panel of kind and shows its list again.
func (e *Editor) Deselect(kind Kind) {
	if panel, ok := e.panels[kind]; ok {
		panel.Load(scl.NoHandle)
	}
}

// SelectReferenced follows the type reference of a DO, SDO, DA or BDA and
// selects the referenced definition. It reports whether the reference
// resolved; unresolved references change nothing.
func (e *Editor) SelectReferenced(h scl.Handle) bool {
	typeID, _ := e.doc.Attr(h, "type")
	scope := e.doc.Closest(h, "DataTypeTemplates")
	switch e.doc.Tag(h) {
	case "DO", "SDO":
		doType, ok := e.doc.LookupID(scope, string(DOType), typeID)
		if !ok {
			return false
		}
		e.panels[DOType].Load(doType)
		e.Deselect(DAType)
		e.Deselect(EnumType)
		return true
	case "DA", "BDA":
		bType, _ := e.doc.Attr(h, "bType")
		switch bType {
		case "Enum":
			enumType, ok := e.doc.LookupID(scope, string(EnumType), typeID)
			if !ok {
				return false
			}
			e.panels[EnumType].Load(enumType)
			if e.doc.Tag(h) == "DA" {
				e.Deselect(DAType)
			}
			return true
		case "Struct":
			daType, ok := e.doc.LookupID(scope, string(DAType), typeID)
			if !ok {
				return false
			}
			e.panels[DAType].Load(daType)
			e.Deselect(EnumType)
			return true
		}
	}
	return false
}

// CreateType asks the dialog for a new type definition of kind under
// DataTypeTemplates and commits the result. It reports whether anything was
// committed.
func (e *Editor) CreateType(ctx context.Context, kind Kind) (bool, error) {
	if _, ok := e.panels[kind]; !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	dtt := e.DataTypeTemplates()
	if !e.doc.Valid(dtt) {
		return false, nil
	}
	return e.create(ctx, dialog.CreateRequest{Parent: dtt, Tag: string(kind)})
}

// CreateChild asks the dialog for a new child of the selected definition.
func (e *Editor) CreateChild(ctx context.Context, kind Kind, tag string) (bool, error) {
	selected := e.Selected(kind)
	if !e.doc.Valid(selected) {
		return false, nil
	}
	allowed := false
	for _, t := range ChildTags(kind) {
		if t == tag {
			allowed = true
		}
	}
	if !allowed {
		return false, fmt.Errorf("%s 不能包含 %s", kind, tag)
	}
	return e.create(ctx, dialog.CreateRequest{Parent: selected, Tag: tag})
}

// EditChild asks the dialog for changes to h and commits them.
func (e *Editor) EditChild(ctx context.Context, h scl.Handle) (bool, error) {
	if !e.doc.Valid(h) {
		return false, nil
	}
	if e.dialog == nil {
		return false, fmt.Errorf("未配置编辑对话框")
	}
	actions, err := e.dialog.Edit(ctx, e.doc, dialog.EditRequest{Element: h})
	if err != nil {
		return false, err
	}
	return e.commit(actions)
}

// Refresh syncs every panel after the document changed underneath it, as
// after a dialog commit, undo or redo. Selections whose element disappeared
// are cleared; unsaved edits survive unless their attribute changed.
func (e *Editor) Refresh() {
	for _, kind := range Kinds {
		e.panels[kind].Sync()
	}
}

func (e *Editor) create(ctx context.Context, req dialog.CreateRequest) (bool, error) {
	if e.dialog == nil {
		return false, fmt.Errorf("未配置编辑对话框")
	}
	actions, err := e.dialog.Create(ctx, e.doc, req)
	if err != nil {
		return false, err
	}
	return e.commit(actions)
}

func (e *Editor) commit(actions []scl.Action) (bool, error) {
	if len(actions) == 0 {
		return false, nil
	}
	if err := e.committer.Commit(actions...); err != nil {
		return false, err
	}
	e.Refresh()
	return true, nil
}
