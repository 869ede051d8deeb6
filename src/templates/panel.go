package templates

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"scltemplates/src/field"
	"scltemplates/src/scl"
)

// Committer applies an action list as one atomic, undoable unit.
type Committer interface {
	Commit(actions ...scl.Action) error
}

// FieldSpec configures one tracked attribute of a panel.
type FieldSpec struct {
	Attr     string
	Nullable bool
	Required bool
}

var panelFields = map[Kind][]FieldSpec{
	LNodeType: {
		{Attr: "id", Required: true},
		{Attr: "desc", Nullable: true},
		{Attr: "lnClass", Required: true},
	},
	DOType: {
		{Attr: "id", Required: true},
		{Attr: "desc", Nullable: true},
		{Attr: "cdc", Required: true},
	},
	DAType: {
		{Attr: "id", Required: true},
		{Attr: "desc", Nullable: true},
	},
	EnumType: {
		{Attr: "id", Required: true},
		{Attr: "desc", Nullable: true},
	},
}

// Panel edits the attributes of the selected type definition of one kind.
type Panel struct {
	kind      Kind
	doc       *scl.Document
	committer Committer
	cascade   *Cascade
	logger    hclog.Logger

	selected scl.Handle
	fields   []*field.Field
	// loaded holds the attribute values the fields were last filled from.
	loaded   map[string]scl.Value
	dirty    bool
}

func newPanel(kind Kind, doc *scl.Document, committer Committer, cascade *Cascade, idMaxLength int, logger hclog.Logger) (*Panel, error) {
	p := &Panel{
		kind:      kind,
		doc:       doc,
		committer: committer,
		cascade:   cascade,
		logger:    logger,
		selected:  scl.NoHandle,
		loaded:    map[string]scl.Value{},
	}
	for _, spec := range panelFields[kind] {
		cfg := field.Config{
			Label:    spec.Attr,
			Nullable: spec.Nullable,
			Required: spec.Required,
		}
		if spec.Attr == "id" {
			cfg.MinLength = 1
			cfg.MaxLength = idMaxLength
		}
		f, err := field.New(cfg)
		if err != nil {
			return nil, err
		}
		f.OnInput(func(*field.Field) { p.Refresh() })
		p.fields = append(p.fields, f)
	}
	return p, nil
}

// Kind returns the kind edited by the panel.
func (p *Panel) Kind() Kind {
	return p.kind
}

// Selected returns the element being edited, NoHandle if none.
func (p *Panel) Selected() scl.Handle {
	return p.selected
}

// Fields returns the tracked fields in display order.
func (p *Panel) Fields() []*field.Field {
	return p.fields
}

// Field returns the field tracking attr, nil if untracked.
func (p *Panel) Field(attr string) *field.Field {
	for _, f := range p.fields {
		if f.Label() == attr {
			return f
		}
	}
	return nil
}

// Load fills the fields from h. Passing NoHandle clears the panel.
func (p *Panel) Load(h scl.Handle) {
	p.selected = h
	for _, f := range p.fields {
		p.fill(f)
	}
	p.reserveIDs()
	p.Refresh()
}

// Sync follows document changes without discarding edits: a field is
// refilled only when its attribute changed since it was loaded. The panel
// is cleared when the selected element is gone.
func (p *Panel) Sync() {
	if !p.doc.Valid(p.selected) || p.doc.Tag(p.selected) != string(p.kind) {
		p.Load(scl.NoHandle)
		return
	}
	for _, f := range p.fields {
		if p.doc.Value(p.selected, f.Label()) != p.loaded[f.Label()] {
			p.fill(f)
		}
	}
	p.reserveIDs()
	p.Refresh()
}

func (p *Panel) fill(f *field.Field) {
	live := p.doc.Value(p.selected, f.Label())
	p.loaded[f.Label()] = live
	if f.Config().Nullable {
		f.SetValue(live)
	} else {
		f.SetValue(scl.String(live.Or("")))
	}
}

func (p *Panel) reserveIDs() {
	if f := p.Field("id"); f != nil {
		f.SetReservedValues(p.otherIDs(p.selected))
	}
}

// Dirty reports whether saving would change the element.
func (p *Panel) Dirty() bool {
	return p.dirty
}

// Refresh recomputes the dirty flag: false when any field is invalid,
// otherwise true iff any field differs from the live attribute.
func (p *Panel) Refresh() {
	p.dirty = false
	if !p.doc.Valid(p.selected) {
		return
	}
	for _, f := range p.fields {
		if !f.CheckValidity() {
			return
		}
	}
	for _, f := range p.fields {
		if p.doc.Value(p.selected, f.Label()) != f.Value() {
			p.dirty = true
			return
		}
	}
}

// Invalid returns the validity errors of the tracked fields.
func (p *Panel) Invalid() []error {
	var errs []error
	for _, f := range p.fields {
		if err := f.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Changes returns the attributes whose field value differs from the element.
func (p *Panel) Changes() map[string]scl.Value {
	changed := map[string]scl.Value{}
	if !p.doc.Valid(p.selected) {
		return changed
	}
	for _, f := range p.fields {
		if p.doc.Value(p.selected, f.Label()) != f.Value() {
			changed[f.Label()] = f.Value()
		}
	}
	return changed
}

// Save commits the changes and their rename cascade. It reports false
// without committing when nothing is selected or the panel is not dirty.
func (p *Panel) Save() (bool, error) {
	if !p.doc.Valid(p.selected) || !p.dirty {
		return false, nil
	}
	actions := p.cascade.BuildRenameActions(p.doc, p.selected, p.Changes())
	if err := p.committer.Commit(actions...); err != nil {
		return false, fmt.Errorf("保存 %s 失败: %w", p.kind, err)
	}
	p.logger.Debug("saved type", "kind", p.kind, "actions", len(actions))
	p.Load(p.selected)
	return true, nil
}

func (p *Panel) otherIDs(self scl.Handle) []string {
	var ids []string
	for _, h := range p.doc.All(string(p.kind)) {
		if h == self {
			continue
		}
		if id, ok := p.doc.Attr(h, "id"); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
