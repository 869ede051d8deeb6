package dialog

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"

	"scltemplates/src/field"
	"scltemplates/src/scl"
)

// AttributeSpec describes one editable attribute of an element.
type AttributeSpec struct {
	Name     string
	Required bool
	Pattern  string
	// Unique reserves the values used by siblings (or, for id, by every
	// element with the same tag).
	Unique bool
}

// ElementSchema lists the attributes a dialog asks for.
type ElementSchema struct {
	Tag        string
	Attributes []AttributeSpec
	Text       bool
}

const idMaxLength = 127

var schemas = map[string]ElementSchema{
	"LNodeType": {Tag: "LNodeType", Attributes: []AttributeSpec{
		{Name: "id", Required: true, Unique: true},
		{Name: "lnClass", Required: true, Pattern: `[A-Z]{4}`},
		{Name: "desc"},
	}},
	"DOType": {Tag: "DOType", Attributes: []AttributeSpec{
		{Name: "id", Required: true, Unique: true},
		{Name: "cdc", Required: true},
		{Name: "desc"},
	}},
	"DAType": {Tag: "DAType", Attributes: []AttributeSpec{
		{Name: "id", Required: true, Unique: true},
		{Name: "desc"},
	}},
	"EnumType": {Tag: "EnumType", Attributes: []AttributeSpec{
		{Name: "id", Required: true, Unique: true},
		{Name: "desc"},
	}},
	"DO": {Tag: "DO", Attributes: []AttributeSpec{
		{Name: "name", Required: true, Unique: true},
		{Name: "type", Required: true},
		{Name: "desc"},
		{Name: "transient", Pattern: `true|false`},
	}},
	"SDO": {Tag: "SDO", Attributes: []AttributeSpec{
		{Name: "name", Required: true, Unique: true},
		{Name: "type", Required: true},
		{Name: "desc"},
	}},
	"DA": {Tag: "DA", Attributes: []AttributeSpec{
		{Name: "name", Required: true, Unique: true},
		{Name: "bType", Required: true},
		{Name: "fc", Required: true},
		{Name: "type"},
		{Name: "desc"},
		{Name: "dchg", Pattern: `true|false`},
		{Name: "qchg", Pattern: `true|false`},
		{Name: "dupd", Pattern: `true|false`},
	}},
	"BDA": {Tag: "BDA", Attributes: []AttributeSpec{
		{Name: "name", Required: true, Unique: true},
		{Name: "bType", Required: true},
		{Name: "type"},
		{Name: "desc"},
	}},
	"EnumVal": {Tag: "EnumVal", Text: true, Attributes: []AttributeSpec{
		{Name: "ord", Required: true, Unique: true, Pattern: `-?[0-9]+`},
		{Name: "desc"},
	}},
}

// Schema returns the attribute schema of tag.
func Schema(tag string) (ElementSchema, bool) {
	schema, ok := schemas[tag]
	return schema, ok
}

// Tags lists every tag with a schema.
func Tags() []string {
	tags := make([]string, 0, len(schemas))
	for tag := range schemas {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Answers holds the values collected by a dialog. A Null value leaves an
// optional attribute unset (create) or removes it (edit).
type Answers struct {
	Attributes map[string]scl.Value
	Text       *string
}

// BuildCreate validates answers and returns the insertion of a new element.
func BuildCreate(doc *scl.Document, req CreateRequest, answers Answers) ([]scl.Action, error) {
	schema, ok := Schema(req.Tag)
	if !ok {
		return nil, fmt.Errorf("不支持创建元素: %s", req.Tag)
	}
	if !doc.Valid(req.Parent) {
		return nil, scl.ErrInvalidHandle
	}
	if err := validate(doc, schema, req.Parent, scl.NoHandle, answers); err != nil {
		return nil, err
	}
	action := scl.InsertElement{Parent: req.Parent, Tag: req.Tag}
	for _, spec := range schema.Attributes {
		if text, ok := answers.Attributes[spec.Name].Get(); ok {
			action.Attributes = append(action.Attributes, scl.Attribute{Name: spec.Name, Value: text})
		}
	}
	if schema.Text && answers.Text != nil {
		action.Text = *answers.Text
	}
	return []scl.Action{action}, nil
}

// BuildEdit validates answers and returns the changes against the element's
// current attributes. Unchanged answers produce no actions.
func BuildEdit(doc *scl.Document, req EditRequest, answers Answers) ([]scl.Action, error) {
	if !doc.Valid(req.Element) {
		return nil, scl.ErrInvalidHandle
	}
	schema, ok := Schema(doc.Tag(req.Element))
	if !ok {
		return nil, fmt.Errorf("不支持编辑元素: %s", doc.Tag(req.Element))
	}
	merged := Answers{Attributes: map[string]scl.Value{}, Text: answers.Text}
	for _, spec := range schema.Attributes {
		merged.Attributes[spec.Name] = doc.Value(req.Element, spec.Name)
	}
	for name, value := range answers.Attributes {
		merged.Attributes[name] = value
	}
	if err := validate(doc, schema, doc.Parent(req.Element), req.Element, merged); err != nil {
		return nil, err
	}
	changed := map[string]scl.Value{}
	for name, value := range answers.Attributes {
		if doc.Value(req.Element, name) != value {
			changed[name] = value
		}
	}
	var actions []scl.Action
	if len(changed) > 0 {
		actions = append(actions, scl.SetAttributes{Element: req.Element, Attributes: changed})
	}
	if schema.Text && answers.Text != nil && *answers.Text != doc.Text(req.Element) {
		actions = append(actions, scl.SetText{Element: req.Element, Text: *answers.Text})
	}
	return actions, nil
}

func validate(doc *scl.Document, schema ElementSchema, parent, self scl.Handle, answers Answers) error {
	var result *multierror.Error
	for _, spec := range schema.Attributes {
		cfg := field.Config{
			Label:    spec.Name,
			Nullable: !spec.Required,
			Required: spec.Required,
			Pattern:  spec.Pattern,
		}
		if spec.Name == "id" {
			cfg.MinLength = 1
			cfg.MaxLength = idMaxLength
		}
		if spec.Unique {
			cfg.ReservedValues = reserved(doc, schema.Tag, spec.Name, parent, self)
		}
		f, err := field.New(cfg)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		value, ok := answers.Attributes[spec.Name]
		if !ok {
			value = scl.Null
		}
		if value.IsNull() && spec.Required {
			value = scl.String("")
		}
		f.SetValue(value)
		if err := f.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func reserved(doc *scl.Document, tag, attr string, parent, self scl.Handle) []string {
	var candidates []scl.Handle
	if attr == "id" {
		candidates = doc.All(tag)
	} else {
		candidates = doc.Children(parent, tag)
	}
	var values []string
	for _, h := range candidates {
		if h == self {
			continue
		}
		if v, ok := doc.Attr(h, attr); ok {
			values = append(values, v)
		}
	}
	return values
}
