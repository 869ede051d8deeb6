package suggest

import (
	"scltemplates/src/scl"
	"scltemplates/src/templates"
)

// Issue is a reference to a type definition that does not exist.
type Issue struct {
	Element     scl.Handle
	Attr        string
	Value       string
	Kind        templates.Kind
	Suggestions []string
}

// Service checks the type references of a document.
type Service struct {
	distance int
}

// NewService builds a reference checker. A non-positive distance selects
// DefaultDistance.
func NewService(distance int) *Service {
	return &Service{distance: distance}
}

type reference struct {
	tags []string
	attr string
	kind func(doc *scl.Document, h scl.Handle) (templates.Kind, bool)
}

func always(kind templates.Kind) func(*scl.Document, scl.Handle) (templates.Kind, bool) {
	return func(*scl.Document, scl.Handle) (templates.Kind, bool) { return kind, true }
}

func byBType(doc *scl.Document, h scl.Handle) (templates.Kind, bool) {
	bType, _ := doc.Attr(h, "bType")
	switch bType {
	case "Struct":
		return templates.DAType, true
	case "Enum":
		return templates.EnumType, true
	}
	return "", false
}

var references = []reference{
	{tags: []string{"LN0", "LN"}, attr: "lnType", kind: always(templates.LNodeType)},
	{tags: []string{"DO", "SDO"}, attr: "type", kind: always(templates.DOType)},
	{tags: []string{"DA", "BDA"}, attr: "type", kind: byBType},
}

// CheckReferences reports, in document order per reference group, every
// lnType or type attribute that names no definition under DataTypeTemplates.
func (s *Service) CheckReferences(doc *scl.Document) []Issue {
	if s == nil || doc == nil {
		return nil
	}
	indexes := map[templates.Kind]*Index{}
	index := func(kind templates.Kind) *Index {
		if _, ok := indexes[kind]; !ok {
			indexes[kind] = s.IDs(doc, kind)
		}
		return indexes[kind]
	}

	var issues []Issue
	for _, ref := range references {
		for _, h := range doc.All(ref.tags...) {
			value, ok := doc.Attr(h, ref.attr)
			if !ok {
				continue
			}
			kind, ok := ref.kind(doc, h)
			if !ok {
				continue
			}
			valid, suggestions := index(kind).Check(value)
			if valid {
				continue
			}
			issues = append(issues, Issue{
				Element:     h,
				Attr:        ref.attr,
				Value:       value,
				Kind:        kind,
				Suggestions: suggestions,
			})
		}
	}
	return issues
}

// IDs returns a trained index of the type definitions of kind.
func (s *Service) IDs(doc *scl.Document, kind templates.Kind) *Index {
	dtt := doc.Child(doc.Root(), "DataTypeTemplates")
	var ids []string
	for _, h := range doc.Children(dtt, string(kind)) {
		if id, ok := doc.Attr(h, "id"); ok {
			ids = append(ids, id)
		}
	}
	distance := 0
	if s != nil {
		distance = s.distance
	}
	return NewIndex(ids, distance)
}
