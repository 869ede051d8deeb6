package templates

import (
	"github.com/hashicorp/go-hclog"

	"scltemplates/src/scl"
)

// ReferenceRule selects elements that reference a type definition id.
type ReferenceRule struct {
	// Scope is the required parent tag; empty matches anywhere.
	Scope string
	Tag   string
	Attr  string
	// BType is the required bType attribute; empty matches any.
	BType string
}

// RenameTarget describes one id rename.
type RenameTarget struct {
	Element scl.Handle
	OldID   string
	NewID   string
}

// legacyRules match DA/BDA references by type alone, so EnumType renames
// follow the DAType rules regardless of bType.
var legacyRules = map[Kind][]ReferenceRule{
	LNodeType: {
		{Tag: "LN0", Attr: "lnType"},
		{Tag: "LN", Attr: "lnType"},
	},
	DOType: {
		{Scope: "LNodeType", Tag: "DO", Attr: "type"},
		{Scope: "DOType", Tag: "SDO", Attr: "type"},
	},
	DAType: {
		{Scope: "DOType", Tag: "DA", Attr: "type"},
		{Scope: "DAType", Tag: "BDA", Attr: "type"},
	},
	EnumType: {
		{Scope: "DOType", Tag: "DA", Attr: "type"},
		{Scope: "DAType", Tag: "BDA", Attr: "type"},
	},
}

var strictRules = map[Kind][]ReferenceRule{
	LNodeType: legacyRules[LNodeType],
	DOType:    legacyRules[DOType],
	DAType: {
		{Scope: "DOType", Tag: "DA", Attr: "type", BType: "Struct"},
		{Scope: "DAType", Tag: "BDA", Attr: "type", BType: "Struct"},
	},
	EnumType: {
		{Scope: "DOType", Tag: "DA", Attr: "type", BType: "Enum"},
		{Scope: "DAType", Tag: "BDA", Attr: "type", BType: "Enum"},
	},
}

// Cascade builds the dependent updates of an id rename from a rule table.
type Cascade struct {
	rules  map[Kind][]ReferenceRule
	logger hclog.Logger
}

// NewCascade returns a cascade using the legacy rules, or the bType-aware
// rules when strict is set.
func NewCascade(strict bool, logger hclog.Logger) *Cascade {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	rules := legacyRules
	if strict {
		rules = strictRules
	}
	return &Cascade{rules: rules, logger: logger}
}

// Rules returns the rules applied to kind.
func (c *Cascade) Rules(kind Kind) []ReferenceRule {
	return c.rules[kind]
}

// References returns the elements that reference id as a kind, in
// document order.
func (c *Cascade) References(doc *scl.Document, kind Kind, id string) []scl.Handle {
	rules := c.rules[kind]
	if len(rules) == 0 {
		return nil
	}
	tags := make([]string, 0, len(rules))
	seen := map[string]bool{}
	for _, rule := range rules {
		if !seen[rule.Tag] {
			seen[rule.Tag] = true
			tags = append(tags, rule.Tag)
		}
	}
	var out []scl.Handle
	for _, h := range doc.All(tags...) {
		if _, ok := matchRule(doc, h, rules, id); ok {
			out = append(out, h)
		}
	}
	return out
}

// BuildRenameActions returns the edit of element followed by one update per
// element that referenced its previous id. An invalid element yields nothing.
func (c *Cascade) BuildRenameActions(doc *scl.Document, element scl.Handle, changed map[string]scl.Value) []scl.Action {
	if !doc.Valid(element) {
		return nil
	}
	actions := []scl.Action{scl.SetAttributes{Element: element, Attributes: changed}}

	newID, ok := changed["id"].Get()
	if !ok {
		return actions
	}
	oldID, hasID := doc.Attr(element, "id")
	if !hasID || newID == oldID {
		return actions
	}
	target := RenameTarget{Element: element, OldID: oldID, NewID: newID}
	kind := Kind(doc.Tag(element))
	rules := c.rules[kind]
	for _, h := range c.References(doc, kind, target.OldID) {
		rule, _ := matchRule(doc, h, rules, target.OldID)
		actions = append(actions, scl.SetAttributes{
			Element:    h,
			Attributes: map[string]scl.Value{rule.Attr: scl.String(target.NewID)},
		})
	}
	c.logger.Debug("rename cascade", "kind", kind, "old", target.OldID, "new", target.NewID, "updates", len(actions)-1)
	return actions
}

var defaultCascade = NewCascade(false, nil)

// BuildRenameActions applies the legacy rule table.
func BuildRenameActions(doc *scl.Document, element scl.Handle, changed map[string]scl.Value) []scl.Action {
	return defaultCascade.BuildRenameActions(doc, element, changed)
}

func matchRule(doc *scl.Document, h scl.Handle, rules []ReferenceRule, id string) (ReferenceRule, bool) {
	tag := doc.Tag(h)
	for _, rule := range rules {
		if rule.Tag != tag {
			continue
		}
		if rule.Scope != "" && doc.Tag(doc.Parent(h)) != rule.Scope {
			continue
		}
		if rule.BType != "" {
			if bType, _ := doc.Attr(h, "bType"); bType != rule.BType {
				continue
			}
		}
		if value, ok := doc.Attr(h, rule.Attr); ok && value == id {
			return rule, true
		}
	}
	return ReferenceRule{}, false
}
