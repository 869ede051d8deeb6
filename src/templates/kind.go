package templates

import (
	"errors"
	"fmt"
	"strings"
)

// Kind enumerates the type definition elements of DataTypeTemplates.
type Kind string

const (
	// LNodeType is the logical node type template.
	LNodeType Kind = "LNodeType"
	// DOType is the data object type template.
	DOType Kind = "DOType"
	// DAType is the data attribute type template.
	DAType Kind = "DAType"
	// EnumType is the enumeration type template.
	EnumType Kind = "EnumType"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{LNodeType, DOType, DAType, EnumType}

var (
	// ErrUnknownKind is returned for tags that are not type definitions.
	ErrUnknownKind = errors.New("未知的类型")
	// ErrNotFound is returned when a type definition cannot be located.
	ErrNotFound = errors.New("类型不存在")
)

// ParseKind resolves a kind name case-insensitively.
func ParseKind(name string) (Kind, error) {
	for _, kind := range Kinds {
		if strings.EqualFold(string(kind), name) {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKind, name)
}

// childTags lists the child elements each kind manages.
var childTags = map[Kind][]string{
	LNodeType: {"DO"},
	DOType:    {"SDO", "DA"},
	DAType:    {"BDA"},
	EnumType:  {"EnumVal"},
}

// ChildTags returns the child element tags of kind.
func ChildTags(kind Kind) []string {
	return childTags[kind]
}
