package scl

// Value is an attribute value that may be absent. The zero Value is Null.
type Value struct {
	text  string
	valid bool
}

// Null is the "no value" marker, distinct from the empty string.
var Null = Value{}

// String wraps a concrete string.
func String(s string) Value {
	return Value{text: s, valid: true}
}

// IsNull reports whether v is the null marker.
func (v Value) IsNull() bool {
	return !v.valid
}

// Get returns the wrapped string and whether it is present.
func (v Value) Get() (string, bool) {
	return v.text, v.valid
}

// Or returns the wrapped string, or fallback for Null.
func (v Value) Or(fallback string) string {
	if !v.valid {
		return fallback
	}
	return v.text
}

// String renders the value for display; Null renders as "(null)".
func (v Value) String() string {
	if !v.valid {
		return "(null)"
	}
	return v.text
}

// Equal reports whether v and other hold the same value.
func (v Value) Equal(other Value) bool {
	return v == other
}
