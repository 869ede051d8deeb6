package field

import "scltemplates/src/scl"

// DefaultMultipliers is used when a Config lists no candidates: "no
// multiplier" followed by the empty multiplier.
var DefaultMultipliers = []scl.Value{scl.Null, scl.String("")}

// Config holds the static settings of a field.
type Config struct {
	Label        string
	Nullable     bool
	DefaultValue string

	// Unit is the SI unit; multipliers are only selectable when it is set.
	Unit        string
	Multipliers []scl.Value

	ReservedValues []string
	Required       bool
	MinLength      int
	MaxLength      int
	Pattern        string

	// Disabled disables the whole component independently of null-ness.
	Disabled bool
}

func (c Config) multipliers() []scl.Value {
	if c.Multipliers == nil {
		return DefaultMultipliers
	}
	return c.Multipliers
}

func (c Config) multiplierIndex(m scl.Value) int {
	for i, candidate := range c.multipliers() {
		if candidate == m {
			return i
		}
	}
	return -1
}

// State is the mutable part of a field. All transitions are pure: they
// return the next state and never touch the receiver.
type State struct {
	Raw    string
	IsNull bool
	// Nulled keeps the raw value from before entering null.
	Nulled          *string
	MultiplierIndex int
}

// EnterNull saves Raw, shows the default value and marks the state null.
// No-op when the field is not nullable or already null.
func (s State) EnterNull(cfg Config) State {
	if !cfg.Nullable || s.IsNull {
		return s
	}
	backup := s.Raw
	s.Nulled = &backup
	s.Raw = cfg.DefaultValue
	s.IsNull = true
	return s
}

// ExitNull restores the saved raw value. No-op when not null.
func (s State) ExitNull() State {
	if !s.IsNull {
		return s
	}
	if s.Nulled != nil {
		s.Raw = *s.Nulled
	}
	s.Nulled = nil
	s.IsNull = false
	return s
}

// WithValue applies setValue semantics.
func (s State) WithValue(cfg Config, v scl.Value) State {
	text, ok := v.Get()
	if !ok {
		return s.EnterNull(cfg)
	}
	s = s.ExitNull()
	s.Raw = text
	return s
}

// Value returns Null iff the field is nullable and null.
func (s State) Value(cfg Config) scl.Value {
	if cfg.Nullable && s.IsNull {
		return scl.Null
	}
	return scl.String(s.Raw)
}

// WithMultiplier selects m if it is one of the configured candidates.
func (s State) WithMultiplier(cfg Config, m scl.Value) (State, bool) {
	idx := cfg.multiplierIndex(m)
	if idx < 0 {
		return s, false
	}
	s.MultiplierIndex = idx
	return s, true
}

// Multiplier resolves the selected multiplier; Null without a unit. A Null
// candidate falls back to the first candidate.
func (s State) Multiplier(cfg Config) scl.Value {
	if cfg.Unit == "" {
		return scl.Null
	}
	candidates := cfg.multipliers()
	if s.MultiplierIndex >= 0 && s.MultiplierIndex < len(candidates) {
		if m := candidates[s.MultiplierIndex]; !m.IsNull() {
			return m
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return scl.Null
}
