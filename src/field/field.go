package field

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"scltemplates/src/scl"
)

// Reason classifies a validation failure.
type Reason string

const (
	ReasonDuplicate Reason = "textfield.unique"
	ReasonRequired  Reason = "textfield.required"
	ReasonTooShort  Reason = "textfield.tooShort"
	ReasonTooLong   Reason = "textfield.tooLong"
	ReasonPattern   Reason = "textfield.patternMismatch"
)

// ValidityError reports why a field value is invalid.
type ValidityError struct {
	Label  string
	Value  string
	Reason Reason
}

func (e *ValidityError) Error() string {
	switch e.Reason {
	case ReasonDuplicate:
		return fmt.Sprintf("%s: 值 %q 已被占用", e.Label, e.Value)
	case ReasonRequired:
		return fmt.Sprintf("%s: 不能为空", e.Label)
	case ReasonTooShort:
		return fmt.Sprintf("%s: 值 %q 过短", e.Label, e.Value)
	case ReasonTooLong:
		return fmt.Sprintf("%s: 值 %q 过长", e.Label, e.Value)
	default:
		return fmt.Sprintf("%s: 值 %q 格式不正确", e.Label, e.Value)
	}
}

// Field is a text input whose value may be null and which may carry an SI
// multiplier for its unit.
type Field struct {
	cfg       Config
	state     State
	pattern   *regexp.Regexp
	validity  string
	listeners []func(*Field)
}

// New builds a field holding an empty, non-null value.
func New(cfg Config) (*Field, error) {
	f := &Field{cfg: cfg}
	if cfg.Pattern != "" {
		re, err := regexp.Compile("^(?:" + cfg.Pattern + ")$")
		if err != nil {
			return nil, fmt.Errorf("字段 %s 的 pattern 无效: %w", cfg.Label, err)
		}
		f.pattern = re
	}
	return f, nil
}

// Label returns the configured label, which doubles as the attribute name.
func (f *Field) Label() string {
	return f.cfg.Label
}

// Config returns the field configuration.
func (f *Field) Config() Config {
	return f.cfg
}

// State returns a copy of the current state.
func (f *Field) State() State {
	return f.state
}

// OnInput registers a listener notified after user-driven changes.
func (f *Field) OnInput(fn func(*Field)) {
	f.listeners = append(f.listeners, fn)
}

// Value returns scl.Null iff the field is nullable and null.
func (f *Field) Value() scl.Value {
	return f.state.Value(f.cfg)
}

// Raw returns the displayed text, which is the default value while null.
func (f *Field) Raw() string {
	return f.state.Raw
}

// IsNull reports whether the field currently holds null.
func (f *Field) IsNull() bool {
	return f.cfg.Nullable && f.state.IsNull
}

// SetValue loads a value without notifying listeners.
func (f *Field) SetValue(v scl.Value) {
	f.state = f.state.WithValue(f.cfg, v)
}

// Type replaces the raw text as a user would. Ignored while disabled.
func (f *Field) Type(raw string) bool {
	if f.Disabled() {
		return false
	}
	f.state.Raw = raw
	f.notify()
	return true
}

// ToggleNull flips the null switch. Ignored when the field is not nullable
// or the component is disabled.
func (f *Field) ToggleNull(null bool) bool {
	if !f.cfg.Nullable || f.SwitchDisabled() {
		return false
	}
	if null {
		f.state = f.state.EnterNull(f.cfg)
	} else {
		f.state = f.state.ExitNull()
	}
	f.notify()
	return true
}

// SetMultiplier selects m when it is a configured candidate; otherwise the
// previous selection is kept.
func (f *Field) SetMultiplier(m scl.Value) bool {
	next, ok := f.state.WithMultiplier(f.cfg, m)
	if !ok {
		return false
	}
	f.state = next
	f.notify()
	return true
}

// SelectMultiplier selects the candidate at index, as the multiplier menu does.
func (f *Field) SelectMultiplier(index int) bool {
	candidates := f.Multipliers()
	if index < 0 || index >= len(candidates) {
		return false
	}
	return f.SetMultiplier(candidates[index])
}

// Multiplier returns the selected multiplier, scl.Null without a unit.
func (f *Field) Multiplier() scl.Value {
	return f.state.Multiplier(f.cfg)
}

// Multipliers returns the candidate list.
func (f *Field) Multipliers() []scl.Value {
	return f.cfg.multipliers()
}

// Suffix is the multiplier followed by the unit.
func (f *Field) Suffix() string {
	return f.Multiplier().Or("") + f.cfg.Unit
}

// SetDisabled sets the external disabled flag.
func (f *Field) SetDisabled(disabled bool) {
	f.cfg.Disabled = disabled
}

// Disabled reports whether the input accepts typing. Null-ness and the
// external flag gate it independently.
func (f *Field) Disabled() bool {
	return f.cfg.Disabled || f.IsNull()
}

// SwitchDisabled reports whether the null switch is locked.
func (f *Field) SwitchDisabled() bool {
	return f.cfg.Disabled
}

// MultiplierSelectable reports whether the multiplier menu is usable.
func (f *Field) MultiplierSelectable() bool {
	return f.cfg.Unit != "" && len(f.Multipliers()) > 0 && !f.IsNull() && !f.cfg.Disabled
}

// SetReservedValues replaces the values that make the field invalid.
func (f *Field) SetReservedValues(values []string) {
	f.cfg.ReservedValues = append([]string(nil), values...)
}

// Validate returns a *ValidityError when the current value is invalid.
func (f *Field) Validate() error {
	raw := f.state.Raw
	for _, reserved := range f.cfg.ReservedValues {
		if reserved == raw {
			return &ValidityError{Label: f.cfg.Label, Value: raw, Reason: ReasonDuplicate}
		}
	}
	if f.Disabled() {
		return nil
	}
	if raw == "" {
		if f.cfg.Required {
			return &ValidityError{Label: f.cfg.Label, Value: raw, Reason: ReasonRequired}
		}
		return nil
	}
	length := utf8.RuneCountInString(raw)
	if f.cfg.MinLength > 0 && length < f.cfg.MinLength {
		return &ValidityError{Label: f.cfg.Label, Value: raw, Reason: ReasonTooShort}
	}
	if f.cfg.MaxLength > 0 && length > f.cfg.MaxLength {
		return &ValidityError{Label: f.cfg.Label, Value: raw, Reason: ReasonTooLong}
	}
	if f.pattern != nil && !f.pattern.MatchString(raw) {
		return &ValidityError{Label: f.cfg.Label, Value: raw, Reason: ReasonPattern}
	}
	return nil
}

// CheckValidity validates the value and records the validation message.
func (f *Field) CheckValidity() bool {
	err := f.Validate()
	if err == nil {
		f.validity = ""
		return true
	}
	if verr, ok := err.(*ValidityError); ok {
		f.validity = string(verr.Reason)
	}
	return false
}

// ValidationMessage returns the message of the last failed CheckValidity.
func (f *Field) ValidationMessage() string {
	return f.validity
}

func (f *Field) notify() {
	for _, fn := range f.listeners {
		fn(f)
	}
}
