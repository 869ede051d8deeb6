package field_test

import (
	"errors"
	"testing"

	"scltemplates/src/field"
	"scltemplates/src/scl"
)

func newField(t *testing.T, cfg field.Config) *field.Field {
	t.Helper()
	f, err := field.New(cfg)
	if err != nil {
		t.Fatalf("new field failed: %v", err)
	}
	return f
}

func TestNullRoundTripKeepsExplicitValue(t *testing.T) {
	f := newField(t, field.Config{Label: "desc", Nullable: true})
	f.SetValue(scl.Null)
	if !f.Value().IsNull() {
		t.Fatalf("expected null after SetValue(Null)")
	}
	f.SetValue(scl.String("x"))
	if got := f.Value(); got != scl.String("x") {
		t.Fatalf("expected x, got %s", got)
	}
}

func TestNullIsIdempotentAndRestoresBackup(t *testing.T) {
	f := newField(t, field.Config{Label: "desc", Nullable: true, DefaultValue: "placeholder"})
	f.SetValue(scl.String("a"))
	f.SetValue(scl.Null)
	f.SetValue(scl.Null)
	if f.Raw() != "placeholder" {
		t.Fatalf("null field should display default value, got %q", f.Raw())
	}
	if !f.Disabled() {
		t.Fatalf("null field should be disabled")
	}
	if !f.ToggleNull(false) {
		t.Fatalf("toggle should be accepted")
	}
	if got := f.Value(); got != scl.String("a") {
		t.Fatalf("expected restored value a, got %s", got)
	}
	if f.State().Nulled != nil {
		t.Fatalf("backup should be cleared after leaving null")
	}
	if f.Disabled() {
		t.Fatalf("field should be enabled after leaving null")
	}
}

func TestNonNullableIgnoresNull(t *testing.T) {
	f := newField(t, field.Config{Label: "id"})
	f.SetValue(scl.String("LT1"))
	f.SetValue(scl.Null)
	if got := f.Value(); got != scl.String("LT1") {
		t.Fatalf("non-nullable field changed: %s", got)
	}
	if f.ToggleNull(true) {
		t.Fatalf("toggle should be rejected for non-nullable fields")
	}
	if f.Value().IsNull() {
		t.Fatalf("non-nullable field must never be null")
	}
}

func TestMultiplierResolution(t *testing.T) {
	noUnit := newField(t, field.Config{Label: "v", Multipliers: []scl.Value{scl.Null, scl.String("k")}})
	noUnit.SetMultiplier(scl.String("k"))
	if !noUnit.Multiplier().IsNull() {
		t.Fatalf("multiplier without unit should be null")
	}

	f := newField(t, field.Config{
		Label:       "v",
		Unit:        "A",
		Multipliers: []scl.Value{scl.Null, scl.String("k"), scl.String("M")},
	})
	if !f.Multiplier().IsNull() {
		t.Fatalf("default multiplier should be null")
	}
	if f.Suffix() != "A" {
		t.Fatalf("unexpected suffix %q", f.Suffix())
	}
	if !f.SetMultiplier(scl.String("k")) {
		t.Fatalf("k should be accepted")
	}
	if got := f.Multiplier(); got != scl.String("k") {
		t.Fatalf("expected k, got %s", got)
	}
	if f.SetMultiplier(scl.String("bogus")) {
		t.Fatalf("bogus should be rejected")
	}
	if got := f.Multiplier(); got != scl.String("k") {
		t.Fatalf("rejected multiplier changed selection: %s", got)
	}
	if f.Suffix() != "kA" {
		t.Fatalf("unexpected suffix %q", f.Suffix())
	}
	if !f.SelectMultiplier(2) || f.Multiplier() != scl.String("M") {
		t.Fatalf("menu selection failed")
	}
	if f.SelectMultiplier(7) {
		t.Fatalf("out of range menu selection should be rejected")
	}
}

func TestReservedValues(t *testing.T) {
	f := newField(t, field.Config{Label: "id", Required: true, ReservedValues: []string{"ID1", "ID2"}})
	f.SetValue(scl.String("ID1"))
	if f.CheckValidity() {
		t.Fatalf("reserved value should be invalid")
	}
	if f.ValidationMessage() != string(field.ReasonDuplicate) {
		t.Fatalf("expected duplicate message, got %q", f.ValidationMessage())
	}
	var verr *field.ValidityError
	if err := f.Validate(); !errors.As(err, &verr) || verr.Reason != field.ReasonDuplicate {
		t.Fatalf("expected duplicate validity error, got %v", err)
	}
	f.SetValue(scl.String("ID3"))
	if !f.CheckValidity() {
		t.Fatalf("ID3 should be valid: %v", f.Validate())
	}
	if f.ValidationMessage() != "" {
		t.Fatalf("message should be cleared")
	}
}

func TestStandardConstraints(t *testing.T) {
	f := newField(t, field.Config{Label: "id", Required: true, MinLength: 2, MaxLength: 4, Pattern: `[A-Z0-9]+`})
	cases := []struct {
		raw    string
		reason field.Reason
	}{
		{"", field.ReasonRequired},
		{"A", field.ReasonTooShort},
		{"ABCDE", field.ReasonTooLong},
		{"ab", field.ReasonPattern},
		{"AB1", ""},
	}
	for _, tc := range cases {
		f.SetValue(scl.String(tc.raw))
		err := f.Validate()
		if tc.reason == "" {
			if err != nil {
				t.Fatalf("%q should be valid: %v", tc.raw, err)
			}
			continue
		}
		var verr *field.ValidityError
		if !errors.As(err, &verr) || verr.Reason != tc.reason {
			t.Fatalf("%q: expected %s, got %v", tc.raw, tc.reason, err)
		}
	}
}

func TestInvalidPattern(t *testing.T) {
	if _, err := field.New(field.Config{Label: "id", Pattern: "("}); err == nil {
		t.Fatalf("expected pattern error")
	}
}

func TestInputNotifications(t *testing.T) {
	f := newField(t, field.Config{Label: "desc", Nullable: true, Unit: "V"})
	count := 0
	f.OnInput(func(*field.Field) { count++ })

	f.SetValue(scl.String("quiet"))
	if count != 0 {
		t.Fatalf("programmatic SetValue should not notify")
	}
	f.Type("typed")
	f.ToggleNull(true)
	f.SetMultiplier(scl.String(""))
	f.SetMultiplier(scl.String("bogus"))
	if count != 3 {
		t.Fatalf("expected 3 notifications, got %d", count)
	}
	if f.Type("ignored") {
		t.Fatalf("typing into a null field should be ignored")
	}
}

func TestExternalDisableIsIndependent(t *testing.T) {
	f := newField(t, field.Config{Label: "desc", Nullable: true, Disabled: true})
	if f.ToggleNull(true) {
		t.Fatalf("switch should be locked by external disable")
	}
	f.SetDisabled(false)
	f.ToggleNull(true)
	f.SetDisabled(true)
	f.ToggleNull(false)
	if !f.IsNull() {
		t.Fatalf("external disable should block leaving null")
	}
	f.SetDisabled(false)
	if !f.Disabled() {
		t.Fatalf("null keeps the field disabled after external enable")
	}
	f.ToggleNull(false)
	if f.Disabled() {
		t.Fatalf("field should be enabled when neither condition holds")
	}
}
