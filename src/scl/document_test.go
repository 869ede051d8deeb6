package scl_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"scltemplates/src/scl"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<SCL xmlns="http://www.iec.ch/61850/2003/SCL" xmlns:ens1="http://example.com/ens1" version="2007">
    <Substation ens1:foo="a" name="A1" desc="test substation"/>
    <IED name="IED1">
        <LDevice inst="LD1">
            <LN0 lnClass="LLN0" inst="" lnType="LT1"/>
            <LN lnClass="XCBR" inst="1" lnType="LT1"/>
        </LDevice>
    </IED>
    <DataTypeTemplates>
        <LNodeType id="LT1" lnClass="XCBR">
            <DO name="Pos" type="DOT1"/>
        </LNodeType>
        <DOType id="DOT1" cdc="DPC"/>
        <EnumType id="ET1">
            <EnumVal ord="0">off</EnumVal>
        </EnumType>
    </DataTypeTemplates>
</SCL>
`

func mustParse(t *testing.T, content string) *scl.Document {
	t.Helper()
	doc, err := scl.Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return doc
}

func TestParseQueries(t *testing.T) {
	doc := mustParse(t, sample)

	if got := doc.Tag(doc.Root()); got != "SCL" {
		t.Fatalf("unexpected root tag: %s", got)
	}
	sub := doc.Child(doc.Root(), "Substation")
	if v, ok := doc.Attr(sub, "ens1:foo"); !ok || v != "a" {
		t.Fatalf("prefixed attribute lost: %q %v", v, ok)
	}
	lns := doc.All("LN0", "LN")
	if len(lns) != 2 || doc.Tag(lns[0]) != "LN0" || doc.Tag(lns[1]) != "LN" {
		t.Fatalf("unexpected LN lookup: %v", lns)
	}
	lt, ok := doc.ByID("LNodeType", "LT1")
	if !ok {
		t.Fatalf("LNodeType LT1 not indexed")
	}
	dtt := doc.Closest(lt, "DataTypeTemplates")
	if doc.Tag(dtt) != "DataTypeTemplates" {
		t.Fatalf("closest failed")
	}
	if _, ok := doc.LookupID(dtt, "DOType", "DOT1"); !ok {
		t.Fatalf("scoped lookup failed")
	}
	if _, ok := doc.LookupID(sub, "DOType", "DOT1"); ok {
		t.Fatalf("lookup should be scoped")
	}
	enumVal := doc.Child(doc.Child(dtt, "EnumType"), "EnumVal")
	if doc.Text(enumVal) != "off" {
		t.Fatalf("text lost: %q", doc.Text(enumVal))
	}
	if !doc.Value(lt, "desc").IsNull() {
		t.Fatalf("missing attribute should be null")
	}
}

func TestParseRejectsMismatchedTags(t *testing.T) {
	if _, err := scl.Parse(strings.NewReader("<SCL><A></B></SCL>")); err == nil {
		t.Fatalf("expected mismatch error")
	}
	if _, err := scl.Parse(strings.NewReader("")); err == nil {
		t.Fatalf("expected missing root error")
	}
}

func TestCommitUndoRedo(t *testing.T) {
	doc := mustParse(t, sample)
	lt, _ := doc.ByID("LNodeType", "LT1")

	err := doc.Commit(scl.SetAttributes{
		Element:    lt,
		Attributes: map[string]scl.Value{"id": scl.String("LT2"), "desc": scl.String("breaker")},
	})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if _, ok := doc.ByID("LNodeType", "LT2"); !ok {
		t.Fatalf("id index not refreshed")
	}
	if _, ok := doc.ByID("LNodeType", "LT1"); ok {
		t.Fatalf("stale id still indexed")
	}
	if !doc.IsModified() {
		t.Fatalf("commit should mark document modified")
	}

	if err := doc.Undo(); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if got, _ := doc.Attr(lt, "id"); got != "LT1" {
		t.Fatalf("undo did not restore id: %s", got)
	}
	if !doc.Value(lt, "desc").IsNull() {
		t.Fatalf("undo did not remove desc")
	}
	if err := doc.Redo(); err != nil {
		t.Fatalf("redo failed: %v", err)
	}
	if got, _ := doc.Attr(lt, "desc"); got != "breaker" {
		t.Fatalf("redo did not restore desc: %s", got)
	}
	if err := doc.Redo(); !errors.Is(err, scl.ErrNothingToRedo) {
		t.Fatalf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestCommitNullRemovesAttribute(t *testing.T) {
	doc := mustParse(t, sample)
	sub := doc.Child(doc.Root(), "Substation")
	if err := doc.Commit(scl.SetAttributes{Element: sub, Attributes: map[string]scl.Value{"desc": scl.Null}}); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	want := []scl.Attribute{{Name: "ens1:foo", Value: "a"}, {Name: "name", Value: "A1"}}
	if diff := cmp.Diff(want, doc.Attributes(sub)); diff != "" {
		t.Fatalf("attributes mismatch (-want +got):\n%s", diff)
	}
}

func TestCommitIsAtomic(t *testing.T) {
	doc := mustParse(t, sample)
	lt, _ := doc.ByID("LNodeType", "LT1")

	err := doc.Commit(
		scl.SetAttributes{Element: lt, Attributes: map[string]scl.Value{"id": scl.String("LT9")}},
		scl.SetAttributes{Element: scl.Handle(9999), Attributes: map[string]scl.Value{"x": scl.String("y")}},
		scl.RemoveElement{Element: doc.Root()},
	)
	if err == nil {
		t.Fatalf("expected commit failure")
	}
	if !strings.Contains(err.Error(), "2 errors") {
		t.Fatalf("expected both failures to be reported: %v", err)
	}
	if got, _ := doc.Attr(lt, "id"); got != "LT1" {
		t.Fatalf("failed batch leaked changes: %s", got)
	}
	if err := doc.Undo(); !errors.Is(err, scl.ErrNothingToUndo) {
		t.Fatalf("failed batch should not be recorded, got %v", err)
	}
}

func TestInsertAndRemove(t *testing.T) {
	doc := mustParse(t, sample)
	dtt := doc.Child(doc.Root(), "DataTypeTemplates")

	err := doc.Commit(scl.InsertElement{
		Parent:     dtt,
		Tag:        "DAType",
		Attributes: []scl.Attribute{{Name: "id", Value: "DAT1"}},
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	dat, ok := doc.ByID("DAType", "DAT1")
	if !ok || doc.Parent(dat) != dtt {
		t.Fatalf("inserted element not found")
	}

	if err := doc.Commit(scl.RemoveElement{Element: dat}); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if doc.Valid(dat) {
		t.Fatalf("removed handle should be invalid")
	}
	if err := doc.Undo(); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if !doc.Valid(dat) {
		t.Fatalf("undo should restore removed element")
	}
	if err := doc.Undo(); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if doc.Valid(dat) {
		t.Fatalf("undoing the insert should invalidate the handle")
	}
}

func TestContentRoundTrip(t *testing.T) {
	doc := mustParse(t, sample)
	content, err := doc.Content()
	if err != nil {
		t.Fatalf("content failed: %v", err)
	}
	again := mustParse(t, content)
	if diff := cmp.Diff(doc.Tree(doc.Root()), again.Tree(again.Root())); diff != "" {
		t.Fatalf("round trip changed tree (-first +second):\n%s", diff)
	}
	if !strings.Contains(content, `<EnumVal ord="0">off</EnumVal>`) {
		t.Fatalf("text element not serialized: %s", content)
	}
}

func TestContentKeepsComments(t *testing.T) {
	input := `<?xml version="1.0"?>
<!-- generated -->
<SCL>
    <?editor keep?>
    <DataTypeTemplates>
        <LNodeType id="LT1" lnClass="XCBR"/>
        <!-- end of types -->
    </DataTypeTemplates>
</SCL>
<!-- tail -->
`
	want := `<?xml version="1.0" encoding="UTF-8"?>
<!-- generated -->
<SCL>
    <?editor keep?>
    <DataTypeTemplates>
        <LNodeType id="LT1" lnClass="XCBR"/>
        <!-- end of types -->
    </DataTypeTemplates>
</SCL>
<!-- tail -->
`
	doc := mustParse(t, input)
	dtt := doc.Child(doc.Root(), "DataTypeTemplates")
	if got := len(doc.Children(dtt)); got != 1 {
		t.Fatalf("comments must not count as children, got %d", got)
	}
	lt, _ := doc.ByID("LNodeType", "LT1")
	if err := doc.Commit(scl.SetAttributes{Element: lt, Attributes: map[string]scl.Value{"desc": scl.String("x")}}); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if err := doc.Undo(); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	content, err := doc.Content()
	if err != nil {
		t.Fatalf("content failed: %v", err)
	}
	if diff := cmp.Diff(want, content); diff != "" {
		t.Fatalf("comments not preserved (-want +got):\n%s", diff)
	}
}

func TestTree(t *testing.T) {
	doc := mustParse(t, sample)
	dtt := doc.Child(doc.Root(), "DataTypeTemplates")
	tree := doc.Tree(dtt)
	for _, want := range []string{`LNodeType [id="LT1", lnClass="XCBR"]`, `DO [name="Pos", type="DOT1"]`, `"off"`} {
		if !strings.Contains(tree, want) {
			t.Fatalf("tree missing %s:\n%s", want, tree)
		}
	}
}
