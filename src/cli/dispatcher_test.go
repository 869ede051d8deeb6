package cli_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"scltemplates/src/cli"
	"scltemplates/src/dialog"
	"scltemplates/src/events"
	"scltemplates/src/logging"
	"scltemplates/src/workspace"
)

const station = `<SCL>
    <IED name="IED1">
        <AccessPoint name="AP1">
            <Server>
                <LDevice inst="LD1">
                    <LN lnClass="XCBR" inst="1" lnType="LT1"/>
                </LDevice>
            </Server>
        </AccessPoint>
    </IED>
    <DataTypeTemplates>
        <LNodeType id="LT1" lnClass="XCBR">
            <DO name="Pos" type="DOT1"/>
        </LNodeType>
        <DOType id="DOT1" cdc="DPC"/>
        <EnumType id="ET1">
            <EnumVal ord="5">mid</EnumVal>
            <EnumVal ord="1">on</EnumVal>
        </EnumType>
    </DataTypeTemplates>
</SCL>`

type harness struct {
	ws         *workspace.Workspace
	fs         afero.Fs
	output     *bytes.Buffer
	dispatcher *cli.Dispatcher
}

func newHarness(t *testing.T, input string) *harness {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/work/station.scd", []byte(station), 0o644); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	output := bytes.NewBuffer(nil)
	console := cli.NewConsole(bytes.NewBufferString(input), output)
	bus := events.NewBus()
	logger := logging.NewManager(fs, nil)
	bus.Subscribe(logger)
	ws := workspace.NewWorkspace("/work", workspace.Options{
		Fs:      fs,
		Bus:     bus,
		Logger:  logger,
		Decider: console,
		Dialog:  dialog.NewConsole(console),
	})
	return &harness{ws: ws, fs: fs, output: output, dispatcher: cli.NewDispatcher(ws, console, nil)}
}

func (h *harness) run(t *testing.T, commands ...string) {
	t.Helper()
	for _, cmd := range commands {
		if err := h.dispatcher.Execute(cmd); err != nil {
			t.Fatalf("%q failed: %v", cmd, err)
		}
	}
}

func TestDispatcherLoadCommand(t *testing.T) {
	h := newHarness(t, "")
	h.run(t, "load station.scd")
	active, err := h.ws.ActiveEditor()
	if err != nil || active == nil {
		t.Fatalf("active editor should exist after load")
	}
	if err := h.dispatcher.Execute("load notes.txt"); err == nil {
		t.Fatalf("non SCL files should be rejected")
	}
}

func TestDispatcherEditorList(t *testing.T) {
	h := newHarness(t, "")
	h.run(t, "load station.scd", "editor-list")
	if !strings.Contains(h.output.String(), "* station.scd") {
		t.Fatalf("editor-list should mark station.scd active, output: %s", h.output.String())
	}
}

func TestDispatcherRenameCascade(t *testing.T) {
	h := newHarness(t, "")
	h.run(t,
		"load station.scd",
		"select LNodeType LT1",
		"set LNodeType id LT2",
		`set lnodetype desc "main breaker"`,
		"save-type LNodeType",
	)
	ed, _ := h.ws.ActiveEditor()
	doc := ed.Document()
	ln := doc.All("LN")[0]
	if got, _ := doc.Attr(ln, "lnType"); got != "LT2" {
		t.Fatalf("lnType should follow the rename, got %q", got)
	}
	lnType, ok := doc.ByID("LNodeType", "LT2")
	if !ok {
		t.Fatalf("renamed LNodeType missing")
	}
	if desc, _ := doc.Attr(lnType, "desc"); desc != "main breaker" {
		t.Fatalf("quoted value should be one token, got %q", desc)
	}

	h.run(t, "undo")
	if got, _ := doc.Attr(ln, "lnType"); got != "LT1" {
		t.Fatalf("undo should restore the whole cascade, got %q", got)
	}
	h.run(t, "history")
	if !strings.Contains(h.output.String(), "已撤销") {
		t.Fatalf("undo should be reported, output: %s", h.output.String())
	}
}

func TestDispatcherNullToggle(t *testing.T) {
	h := newHarness(t, "")
	h.run(t, "load station.scd", "select LNodeType LT1", "show LNodeType")
	if !strings.Contains(h.output.String(), "desc = (null)") {
		t.Fatalf("absent desc should show as null, output: %s", h.output.String())
	}
	h.run(t, "null LNodeType desc off")
	if !strings.Contains(h.output.String(), "已修改") {
		t.Fatalf("leaving null should make the panel dirty, output: %s", h.output.String())
	}
	if err := h.dispatcher.Execute("null LNodeType id on"); err == nil {
		t.Fatalf("id is not nullable")
	}
}

func TestDispatcherSelectSuggestsIDs(t *testing.T) {
	h := newHarness(t, "")
	h.run(t, "load station.scd")
	err := h.dispatcher.Execute("select DOType DOT")
	if err == nil {
		t.Fatalf("unknown id should fail")
	}
	if !strings.Contains(err.Error(), "DOT1") {
		t.Fatalf("error should suggest DOT1, got %v", err)
	}
}

func TestDispatcherGotoReference(t *testing.T) {
	h := newHarness(t, "")
	h.run(t, "load station.scd", "select LNodeType LT1", "children LNodeType", "goto LNodeType Pos")
	out := h.output.String()
	if !strings.Contains(out, "1. DO Pos -> DOT1") {
		t.Fatalf("children should list Pos, output: %s", out)
	}
	if !strings.Contains(out, "已选择 DOType DOT1") {
		t.Fatalf("goto should select DOT1, output: %s", out)
	}
}

func TestDispatcherCreateThroughDialog(t *testing.T) {
	h := newHarness(t, "LT9\nMMXU\n\n")
	h.run(t, "load station.scd", "create LNodeType", "types LNodeType")
	out := h.output.String()
	if !strings.Contains(out, "已提交") {
		t.Fatalf("create should commit, output: %s", out)
	}
	if !strings.Contains(out, "LT9 (MMXU)") {
		t.Fatalf("new type should be listed, output: %s", out)
	}
}

func TestDispatcherCreateCancelled(t *testing.T) {
	h := newHarness(t, "\n")
	h.run(t, "load station.scd", "create DOType")
	if !strings.Contains(h.output.String(), "已取消") {
		t.Fatalf("blank id should cancel, output: %s", h.output.String())
	}
	ed, _ := h.ws.ActiveEditor()
	if len(ed.Document().History()) != 0 {
		t.Fatalf("cancelled dialog should not commit")
	}
}

func TestDispatcherTreeAndReferences(t *testing.T) {
	h := newHarness(t, "")
	h.run(t, "load station.scd", "xml-tree", "check-refs")
	out := h.output.String()
	if !strings.Contains(out, `LNodeType [id="LT1", lnClass="XCBR"]`) {
		t.Fatalf("xml-tree should render LT1, output: %s", out)
	}
	if !strings.Contains(out, "未发现悬空引用") {
		t.Fatalf("station has no dangling references, output: %s", out)
	}
}

func TestDispatcherErrors(t *testing.T) {
	h := newHarness(t, "")
	if err := h.dispatcher.Execute("bogus"); err == nil {
		t.Fatalf("unknown command should fail")
	}
	if err := h.dispatcher.Execute("types LNodeType"); err == nil {
		t.Fatalf("commands need an active document")
	}
	h.run(t, "load station.scd")
	if err := h.dispatcher.Execute("set LNodeType id LT2"); err == nil {
		t.Fatalf("set without selection should fail")
	}
	if err := h.dispatcher.Execute("types Substation"); err == nil {
		t.Fatalf("unknown kind should fail")
	}
	if err := h.dispatcher.Execute(`set LNodeType "id`); err == nil {
		t.Fatalf("unterminated quote should fail")
	}
}

func TestDispatcherExitPersists(t *testing.T) {
	h := newHarness(t, "n\n")
	h.run(t, "load station.scd", "select LNodeType LT1", "set LNodeType id LT5", "save-type LNodeType", "exit")
	if ok, _ := afero.Exists(h.fs, "/work/.scl_workspace"); !ok {
		t.Fatalf("exit should persist workspace state")
	}
	data, _ := afero.ReadFile(h.fs, "/work/station.scd")
	if strings.Contains(string(data), "LT5") {
		t.Fatalf("declined save should leave the file untouched")
	}
}

func TestDispatcherAsksBeforeDiscarding(t *testing.T) {
	h := newHarness(t, "n\ny\n")
	h.run(t, "load station.scd", "select LNodeType LT1", "set LNodeType id LT7", "deselect LNodeType")
	ed, _ := h.ws.ActiveEditor()
	te := ed.Templates()
	if !te.Panel("LNodeType").Dirty() {
		t.Fatalf("declining should keep the pending edit")
	}
	h.run(t, "deselect LNodeType")
	if te.Document().Valid(te.Selected("LNodeType")) {
		t.Fatalf("confirming should close the panel")
	}
	h.run(t, "editor-list")
	if !strings.Contains(h.output.String(), "0 次提交, 0 次撤销") {
		t.Fatalf("nothing should have been committed, output: %s", h.output.String())
	}
}

func TestDispatcherChildLookup(t *testing.T) {
	h := newHarness(t, "\nby-ord\n\n\nby-position\n\n")
	h.run(t, "load station.scd", "select EnumType ET1", "edit-child EnumType 1", "edit-child EnumType 2")
	ed, _ := h.ws.ActiveEditor()
	doc := ed.Document()
	et, ok := doc.ByID("EnumType", "ET1")
	if !ok {
		t.Fatalf("ET1 missing")
	}
	vals := doc.Children(et, "EnumVal")
	if desc, _ := doc.Attr(vals[1], "desc"); desc != "by-position" {
		t.Fatalf("ord 1 and position 2 both name the second value, desc=%q", desc)
	}
	if desc, _ := doc.Attr(vals[0], "desc"); desc != "" {
		t.Fatalf("first value should be untouched, desc=%q", desc)
	}
	if !strings.Contains(h.output.String(), `EnumVal [ord="1", desc="by-ord"]`) {
		t.Fatalf("second edit should open the value the first one changed, output: %s", h.output.String())
	}
	if err := h.dispatcher.Execute("edit-child EnumType 9"); err == nil {
		t.Fatalf("unknown child should fail")
	}
}
