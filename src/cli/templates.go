package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"scltemplates/src/editor"
	"scltemplates/src/field"
	"scltemplates/src/scl"
	"scltemplates/src/templates"
)

type commandFunc func(d *Dispatcher, ctx context.Context, args []string) (string, error)

// templateCommands operate on the DataTypeTemplates of the active document.
// Each returns the path of the file it touched.
var templateCommands = map[string]commandFunc{
	"types":      (*Dispatcher).types,
	"select":     (*Dispatcher).selectType,
	"deselect":   (*Dispatcher).deselect,
	"children":   (*Dispatcher).children,
	"show":       (*Dispatcher).show,
	"set":        (*Dispatcher).set,
	"null":       (*Dispatcher).null,
	"save-type":  (*Dispatcher).saveType,
	"goto":       (*Dispatcher).gotoReference,
	"create":     (*Dispatcher).create,
	"add":        (*Dispatcher).add,
	"edit-child": (*Dispatcher).editChild,
	"xml-tree":   (*Dispatcher).xmlTree,
	"check-refs": (*Dispatcher).checkRefs,
	"history":    (*Dispatcher).history,
}

func (d *Dispatcher) active() (*editor.SCLEditor, error) {
	return d.ws.ActiveEditor()
}

func (d *Dispatcher) kindArg(args []string, count int, usage string) (*editor.SCLEditor, templates.Kind, error) {
	if len(args) != count {
		return nil, "", errors.New("用法: " + usage)
	}
	kind, err := templates.ParseKind(args[0])
	if err != nil {
		return nil, "", err
	}
	ed, err := d.active()
	if err != nil {
		return nil, "", err
	}
	return ed, kind, nil
}

func (d *Dispatcher) types(_ context.Context, args []string) (string, error) {
	ed, kind, err := d.kindArg(args, 1, "types <kind>")
	if err != nil {
		return "", err
	}
	items := ed.Templates().Items(kind)
	if len(items) == 0 {
		d.console.Printf("(没有 %s)", kind)
		return ed.Path(), nil
	}
	selected := ed.Templates().Selected(kind)
	for _, item := range items {
		mark := " "
		if item.Element == selected {
			mark = "*"
		}
		line := fmt.Sprintf("%s %s", mark, item.Headline)
		if item.SupportingText != "" {
			line += " (" + item.SupportingText + ")"
		}
		d.console.Println(line)
	}
	return ed.Path(), nil
}

func (d *Dispatcher) selectType(_ context.Context, args []string) (string, error) {
	ed, kind, err := d.kindArg(args, 2, "select <kind> <id>")
	if err != nil {
		return "", err
	}
	if keep, err := d.keepChanges(ed, kind); err != nil || keep {
		return ed.Path(), err
	}
	if err := ed.Templates().SelectByID(kind, args[1]); err != nil {
		if errors.Is(err, templates.ErrNotFound) {
			if suggestions := d.ws.SuggestIDs(kind, args[1]); len(suggestions) > 0 {
				return "", fmt.Errorf("%w (你是不是想找: %s)", err, strings.Join(suggestions, ", "))
			}
		}
		return "", err
	}
	d.console.Printf("已选择 %s %s", kind, args[1])
	return ed.Path(), nil
}

func (d *Dispatcher) deselect(_ context.Context, args []string) (string, error) {
	ed, kind, err := d.kindArg(args, 1, "deselect <kind>")
	if err != nil {
		return "", err
	}
	if keep, err := d.keepChanges(ed, kind); err != nil || keep {
		return ed.Path(), err
	}
	ed.Templates().Deselect(kind)
	return ed.Path(), nil
}

// keepChanges asks before a dirty panel is reloaded. It reports true when
// the user keeps the pending edits.
func (d *Dispatcher) keepChanges(ed *editor.SCLEditor, kind templates.Kind) (bool, error) {
	if !ed.Templates().Panel(kind).Dirty() {
		return false, nil
	}
	discard, err := d.console.Confirm(fmt.Sprintf("%s 有未保存的修改，是否放弃?", kind))
	if err != nil || discard {
		return false, err
	}
	d.console.Println("已保留修改")
	return true, nil
}

func (d *Dispatcher) children(_ context.Context, args []string) (string, error) {
	ed, kind, err := d.kindArg(args, 1, "children <kind>")
	if err != nil {
		return "", err
	}
	if err := requireSelection(ed, kind); err != nil {
		return "", err
	}
	items := ed.Templates().Children(kind)
	if len(items) == 0 {
		d.console.Println("(没有子元素)")
	}
	doc := ed.Document()
	for i, item := range items {
		line := fmt.Sprintf("%d. %s %s", i+1, doc.Tag(item.Element), item.Headline)
		if item.SupportingText != "" {
			line += " (" + item.SupportingText + ")"
		}
		if item.References {
			typeID, _ := doc.Attr(item.Element, "type")
			line += " -> " + typeID
		}
		d.console.Println(line)
	}
	return ed.Path(), nil
}

func (d *Dispatcher) show(_ context.Context, args []string) (string, error) {
	ed, kind, err := d.kindArg(args, 1, "show <kind>")
	if err != nil {
		return "", err
	}
	if err := requireSelection(ed, kind); err != nil {
		return "", err
	}
	panel := ed.Templates().Panel(kind)
	for _, f := range panel.Fields() {
		line := fmt.Sprintf("  %s = ", f.Label())
		if f.IsNull() {
			line += "(null)"
		} else {
			line += strconv.Quote(f.Raw())
		}
		if err := f.Validate(); err != nil {
			line += " ! " + err.Error()
		}
		d.console.Println(line)
	}
	d.console.Printf("  dirty: %t", panel.Dirty())
	return ed.Path(), nil
}

func (d *Dispatcher) set(_ context.Context, args []string) (string, error) {
	ed, kind, err := d.kindArg(args, 3, "set <kind> <attr> <value>")
	if err != nil {
		return "", err
	}
	panel, f, err := panelField(ed, kind, args[1])
	if err != nil {
		return "", err
	}
	if !f.Type(args[2]) {
		return "", fmt.Errorf("字段 %s 当前不可编辑", f.Label())
	}
	d.reportField(panel.Dirty(), f.Validate())
	return ed.Path(), nil
}

func (d *Dispatcher) null(_ context.Context, args []string) (string, error) {
	ed, kind, err := d.kindArg(args, 3, "null <kind> <attr> on|off")
	if err != nil {
		return "", err
	}
	var null bool
	switch strings.ToLower(args[2]) {
	case "on":
		null = true
	case "off":
	default:
		return "", errors.New("用法: null <kind> <attr> on|off")
	}
	panel, f, err := panelField(ed, kind, args[1])
	if err != nil {
		return "", err
	}
	if !f.ToggleNull(null) {
		return "", fmt.Errorf("字段 %s 不可置空", f.Label())
	}
	d.reportField(panel.Dirty(), f.Validate())
	return ed.Path(), nil
}

func (d *Dispatcher) reportField(dirty bool, invalid error) {
	if invalid != nil {
		d.console.Println("无效: " + invalid.Error())
		return
	}
	if dirty {
		d.console.Println("已修改，使用 save-type 保存")
	} else {
		d.console.Println("无改动")
	}
}

func (d *Dispatcher) saveType(_ context.Context, args []string) (string, error) {
	ed, kind, err := d.kindArg(args, 1, "save-type <kind>")
	if err != nil {
		return "", err
	}
	if err := requireSelection(ed, kind); err != nil {
		return "", err
	}
	panel := ed.Templates().Panel(kind)
	if errs := panel.Invalid(); len(errs) > 0 {
		return "", multierror.Append(nil, errs...)
	}
	saved, err := panel.Save()
	if err != nil {
		return "", err
	}
	if !saved {
		d.console.Println("无改动")
		return ed.Path(), nil
	}
	d.console.Printf("已保存 %s", kind)
	return ed.Path(), nil
}

func (d *Dispatcher) gotoReference(_ context.Context, args []string) (string, error) {
	ed, kind, err := d.kindArg(args, 2, "goto <kind> <child>")
	if err != nil {
		return "", err
	}
	child, err := findChild(ed, kind, args[1])
	if err != nil {
		return "", err
	}
	if !ed.Templates().SelectReferenced(child) {
		typeID, _ := ed.Document().Attr(child, "type")
		return "", fmt.Errorf("%w: %s", templates.ErrNotFound, typeID)
	}
	for _, k := range templates.Kinds {
		if id, ok := ed.Document().Attr(ed.Templates().Selected(k), "id"); ok && k != kind {
			d.console.Printf("已选择 %s %s", k, id)
		}
	}
	return ed.Path(), nil
}

func (d *Dispatcher) create(ctx context.Context, args []string) (string, error) {
	ed, kind, err := d.kindArg(args, 1, "create <kind>")
	if err != nil {
		return "", err
	}
	if !ed.Document().Valid(ed.Templates().DataTypeTemplates()) {
		return "", errors.New("文档没有 DataTypeTemplates")
	}
	created, err := ed.Templates().CreateType(ctx, kind)
	if err != nil {
		return "", err
	}
	d.reportCommit(created)
	return ed.Path(), nil
}

func (d *Dispatcher) add(ctx context.Context, args []string) (string, error) {
	ed, kind, err := d.kindArg(args, 2, "add <kind> <tag>")
	if err != nil {
		return "", err
	}
	if err := requireSelection(ed, kind); err != nil {
		return "", err
	}
	created, err := ed.Templates().CreateChild(ctx, kind, args[1])
	if err != nil {
		return "", err
	}
	d.reportCommit(created)
	return ed.Path(), nil
}

func (d *Dispatcher) editChild(ctx context.Context, args []string) (string, error) {
	ed, kind, err := d.kindArg(args, 2, "edit-child <kind> <child>")
	if err != nil {
		return "", err
	}
	child, err := findChild(ed, kind, args[1])
	if err != nil {
		return "", err
	}
	edited, err := ed.Templates().EditChild(ctx, child)
	if err != nil {
		return "", err
	}
	d.reportCommit(edited)
	return ed.Path(), nil
}

func (d *Dispatcher) reportCommit(committed bool) {
	if committed {
		d.console.Println("已提交")
	} else {
		d.console.Println("已取消")
	}
}

func (d *Dispatcher) xmlTree(_ context.Context, args []string) (string, error) {
	ed, err := d.fileArg(args, "xml-tree [file]")
	if err != nil {
		return "", err
	}
	tree := ed.Document().Tree(ed.Templates().DataTypeTemplates())
	if tree == "" {
		d.console.Println("(没有 DataTypeTemplates)")
	} else {
		d.console.Println(tree)
	}
	return ed.Path(), nil
}

func (d *Dispatcher) checkRefs(_ context.Context, args []string) (string, error) {
	ed, err := d.fileArg(args, "check-refs [file]")
	if err != nil {
		return "", err
	}
	report, err := d.ws.CheckReferences(ed.Path())
	if err != nil {
		return "", err
	}
	d.console.Println(report)
	return ed.Path(), nil
}

func (d *Dispatcher) history(_ context.Context, args []string) (string, error) {
	ed, err := d.fileArg(args, "history [file]")
	if err != nil {
		return "", err
	}
	entries := ed.Document().History()
	if len(entries) == 0 {
		d.console.Println("(没有提交记录)")
	}
	for i, entry := range entries {
		d.console.Printf("%d. %s", i+1, entry)
	}
	return ed.Path(), nil
}

func (d *Dispatcher) fileArg(args []string, usage string) (*editor.SCLEditor, error) {
	switch len(args) {
	case 0:
		return d.active()
	case 1:
		return d.ws.EditorByPath(args[0])
	default:
		return nil, errors.New("用法: " + usage)
	}
}

func requireSelection(ed *editor.SCLEditor, kind templates.Kind) error {
	if !ed.Document().Valid(ed.Templates().Selected(kind)) {
		return fmt.Errorf("未选择 %s，请先使用 select", kind)
	}
	return nil
}

func panelField(ed *editor.SCLEditor, kind templates.Kind, attr string) (*templates.Panel, *field.Field, error) {
	if err := requireSelection(ed, kind); err != nil {
		return nil, nil, err
	}
	panel := ed.Templates().Panel(kind)
	f := panel.Field(attr)
	if f == nil {
		return nil, nil, fmt.Errorf("%s 没有可编辑的属性 %s", kind, attr)
	}
	return panel, f, nil
}

// findChild resolves ref against the children of the selected definition
// by name, EnumVal text or ord, then by 1-based position.
func findChild(ed *editor.SCLEditor, kind templates.Kind, ref string) (scl.Handle, error) {
	if err := requireSelection(ed, kind); err != nil {
		return scl.NoHandle, err
	}
	items := ed.Templates().Children(kind)
	for _, item := range items {
		if item.Headline == ref || item.SupportingText == ref {
			return item.Element, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(items) {
		return items[n-1].Element, nil
	}
	return scl.NoHandle, fmt.Errorf("%w: %s", templates.ErrNotFound, ref)
}
