package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"scltemplates/src/config"
	"scltemplates/src/dialog"
	"scltemplates/src/editor"
	"scltemplates/src/events"
	"scltemplates/src/fs"
	"scltemplates/src/logging"
	"scltemplates/src/statistics"
	"scltemplates/src/suggest"
	"scltemplates/src/templates"
)

// SaveDecider asks user whether to save modifications.
type SaveDecider interface {
	ConfirmSave(path string) (bool, error)
}

// Info describes an open editor.
type Info struct {
	Path     string
	Name     string
	Modified bool
	Active   bool
	Duration time.Duration
	Commits  int
	Undos    int
}

// Options wires the collaborators of a workspace. Zero values fall back to
// the OS filesystem, default config and silent diagnostics.
type Options struct {
	Fs      afero.Fs
	Bus     *events.Bus
	Keeper  *StateKeeper
	Logger  *logging.Manager
	Decider SaveDecider
	Dialog  dialog.Dialog
	Config  *config.Config
	Diag    hclog.Logger
}

// Workspace coordinates open SCL documents, persistence, and observers.
type Workspace struct {
	baseDir string
	editors map[string]*editor.SCLEditor
	active  string
	history []string

	fs      afero.Fs
	bus     *events.Bus
	keeper  *StateKeeper
	logger  *logging.Manager
	decider SaveDecider
	dialog  dialog.Dialog
	cfg     config.Config
	diag    hclog.Logger
	stats   *statistics.Tracker
	checker *suggest.Service
}

// NewWorkspace builds a workspace rooted at baseDir.
func NewWorkspace(baseDir string, opts Options) *Workspace {
	w := &Workspace{
		baseDir: baseDir,
		editors: map[string]*editor.SCLEditor{},
		fs:      opts.Fs,
		bus:     opts.Bus,
		keeper:  opts.Keeper,
		logger:  opts.Logger,
		decider: opts.Decider,
		dialog:  opts.Dialog,
		cfg:     config.Default(),
		diag:    opts.Diag,
		stats:   statistics.NewTracker(),
	}
	if w.fs == nil {
		w.fs = afero.NewOsFs()
	}
	if opts.Config != nil {
		w.cfg = *opts.Config
	}
	if w.diag == nil {
		w.diag = hclog.NewNullLogger()
	}
	if w.keeper == nil {
		w.keeper = NewStateKeeper(w.fs, baseDir)
	}
	if w.logger == nil {
		w.logger = logging.NewManager(w.fs, w.diag.Named("log"))
	}
	w.checker = suggest.NewService(w.cfg.SuggestionDistance)
	return w
}

// SetDecider overrides the save decider.
func (w *Workspace) SetDecider(decider SaveDecider) {
	w.decider = decider
}

// SetDialog overrides the create/edit dialog of editors opened afterwards.
func (w *Workspace) SetDialog(d dialog.Dialog) {
	w.dialog = d
}

// SetClock overrides the tracker clock for deterministic testing.
func (w *Workspace) SetClock(clock statistics.Clock) {
	w.stats.WithClock(clock)
}

// BaseDir exposes the root directory.
func (w *Workspace) BaseDir() string {
	return w.baseDir
}

// Config returns the settings in effect.
func (w *Workspace) Config() config.Config {
	return w.cfg
}

// Logger returns the session log manager.
func (w *Workspace) Logger() *logging.Manager {
	return w.logger
}

// Load opens or activates an SCL file. A missing file opens an unsaved
// skeleton document.
func (w *Workspace) Load(path string) (*editor.SCLEditor, error) {
	abs, err := w.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if ed, ok := w.editors[abs]; ok {
		w.setActive(abs)
		return ed, nil
	}
	if !fs.IsSCLFile(abs) {
		return nil, fmt.Errorf("不支持的文件类型: %s", filepath.Ext(abs))
	}
	var ed *editor.SCLEditor
	info, statErr := w.fs.Stat(abs)
	switch {
	case statErr != nil && errors.Is(statErr, os.ErrNotExist):
		doc, docErr := editor.NewDefaultDocument(false)
		if docErr != nil {
			return nil, docErr
		}
		ed, err = editor.NewSCLEditor(abs, doc, w.templateOptions(), w.handleDocumentEvent)
		if err != nil {
			return nil, err
		}
		ed.SetModified(true)
	case statErr != nil:
		return nil, statErr
	case info.IsDir():
		return nil, fmt.Errorf("无法打开目录: %s", abs)
	default:
		data, readErr := afero.ReadFile(w.fs, abs)
		if readErr != nil {
			return nil, readErr
		}
		ed, err = editor.ParseSCLEditor(abs, data, w.templateOptions(), w.handleDocumentEvent)
		if err != nil {
			return nil, fmt.Errorf("解析 %s 失败: %w", filepath.Base(abs), err)
		}
	}
	w.editors[abs] = ed
	w.setActive(abs)
	w.applyAutoLog(ed)
	w.diag.Debug("document loaded", "path", abs, "modified", ed.IsModified())
	return ed, nil
}

// Init creates an unsaved SCL skeleton.
func (w *Workspace) Init(path string, withLog bool) (*editor.SCLEditor, error) {
	abs, err := w.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if !fs.IsSCLFile(abs) {
		return nil, fmt.Errorf("不支持的文件类型: %s", filepath.Ext(abs))
	}
	if exists, _ := afero.Exists(w.fs, abs); exists {
		return nil, fmt.Errorf("文件已存在: %s", abs)
	}
	if _, ok := w.editors[abs]; ok {
		return nil, fmt.Errorf("文件已打开: %s", abs)
	}
	doc, err := editor.NewDefaultDocument(withLog)
	if err != nil {
		return nil, err
	}
	ed, err := editor.NewSCLEditor(abs, doc, w.templateOptions(), w.handleDocumentEvent)
	if err != nil {
		return nil, err
	}
	ed.SetModified(true)
	w.editors[abs] = ed
	w.setActive(abs)
	w.applyAutoLog(ed)
	return ed, nil
}

// Save writes the specified file (empty path means active).
func (w *Workspace) Save(path string) error {
	ed, err := w.target(path)
	if err != nil {
		return err
	}
	if err := w.saveEditor(ed); err != nil {
		return err
	}
	ed.SetModified(false)
	return nil
}

// SaveAll writes every open editor.
func (w *Workspace) SaveAll() error {
	for _, path := range w.sortedPaths() {
		ed := w.editors[path]
		if err := w.saveEditor(ed); err != nil {
			return err
		}
		ed.SetModified(false)
	}
	return nil
}

// Close removes an editor, prompting when necessary.
func (w *Workspace) Close(path string) error {
	ed, err := w.target(path)
	if err != nil {
		return err
	}
	abs := ed.Path()
	if ed.IsModified() && w.decider != nil {
		save, decErr := w.decider.ConfirmSave(abs)
		if decErr != nil {
			return decErr
		}
		if save {
			if err := w.saveEditor(ed); err != nil {
				return err
			}
			ed.SetModified(false)
		}
	}
	w.stats.Close(abs)
	delete(w.editors, abs)
	w.removeFromHistory(abs)
	next := ""
	if w.active == abs {
		if len(w.history) > 0 {
			next = w.history[0]
		}
	} else {
		next = w.active
	}
	w.setActive(next)
	return nil
}

// Edit switches the active editor.
func (w *Workspace) Edit(path string) error {
	abs, err := w.resolvePath(path)
	if err != nil {
		return err
	}
	if _, ok := w.editors[abs]; !ok {
		return fmt.Errorf("文件未打开: %s", path)
	}
	w.setActive(abs)
	return nil
}

// List returns info for editors, sorted by path.
func (w *Workspace) List() []Info {
	result := make([]Info, 0, len(w.editors))
	for _, path := range w.sortedPaths() {
		ed := w.editors[path]
		commits, undos := w.stats.Commits(path)
		result = append(result, Info{
			Path:     path,
			Name:     ed.Name(),
			Modified: ed.IsModified(),
			Active:   path == w.active,
			Duration: w.stats.Duration(path),
			Commits:  commits,
			Undos:    undos,
		})
	}
	return result
}

// DirTree renders the SCL files below path (empty means the base dir).
func (w *Workspace) DirTree(path string) (string, error) {
	target := path
	if target == "" {
		target = w.baseDir
	} else if !filepath.IsAbs(target) {
		target = filepath.Join(w.baseDir, target)
	}
	return fs.Tree(w.fs, target, true)
}

// Undo reverts the last commit of the active document.
func (w *Workspace) Undo() error {
	ed, err := w.ActiveEditor()
	if err != nil {
		return err
	}
	if err := ed.Undo(); err != nil {
		return err
	}
	w.stats.RecordUndo(ed.Path())
	return nil
}

// Redo reapplies the last undone commit of the active document.
func (w *Workspace) Redo() error {
	ed, err := w.ActiveEditor()
	if err != nil {
		return err
	}
	return ed.Redo()
}

// ActiveEditor returns the current editor.
func (w *Workspace) ActiveEditor() (*editor.SCLEditor, error) {
	if w.active == "" {
		return nil, errors.New("没有活动文件")
	}
	ed, ok := w.editors[w.active]
	if !ok {
		return nil, errors.New("活动文件不存在")
	}
	return ed, nil
}

// EditorByPath returns an opened editor by path.
func (w *Workspace) EditorByPath(path string) (*editor.SCLEditor, error) {
	abs, err := w.resolvePath(path)
	if err != nil {
		return nil, err
	}
	ed, ok := w.editors[abs]
	if !ok {
		return nil, fmt.Errorf("文件未打开: %s", path)
	}
	return ed, nil
}

// CheckReferences lists the dangling type references of the target file.
func (w *Workspace) CheckReferences(path string) (string, error) {
	ed, err := w.target(path)
	if err != nil {
		return "", err
	}
	doc := ed.Document()
	issues := w.checker.CheckReferences(doc)
	var builder strings.Builder
	builder.WriteString("引用检查结果:\n")
	if len(issues) == 0 {
		builder.WriteString("未发现悬空引用")
		return builder.String(), nil
	}
	for i, issue := range issues {
		suggestions := "无"
		if len(issue.Suggestions) > 0 {
			suggestions = strings.Join(issue.Suggestions, ", ")
		}
		builder.WriteString(fmt.Sprintf("%s: %s=\"%s\" 未找到 %s -> 建议: %s",
			doc.Tag(issue.Element), issue.Attr, issue.Value, issue.Kind, suggestions))
		if i != len(issues)-1 {
			builder.WriteString("\n")
		}
	}
	return builder.String(), nil
}

// SuggestIDs returns the ids of kind in the active document closest to id.
func (w *Workspace) SuggestIDs(kind templates.Kind, id string) []string {
	ed, err := w.ActiveEditor()
	if err != nil {
		return nil
	}
	return w.checker.IDs(ed.Document(), kind).Suggest(id)
}

// PublishCommand notifies observers about a command.
func (w *Workspace) PublishCommand(name, raw, file string) {
	if w.bus == nil {
		return
	}
	metadata := map[string]string{}
	if w.active != "" {
		metadata["active"] = w.active
	}
	w.bus.Publish(events.Event{
		Type:      events.EventCommandExecuted,
		Timestamp: time.Now(),
		Command:   name,
		Raw:       raw,
		File:      file,
		Metadata:  metadata,
	})
}

// Persist saves workspace metadata.
func (w *Workspace) Persist() error {
	state := WorkspaceState{
		Active: w.active,
	}
	for _, path := range w.sortedPaths() {
		ed := w.editors[path]
		entry := EditorState{Path: path, Modified: ed.IsModified()}
		te := ed.Templates()
		for _, kind := range templates.Kinds {
			if id, ok := ed.Document().Attr(te.Selected(kind), "id"); ok {
				if entry.Selected == nil {
					entry.Selected = map[string]string{}
				}
				entry.Selected[string(kind)] = id
			}
		}
		state.Editors = append(state.Editors, entry)
	}
	state.Logging = w.logger.ActivePaths()
	w.stats.StopAll()
	return w.keeper.Save(state)
}

// Restore hydrates workspace from disk.
func (w *Workspace) Restore() error {
	state, err := w.keeper.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, entry := range state.Editors {
		if _, statErr := w.fs.Stat(entry.Path); statErr != nil {
			continue
		}
		ed, loadErr := w.Load(entry.Path)
		if loadErr != nil {
			w.diag.Warn("restore skipped document", "path", entry.Path, "error", loadErr)
			continue
		}
		ed.SetModified(entry.Modified)
		for kind, id := range entry.Selected {
			k, kindErr := templates.ParseKind(kind)
			if kindErr != nil {
				continue
			}
			_ = ed.Templates().SelectByID(k, id)
		}
	}
	if state.Active != "" {
		if _, ok := w.editors[state.Active]; ok {
			w.setActive(state.Active)
		}
	}
	w.logger.Restore(state.Logging)
	return nil
}

func (w *Workspace) templateOptions() templates.Options {
	return templates.Options{
		Dialog:            w.dialog,
		StrictEnumCascade: w.cfg.StrictEnumCascade,
		IDMaxLength:       w.cfg.IDMaxLength,
		Logger:            w.diag.Named("templates"),
	}
}

func (w *Workspace) handleDocumentEvent(evt events.Event) {
	if evt.Type == events.EventCommitted {
		w.stats.RecordCommit(evt.File)
	}
	w.bus.Publish(evt)
}

func (w *Workspace) target(path string) (*editor.SCLEditor, error) {
	target := path
	if target == "" {
		target = w.active
	}
	if target == "" {
		return nil, errors.New("没有活动文件")
	}
	abs, err := w.resolvePath(target)
	if err != nil {
		return nil, err
	}
	ed, ok := w.editors[abs]
	if !ok {
		return nil, fmt.Errorf("文件未打开: %s", target)
	}
	return ed, nil
}

func (w *Workspace) sortedPaths() []string {
	paths := make([]string, 0, len(w.editors))
	for path := range w.editors {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (w *Workspace) resolvePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("路径不能为空")
	}
	expanded := path
	if !filepath.IsAbs(path) {
		expanded = filepath.Join(w.baseDir, path)
	}
	return filepath.Abs(expanded)
}

func (w *Workspace) setActive(path string) {
	prev := w.active
	if prev == path {
		return
	}
	w.active = path
	w.stats.Switch(prev, path)
	if path != "" {
		w.touchHistory(path)
	}
}

func (w *Workspace) touchHistory(path string) {
	if path == "" {
		return
	}
	w.removeFromHistory(path)
	w.history = append([]string{path}, w.history...)
}

func (w *Workspace) removeFromHistory(path string) {
	next := w.history[:0]
	for _, item := range w.history {
		if item != path {
			next = append(next, item)
		}
	}
	w.history = next
}

func (w *Workspace) saveEditor(ed editor.Editor) error {
	if err := w.fs.MkdirAll(filepath.Dir(ed.Path()), 0o755); err != nil {
		return err
	}
	content, err := ed.Content()
	if err != nil {
		return err
	}
	return afero.WriteFile(w.fs, ed.Path(), []byte(content), 0o644)
}

func (w *Workspace) applyAutoLog(ed *editor.SCLEditor) {
	if !w.cfg.LogOnLoad && !ed.AutoLog() {
		return
	}
	if err := w.logger.Enable(ed.Path()); err != nil {
		w.diag.Warn("enable session log failed", "path", ed.Path(), "error", err)
	}
}
