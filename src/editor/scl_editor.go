package editor

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"scltemplates/src/events"
	"scltemplates/src/scl"
	"scltemplates/src/templates"
)

// SCLEditor is an open SCL document with its DataTypeTemplates editor.
// Every change goes through Commit, Undo or Redo so observers and panels
// stay in step with the document.
type SCLEditor struct {
	path      string
	doc       *scl.Document
	templates *templates.Editor
	notify    Notifier
}

var _ Editor = (*SCLEditor)(nil)

// NewSCLEditor wraps doc. opts.Committer is replaced by the editor itself.
func NewSCLEditor(path string, doc *scl.Document, opts templates.Options, notify Notifier) (*SCLEditor, error) {
	e := &SCLEditor{path: path, doc: doc, notify: notify}
	opts.Committer = e
	te, err := templates.NewEditor(doc, opts)
	if err != nil {
		return nil, err
	}
	e.templates = te
	return e, nil
}

// ParseSCLEditor parses data into an editor.
func ParseSCLEditor(path string, data []byte, opts templates.Options, notify Notifier) (*SCLEditor, error) {
	doc, err := scl.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return NewSCLEditor(path, doc, opts, notify)
}

const skeleton = `<?xml version="1.0" encoding="UTF-8"?>
<SCL xmlns="http://www.iec.ch/61850/2003/SCL" version="2007" revision="B">
    <Header id="scltemplates"/>%s
    <DataTypeTemplates/>
</SCL>`

// NewDefaultDocument builds an empty SCL skeleton with a DataTypeTemplates
// section. withLog adds the session log marker.
func NewDefaultDocument(withLog bool) (*scl.Document, error) {
	marker := ""
	if withLog {
		marker = fmt.Sprintf("\n    <Private type=%q/>", LogMarker)
	}
	return scl.Parse(strings.NewReader(fmt.Sprintf(skeleton, marker)))
}

// Path returns the backing file path.
func (e *SCLEditor) Path() string {
	return e.path
}

// Name returns the file name for display.
func (e *SCLEditor) Name() string {
	return filepath.Base(e.path)
}

// IsModified reports whether the document has unsaved changes.
func (e *SCLEditor) IsModified() bool {
	return e.doc.IsModified()
}

// SetModified overrides the modified state.
func (e *SCLEditor) SetModified(value bool) {
	e.doc.SetModified(value)
}

// Content serializes the document.
func (e *SCLEditor) Content() (string, error) {
	return e.doc.Content()
}

// Document returns the edited document.
func (e *SCLEditor) Document() *scl.Document {
	return e.doc
}

// Templates returns the DataTypeTemplates editor.
func (e *SCLEditor) Templates() *templates.Editor {
	return e.templates
}

// Commit applies actions as one undoable unit and reports it.
func (e *SCLEditor) Commit(actions ...scl.Action) error {
	if err := e.doc.Commit(actions...); err != nil {
		return err
	}
	history := e.doc.History()
	summary := ""
	if len(history) > 0 {
		summary = history[len(history)-1]
	}
	e.publish(events.EventCommitted, map[string]string{
		"actions": strconv.Itoa(len(actions)),
		"summary": summary,
	})
	return nil
}

// Undo reverts the last commit and reloads the panels.
func (e *SCLEditor) Undo() error {
	if err := e.doc.Undo(); err != nil {
		return err
	}
	e.templates.Refresh()
	e.publish(events.EventUndone, nil)
	return nil
}

// Redo reapplies the last undone commit and reloads the panels.
func (e *SCLEditor) Redo() error {
	if err := e.doc.Redo(); err != nil {
		return err
	}
	e.templates.Refresh()
	e.publish(events.EventRedone, nil)
	return nil
}

// AutoLog reports whether the root carries the session log marker.
func (e *SCLEditor) AutoLog() bool {
	for _, h := range e.doc.Children(e.doc.Root(), "Private") {
		if t, _ := e.doc.Attr(h, "type"); t == LogMarker {
			return true
		}
	}
	return false
}

func (e *SCLEditor) publish(kind events.EventType, metadata map[string]string) {
	if e.notify == nil {
		return
	}
	e.notify(events.Event{Type: kind, File: e.path, Metadata: metadata})
}
