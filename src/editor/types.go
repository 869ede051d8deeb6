package editor

import "scltemplates/src/events"

// Editor exposes the behaviour the workspace needs from an open document.
type Editor interface {
	Path() string
	Name() string
	IsModified() bool
	SetModified(bool)
	Content() (string, error)
	Undo() error
	Redo() error
}

// Notifier receives the document events of an editor.
type Notifier func(events.Event)

// LogMarker is the Private type that turns on the session log when a
// document is loaded.
const LogMarker = "scltemplates-log"
