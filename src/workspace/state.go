package workspace

import (
	"encoding/json"
	"path/filepath"

	"github.com/spf13/afero"
)

const stateFile = ".scl_workspace"

// EditorState stores lightweight editor metadata.
type EditorState struct {
	Path     string `json:"path"`
	Modified bool   `json:"modified"`
	// Selected maps a type kind to the id open in its panel.
	Selected map[string]string `json:"selected,omitempty"`
}

// WorkspaceState captures persisted workspace info.
type WorkspaceState struct {
	Editors []EditorState `json:"editors"`
	Active  string        `json:"active"`
	Logging []string      `json:"logging"`
}

// StateKeeper reads/writes workspace state.
type StateKeeper struct {
	fs   afero.Fs
	path string
}

// NewStateKeeper builds a state keeper rooted at baseDir.
func NewStateKeeper(fs afero.Fs, baseDir string) *StateKeeper {
	return &StateKeeper{
		fs:   fs,
		path: filepath.Join(baseDir, stateFile),
	}
}

// Path returns the state file location.
func (s *StateKeeper) Path() string {
	return s.path
}

// Save persists workspace state to disk.
func (s *StateKeeper) Save(state WorkspaceState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(s.fs, s.path, data, 0o644)
}

// Load restores workspace state if present.
func (s *StateKeeper) Load() (WorkspaceState, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return WorkspaceState{}, err
	}
	var state WorkspaceState
	if err := json.Unmarshal(data, &state); err != nil {
		return WorkspaceState{}, err
	}
	return state, nil
}
