package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"scltemplates/src/events"
)

const timeLayout = "20060102 15:04:05"

// Manager writes a session log next to every document with logging enabled.
// It observes command and commit events.
type Manager struct {
	mu             sync.Mutex
	fs             afero.Fs
	diag           hclog.Logger
	enabled        map[string]bool
	sessionStarted map[string]bool
}

// NewManager builds a Manager writing through fs. Problems writing the log
// are reported to diag as warnings.
func NewManager(fs afero.Fs, diag hclog.Logger) *Manager {
	if diag == nil {
		diag = hclog.NewNullLogger()
	}
	return &Manager{
		fs:             fs,
		diag:           diag,
		enabled:        map[string]bool{},
		sessionStarted: map[string]bool{},
	}
}

// Handle consumes events for logging.
func (m *Manager) Handle(evt events.Event) {
	if evt.File == "" {
		return
	}
	var line string
	switch evt.Type {
	case events.EventCommandExecuted:
		line = evt.Raw
	case events.EventCommitted:
		line = fmt.Sprintf("[commit] %s", evt.Metadata["summary"])
	case events.EventUndone:
		line = "[undo]"
	case events.EventRedone:
		line = "[redo]"
	default:
		return
	}
	m.mu.Lock()
	enabled := m.enabled[evt.File]
	m.mu.Unlock()
	if !enabled {
		return
	}
	if err := m.append(evt.File, fmt.Sprintf("%s %s", evt.Timestamp.Format(timeLayout), line)); err != nil {
		m.diag.Warn("session log write failed", "file", evt.File, "error", err)
	}
}

// Enable activates logging for a file.
func (m *Manager) Enable(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled[abs] = true
	if !m.sessionStarted[abs] {
		if err := m.append(abs, fmt.Sprintf("session start at %s", time.Now().Format(timeLayout))); err != nil {
			m.diag.Warn("session log write failed", "file", abs, "error", err)
		} else {
			m.sessionStarted[abs] = true
		}
	}
	return nil
}

// Disable turns off logging for a file.
func (m *Manager) Disable(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.enabled, abs)
	return nil
}

// Enabled returns whether logging is active for a path.
func (m *Manager) Enabled(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled[abs]
}

// Restore hydrates manager state from saved entries.
func (m *Manager) Restore(paths []string) {
	for _, p := range paths {
		_ = m.Enable(p)
	}
}

// ActivePaths lists currently enabled files.
func (m *Manager) ActivePaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, 0, len(m.enabled))
	for path := range m.enabled {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// LogFilePath resolves the log file path for a given file.
func LogFilePath(source string) (string, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(abs)
	name := filepath.Base(abs)
	return filepath.Join(dir, fmt.Sprintf(".%s.log", name)), nil
}

// Show returns the log contents for a file.
func (m *Manager) Show(path string) (string, error) {
	logPath, err := LogFilePath(path)
	if err != nil {
		return "", err
	}
	data, err := afero.ReadFile(m.fs, logPath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (m *Manager) append(sourcePath, line string) error {
	logPath, err := LogFilePath(sourcePath)
	if err != nil {
		return err
	}
	if err := m.fs.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return err
	}
	f, err := m.fs.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(strings.TrimSpace(line) + "\n")
	return err
}
