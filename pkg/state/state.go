// Package state records the last successfully built revision per watched
// root, so scans can default their base revision to "what was built last".
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// BuildState records the last successful build run for one watched root.
type BuildState struct {
	Root     string    `json:"root"`
	Revision string    `json:"revision"`
	Units    []string  `json:"units,omitempty"`
	BuiltAt  time.Time `json:"built_at"`
}

// BaseDir returns the base imagectl directory (~/.imagectl/).
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".imagectl")
}

// StateDir returns the directory for state files (~/.imagectl/state/).
func StateDir() string {
	return filepath.Join(BaseDir(), "state")
}

// LogDir returns the directory for log files (~/.imagectl/logs/).
func LogDir() string {
	return filepath.Join(BaseDir(), "logs")
}

// key flattens a watched root path into a file name.
func key(root string) string {
	return strings.ReplaceAll(strings.Trim(root, "/"), "/", "-")
}

// StatePath returns the path to the state file for a watched root.
func StatePath(root string) string {
	return filepath.Join(StateDir(), key(root)+".json")
}

// LogPath returns the path to the log file for a watched root.
func LogPath(root string) string {
	return filepath.Join(LogDir(), key(root)+".log")
}

// LockPath returns the path to the lock file for a watched root.
func LockPath(root string) string {
	return filepath.Join(StateDir(), key(root)+".lock")
}

// Load reads the build state for a watched root.
func Load(root string) (*BuildState, error) {
	data, err := os.ReadFile(StatePath(root))
	if err != nil {
		return nil, err
	}

	var st BuildState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}

	return &st, nil
}

// Save writes the build state for a watched root.
func Save(st *BuildState) error {
	if err := os.MkdirAll(StateDir(), 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	if err := os.WriteFile(StatePath(st.Root), data, 0644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}

	return nil
}

// Delete removes the state file for a watched root.
func Delete(root string) error {
	if err := os.Remove(StatePath(root)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns all recorded build states.
func List() ([]BuildState, error) {
	entries, err := os.ReadDir(StateDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var states []BuildState
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(StateDir(), entry.Name()))
		if err != nil {
			continue
		}
		var st BuildState
		if err := json.Unmarshal(data, &st); err != nil {
			continue // Skip invalid state files
		}
		states = append(states, st)
	}

	return states, nil
}

// EnsureLogDir creates the log directory if it doesn't exist.
func EnsureLogDir() error {
	return os.MkdirAll(LogDir(), 0755)
}

// WithLock executes fn while holding an exclusive lock on the root's state.
// Returns an error if the lock cannot be acquired within timeout.
func WithLock(root string, timeout time.Duration, fn func() error) error {
	if err := os.MkdirAll(StateDir(), 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	lockFile, err := os.OpenFile(LockPath(root), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}
	defer lockFile.Close()

	deadline := time.Now().Add(timeout)
	for {
		err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout acquiring state lock for %s (another run may be in progress)", root)
		}
		time.Sleep(100 * time.Millisecond)
	}
	defer func() {
		_ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)
	}()

	return fn()
}
