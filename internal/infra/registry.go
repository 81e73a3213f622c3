package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/eliteGoblin/eztrackd/internal/domain"
)

const registryFileName = ".eztrackd.session.json"

// FileRegistry implements domain.SessionRegistry using a hidden JSON file
// under the OS temp dir. The status command reads it to find the running
// tracker daemon.
type FileRegistry struct {
	path string
}

// NewFileRegistry creates a session registry at the default location.
func NewFileRegistry() *FileRegistry {
	return &FileRegistry{
		path: filepath.Join(os.TempDir(), registryFileName),
	}
}

// NewFileRegistryWithPath creates a registry at a specific path (for testing).
func NewFileRegistryWithPath(path string) *FileRegistry {
	return &FileRegistry{path: path}
}

// RegistryPath returns the registry file location.
func (r *FileRegistry) RegistryPath() string {
	return r.path
}

// Register saves the current session.
func (r *FileRegistry) Register(s domain.Session) error {
	return r.atomicWrite(&s)
}

// Get returns the registered session, or nil if none exists.
func (r *FileRegistry) Get() (*domain.Session, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("corrupt session registry: %w", err)
	}
	return &s, nil
}

// UpdateFlush records the time of the most recent flush attempt.
func (r *FileRegistry) UpdateFlush(at time.Time) error {
	s, err := r.Get()
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("no session registered")
	}
	s.LastFlushAt = at
	return r.atomicWrite(s)
}

// IsAlive checks whether pid belongs to a running process.
func (r *FileRegistry) IsAlive(pid int) bool {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	running, err := p.IsRunning()
	return err == nil && running
}

// Clear removes the registry file.
func (r *FileRegistry) Clear() error {
	err := os.Remove(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// atomicWrite writes the session to file atomically (write + rename).
func (r *FileRegistry) atomicWrite(s *domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	// Write to temp file first (unique per process to avoid race)
	tmpPath := fmt.Sprintf("%s.%d.tmp", r.path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath) // Clean up on failure
		return err
	}
	return nil
}

// Ensure FileRegistry implements domain.SessionRegistry.
var _ domain.SessionRegistry = (*FileRegistry)(nil)
