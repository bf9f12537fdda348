// Package daemon tracks a background bugtrack server through its PID file.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrRunning is returned by Acquire when another live process owns the PID file.
var ErrRunning = errors.New("server is already running")

// ErrNotRunning is returned by Stop when no live process owns the PID file.
var ErrNotRunning = errors.New("server is not running")

// PIDFile manages a PID file for daemon process tracking.
type PIDFile struct {
	Path string
}

// NewPIDFile creates a PIDFile manager for the given path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{Path: path}
}

// Write writes the current process's PID to the file.
func (p *PIDFile) Write() error {
	return p.WritePID(os.Getpid())
}

// WritePID writes the given PID to the file, creating its directory.
func (p *PIDFile) WritePID(pid int) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return fmt.Errorf("create PID directory: %w", err)
	}
	return os.WriteFile(p.Path, []byte(strconv.Itoa(pid)+"\n"), 0o644)
}

// Read reads the PID from the file.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file content: %w", err)
	}
	return pid, nil
}

// Remove deletes the PID file.
func (p *PIDFile) Remove() error {
	return os.Remove(p.Path)
}

// Acquire claims the PID file for pid. A file left behind by a dead process is
// replaced; one owned by a live process other than pid yields ErrRunning.
func (p *PIDFile) Acquire(pid int) error {
	if owner, running := p.IsRunning(); running && owner != pid {
		return fmt.Errorf("%w (PID %d)", ErrRunning, owner)
	}
	return p.WritePID(pid)
}

// Release removes the PID file if it still names pid.
func (p *PIDFile) Release(pid int) error {
	owner, err := p.Read()
	if err != nil || owner != pid {
		return nil
	}
	return p.Remove()
}

// Stop sends term to the recorded process and waits up to grace for it to exit,
// then sends kill. The PID file is removed once the process is gone.
func (p *PIDFile) Stop(term, kill os.Signal, grace time.Duration) (int, error) {
	pid, running := p.IsRunning()
	if !running {
		_ = p.Remove()
		return 0, ErrNotRunning
	}

	if err := p.signal(pid, term); err != nil {
		return pid, fmt.Errorf("signal PID %d: %w", pid, err)
	}
	if !p.waitExit(pid, grace) {
		if err := p.signal(pid, kill); err != nil {
			return pid, fmt.Errorf("kill PID %d: %w", pid, err)
		}
		p.waitExit(pid, grace)
	}
	_ = p.Remove()
	return pid, nil
}

func (p *PIDFile) signal(pid int, sig os.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(sig)
}

func (p *PIDFile) waitExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !alive(pid) {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return !alive(pid)
}
