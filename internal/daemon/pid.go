// Package daemon runs the delivery loop in the background: pid and state
// files, signal handling, log rotation, OS service registration and the
// Prometheus endpoint.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/adrg/xdg"
)

const (
	// AppName names the state directory.
	AppName = "waketime"
	// PIDFileName is the pid file inside the state directory.
	PIDFileName = "waketime.pid"
)

var (
	ErrNotRunning     = errors.New("daemon is not running")
	ErrAlreadyRunning = errors.New("daemon is already running")
)

// StateDir holds the pid, state and log files. The XDG state home exists
// on every platform, unlike the runtime dir.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// pidFile records which process is delivering alarms. Only one daemon may
// hold it; a file naming a dead process is ignored.
type pidFile string

func defaultPIDFile() pidFile {
	return pidFile(filepath.Join(StateDir(), PIDFileName))
}

// claim records the current process, failing when another live daemon
// already owns the file.
func (p pidFile) claim() error {
	if pid := p.live(); pid > 0 && pid != os.Getpid() {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	return p.write(os.Getpid())
}

func (p pidFile) write(pid int) error {
	if err := os.MkdirAll(filepath.Dir(string(p)), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := os.WriteFile(string(p), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// read returns the recorded pid, or ErrNotRunning when there is no file.
func (p pidFile) read() (int, error) {
	data, err := os.ReadFile(string(p))
	if os.IsNotExist(err) {
		return 0, ErrNotRunning
	}
	if err != nil {
		return 0, fmt.Errorf("read pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in %s: %w", p, err)
	}
	return pid, nil
}

// live returns the recorded pid when that process still exists, else 0.
func (p pidFile) live() int {
	pid, err := p.read()
	if err != nil || !processAlive(pid) {
		return 0
	}
	return pid
}

func (p pidFile) release() error {
	if err := os.Remove(string(p)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}

// processAlive probes pid with signal 0. FindProcess alone always
// succeeds on Unix.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
