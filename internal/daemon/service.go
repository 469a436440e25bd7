package daemon

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/kardianos/service"

	"github.com/manav03panchal/waketime/internal/logging"
)

// ServiceName is the name registered with launchd, systemd or the
// Windows service manager.
const ServiceName = "waketime"

// program adapts the daemon to service.Interface.
type program struct {
	d      *Daemon
	cancel context.CancelFunc
	done   chan error
}

// Start must not block; the loop runs in its own goroutine.
func (p *program) Start(s service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)
	go func() {
		p.done <- p.d.Run(ctx)
	}()
	return nil
}

// Stop cancels the loop and waits for it to release the store.
func (p *program) Stop(s service.Service) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	select {
	case err := <-p.done:
		return err
	case <-time.After(p.d.cfg.Daemon.ShutdownTimeout):
		logging.Warn("daemon did not stop in time", "timeout", p.d.cfg.Daemon.ShutdownTimeout.String())
		return nil
	}
}

// ServiceConfig describes the user-level service that runs `waketime daemon run`.
func ServiceConfig(extraArgs ...string) *service.Config {
	return &service.Config{
		Name:        ServiceName,
		DisplayName: "Waketime alarm daemon",
		Description: "Delivers scheduled waketime alarms",
		Arguments:   append([]string{"daemon", "run"}, extraArgs...),
		Option: service.KeyValue{
			"UserService": true,
			"KeepAlive":   true,
			"RunAtLoad":   true,
		},
	}
}

// ServiceManager handles system service installation.
type ServiceManager struct {
	svc service.Service
}

// NewServiceManager binds d to the platform service manager.
func NewServiceManager(d *Daemon, extraArgs ...string) (*ServiceManager, error) {
	svc, err := service.New(&program{d: d}, ServiceConfig(extraArgs...))
	if err != nil {
		return nil, fmt.Errorf("service manager unavailable: %w", err)
	}
	return &ServiceManager{svc: svc}, nil
}

// Install registers the daemon to start at login.
func (m *ServiceManager) Install() error {
	return m.control("install")
}

// Uninstall stops and removes the service registration.
func (m *ServiceManager) Uninstall() error {
	_ = service.Control(m.svc, "stop")
	return m.control("uninstall")
}

// Start starts the installed service.
func (m *ServiceManager) Start() error {
	return m.control("start")
}

// Stop stops the installed service.
func (m *ServiceManager) Stop() error {
	return m.control("stop")
}

func (m *ServiceManager) control(action string) error {
	if err := service.Control(m.svc, action); err != nil {
		return fmt.Errorf("failed to %s service: %w", action, err)
	}
	return nil
}

// Status reports the service state as a word: running, stopped,
// not installed or unknown.
func (m *ServiceManager) Status() string {
	st, err := m.svc.Status()
	if err != nil {
		if stderrors.Is(err, service.ErrNotInstalled) {
			return "not installed"
		}
		return "unknown"
	}
	return statusName(st)
}

// IsInstalled reports whether the service is registered.
func (m *ServiceManager) IsInstalled() bool {
	_, err := m.svc.Status()
	return !stderrors.Is(err, service.ErrNotInstalled)
}

// Run blocks under the service manager, or until interrupted when run
// from a terminal.
func (m *ServiceManager) Run() error {
	logger, err := m.svc.Logger(nil)
	if err != nil {
		return err
	}
	if err := m.svc.Run(); err != nil {
		_ = logger.Error(err)
		return err
	}
	return nil
}

// Platform names the service backend, e.g. "linux-systemd".
func (m *ServiceManager) Platform() string {
	return m.svc.Platform()
}

func statusName(st service.Status) string {
	switch st {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
