package daemon

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/manav03panchal/waketime/internal/config"
	"github.com/manav03panchal/waketime/internal/logging"
	"github.com/manav03panchal/waketime/internal/output"
	"github.com/manav03panchal/waketime/internal/runtime"
	"github.com/manav03panchal/waketime/internal/scheduler"
)

// Opener builds the service graph for one poll. Each poll opens and
// closes the store so CLI commands can use it in between.
type Opener func(ctx context.Context) (*runtime.Context, error)

// Daemon runs the delivery loop.
type Daemon struct {
	cfg      *config.RuntimeConfig
	open     Opener
	pidFile  pidFile
	stateDir string
	version  string
	debug    bool

	Metrics *Metrics
	Health  *HealthChecker

	mu        sync.Mutex
	log       *lumberjack.Logger
	server    *http.Server
	startedAt time.Time
}

// Status represents the daemon status.
type Status struct {
	Running   bool       `json:"running"`
	PID       int        `json:"pid,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Uptime    string     `json:"uptime,omitempty"`
	LastPoll  *time.Time `json:"last_poll,omitempty"`
	Delivered int64      `json:"delivered"`
	LogPath   string     `json:"log_path"`
}

// DaemonState is written next to the pid file after every poll.
type DaemonState struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	LastPoll  time.Time `json:"last_poll,omitempty"`
	Delivered int64     `json:"delivered"`
}

// New creates a daemon. A nil opener opens the configured store.
func New(cfg *config.RuntimeConfig, open Opener) *Daemon {
	if cfg == nil {
		cfg = config.Global
	}
	if open == nil {
		open = func(ctx context.Context) (*runtime.Context, error) {
			return runtime.New(ctx, runtime.Options{
				Config:    cfg,
				Format:    output.FormatCLI,
				ColorMode: output.ColorNever,
			})
		}
	}
	return &Daemon{
		cfg:      cfg,
		open:     open,
		pidFile:  defaultPIDFile(),
		stateDir: StateDir(),
		Metrics:  NewMetrics(),
		Health:   NewHealthChecker("", cfg.Scheduler.PollInterval),
	}
}

// WithStateDir moves the pid, state and log files.
func (d *Daemon) WithStateDir(dir string) *Daemon {
	d.stateDir = dir
	d.pidFile = pidFile(filepath.Join(dir, PIDFileName))
	return d
}

// SetDebug enables debug mode.
func (d *Daemon) SetDebug(debug bool) {
	d.debug = debug
}

// SetVersion records the build version reported by /healthz.
func (d *Daemon) SetVersion(v string) {
	d.version = v
	d.Health.version = v
}

// LogPath returns the daemon log file.
func (d *Daemon) LogPath() string {
	return filepath.Join(d.stateDir, "daemon.log")
}

func (d *Daemon) statePath() string {
	return filepath.Join(d.stateDir, "daemon.json")
}

// GetStatus returns the current daemon status.
func (d *Daemon) GetStatus() *Status {
	status := &Status{LogPath: d.LogPath()}

	pid := d.pidFile.live()
	if pid == 0 {
		return status
	}
	status.Running = true
	status.PID = pid

	if state, err := d.readState(); err == nil {
		started := state.StartedAt
		status.StartedAt = &started
		status.Uptime = formatUptime(time.Since(started))
		if !state.LastPoll.IsZero() {
			last := state.LastPoll
			status.LastPoll = &last
		}
		status.Delivered = state.Delivered
	}
	return status
}

// IsRunning returns true if the daemon is running.
func (d *Daemon) IsRunning() bool {
	return d.pidFile.live() > 0
}

// Poll runs one delivery pass against a freshly opened store.
func (d *Daemon) Poll(ctx context.Context) (scheduler.TickResult, error) {
	start := time.Now()
	res, err := d.poll(ctx)
	d.Metrics.ObserveTick(res, time.Since(start), err)
	d.Health.RecordPoll(time.Now(), err)
	if err != nil {
		return res, err
	}
	if res.Delivered+res.Dropped+res.Failed > 0 {
		logging.Info("poll",
			"delivered", res.Delivered,
			"dropped", res.Dropped,
			"failed", res.Failed,
			logging.KeyDuration, time.Since(start).Milliseconds(),
		)
	}
	d.recordPoll(res)
	return res, nil
}

func (d *Daemon) poll(ctx context.Context) (res scheduler.TickResult, err error) {
	ctx = logging.WithRequestID(ctx, logging.NewRequestID())
	rc, err := d.open(ctx)
	if err != nil {
		return res, err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	res, err = rc.Poller().Tick(ctx)
	if err != nil {
		return res, err
	}

	alarms, lerr := rc.AlarmRepo.List(ctx)
	regs, rerr := rc.RegistrationRepo.List(ctx)
	if lerr == nil && rerr == nil {
		d.Metrics.Alarms.Update(alarms, regs)
	}
	return res, nil
}

// Run polls every scheduler.poll_interval until ctx is done. It owns the
// pid file, state file, log file and metrics server for its lifetime.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.openLog(); err != nil {
		return err
	}
	defer d.closeLog()

	if err := d.pidFile.claim(); err != nil {
		logging.Error("failed to start", logging.KeyError, err)
		return err
	}
	defer d.pidFile.release()

	d.startedAt = time.Now()
	if err := d.writeState(&DaemonState{PID: os.Getpid(), StartedAt: d.startedAt}); err != nil {
		logging.Error("failed to start", logging.KeyError, err)
		return err
	}
	defer d.removeState()

	if err := d.serveMetrics(); err != nil {
		logging.Error("failed to start", logging.KeyError, err)
		return err
	}
	defer d.stopMetrics()

	sched := scheduler.NewScheduler(d.cfg.Scheduler.PollInterval, func(ctx context.Context) error {
		_, err := d.Poll(ctx)
		return err
	})
	if err := sched.Start(ctx); err != nil {
		logging.Error("failed to start", logging.KeyError, err)
		return err
	}
	logging.Info("daemon started",
		"pid", os.Getpid(),
		"interval", d.cfg.Scheduler.PollInterval.String(),
		"catch_up_window", d.cfg.Scheduler.CatchUpWindow.String(),
	)

	<-ctx.Done()
	sched.Stop()
	logging.Info("daemon stopped")
	return nil
}

// Start runs the daemon in the foreground until SIGINT or SIGTERM. SIGHUP
// rotates the log file.
func (d *Daemon) Start(ctx context.Context) error {
	if d.IsRunning() {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := newSignalLoop(func() {
		if err := d.RotateLog(); err != nil {
			logging.Warn("log rotation failed", logging.KeyError, err)
		}
	})
	sigs.listen()
	defer sigs.stop()

	go func() {
		if sig := sigs.run(ctx); sig != nil {
			logging.Info("received signal", "signal", sig.String())
		}
		cancel()
	}()

	return d.Run(ctx)
}

// StartBackground re-executes the binary as a detached foreground daemon.
func (d *Daemon) StartBackground(extraArgs ...string) (int, error) {
	if pid := d.pidFile.live(); pid > 0 {
		return pid, ErrAlreadyRunning
	}

	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}

	args := append([]string{"daemon", "start", "--foreground"}, extraArgs...)
	if d.debug {
		args = append(args, "--debug")
	}

	cmd := exec.Command(executable, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}
	_ = cmd.Process.Release()

	time.Sleep(d.cfg.Daemon.StartupWait)

	if d.pidFile.live() == 0 {
		if errMsg := lastLogError(d.LogPath()); errMsg != "" {
			return 0, fmt.Errorf("daemon failed to start: %s", errMsg)
		}
		return 0, fmt.Errorf("daemon failed to start (check logs: %s)", d.LogPath())
	}
	return cmd.Process.Pid, nil
}

// Stop asks the running daemon to exit and waits up to
// daemon.shutdown_timeout before killing it.
func (d *Daemon) Stop() error {
	pid := d.pidFile.live()
	if pid == 0 {
		return ErrNotRunning
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	if err := process.Signal(os.Interrupt); err != nil {
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to stop daemon: %w", err)
		}
	}

	deadline := time.Now().Add(d.cfg.Daemon.ShutdownTimeout)
	for processAlive(pid) {
		if time.Now().After(deadline) {
			_ = process.Kill()
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	_ = d.pidFile.release()
	d.removeState()
	return nil
}

func (d *Daemon) openLog() error {
	if err := os.MkdirAll(d.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	d.mu.Lock()
	d.log = OpenLog(d.LogPath())
	d.mu.Unlock()
	InitLogging(d.log, d.cfg.Log, d.debug)
	return nil
}

func (d *Daemon) closeLog() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.log != nil {
		logging.Init(logging.DefaultConfig())
		_ = d.log.Close()
		d.log = nil
	}
}

// RotateLog starts a new log file, keeping LogMaxBackups old ones.
func (d *Daemon) RotateLog() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.log == nil {
		return nil
	}
	return d.log.Rotate()
}

func (d *Daemon) serveMetrics() error {
	addr := d.cfg.Daemon.MetricsAddr
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", d.Metrics.Handler())
	mux.Handle("/healthz", d.Health)

	d.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := d.server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logging.Error("metrics server failed", logging.KeyError, err)
		}
	}()
	logging.Info("metrics listening", "addr", addr)
	return nil
}

func (d *Daemon) stopMetrics() {
	if d.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.server.Shutdown(ctx); err != nil {
		logging.Warn("metrics server forced to shutdown", logging.KeyError, err)
	}
	d.server = nil
}

func (d *Daemon) recordPoll(res scheduler.TickResult) {
	if d.startedAt.IsZero() {
		return
	}
	state, err := d.readState()
	if err != nil {
		state = &DaemonState{PID: os.Getpid(), StartedAt: d.startedAt}
	}
	state.LastPoll = res.Now
	state.Delivered += int64(res.Delivered)
	if err := d.writeState(state); err != nil {
		logging.Warn("failed to write daemon state", logging.KeyError, err)
	}
}

func (d *Daemon) writeState(state *DaemonState) error {
	if err := os.MkdirAll(d.stateDir, 0755); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return os.WriteFile(d.statePath(), data, 0644)
}

func (d *Daemon) readState() (*DaemonState, error) {
	data, err := os.ReadFile(d.statePath())
	if err != nil {
		return nil, err
	}
	var state DaemonState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (d *Daemon) removeState() {
	if err := os.Remove(d.statePath()); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove daemon state file", logging.KeyError, err, "path", d.statePath())
	}
}

// formatUptime formats a duration as uptime.
func formatUptime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}
