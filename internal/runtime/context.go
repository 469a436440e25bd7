// Package runtime wires the store, scheduler, lifecycle engine and output
// formatter that every waketime command works through.
package runtime

import (
	"context"
	"os"
	"time"

	"github.com/manav03panchal/waketime/internal/alarms"
	"github.com/manav03panchal/waketime/internal/config"
	"github.com/manav03panchal/waketime/internal/lifecycle"
	"github.com/manav03panchal/waketime/internal/notify"
	"github.com/manav03panchal/waketime/internal/output"
	"github.com/manav03panchal/waketime/internal/scheduler"
	"github.com/manav03panchal/waketime/internal/storage"
)

// EnvDatabase overrides the storage DSN; ":memory:" opens a throwaway store.
const EnvDatabase = "WAKETIME_DATABASE"

// Context holds the application runtime context.
type Context struct {
	Config    *config.RuntimeConfig
	Store     storage.Store
	Formatter *output.Formatter

	// Repositories
	AlarmRepo        *storage.AlarmRepo
	RegistrationRepo *storage.RegistrationRepo
	StateRepo        *storage.StateRepo

	Notifier   *scheduler.StoreNotifier
	Registrar  *scheduler.Registrar
	Engine     *lifecycle.Engine
	Alarms     *alarms.Service
	Dispatcher *notify.Dispatcher

	// Debug mode
	Debug bool
}

// Options configures the runtime context.
type Options struct {
	// Config defaults to config.Global.
	Config    *config.RuntimeConfig
	InMemory  bool
	Format    output.Format
	ColorMode output.ColorMode
	Debug     bool
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		Config:    config.Global,
		InMemory:  false,
		Format:    output.FormatCLI,
		ColorMode: output.ColorAuto,
		Debug:     false,
	}
}

// New opens the store and builds the service graph on top of it.
func New(ctx context.Context, opts Options) (*Context, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Global
	}

	storeOpts := storage.Options{
		Driver:      cfg.Storage.Driver,
		DSN:         cfg.Storage.DSN,
		InMemory:    opts.InMemory,
		OpenTimeout: cfg.Storage.OpenTimeout,
	}
	if env := os.Getenv(EnvDatabase); env != "" {
		if env == ":memory:" {
			storeOpts.Driver = storage.DriverBadger
			storeOpts.InMemory = true
		} else {
			storeOpts.DSN = env
		}
	}

	store, err := storage.Open(ctx, storeOpts)
	if err != nil {
		return nil, err
	}

	formatter := output.NewFormatter()
	formatter.Format = opts.Format
	formatter.ColorMode = opts.ColorMode
	if formatter.Format == "" {
		formatter.Format = output.FormatCLI
	}
	if formatter.ColorMode == "" {
		formatter.ColorMode = output.ColorAuto
	}

	rc := &Context{
		Config:    cfg,
		Store:     store,
		Formatter: formatter,
		Debug:     opts.Debug,
	}
	rc.wire()
	return rc, nil
}

func (c *Context) wire() {
	cfg := c.Config

	c.AlarmRepo = storage.NewAlarmRepo(c.Store).WithRetention(storage.Retention{
		MaxEvents: cfg.History.MaxEvents,
		MaxAge:    cfg.History.MaxAge,
	})
	c.RegistrationRepo = storage.NewRegistrationRepo(c.Store)
	c.StateRepo = storage.NewStateRepo(c.Store)

	c.Notifier = scheduler.NewStoreNotifier(c.Store, cfg.Notifications.Enabled)
	c.Registrar = scheduler.NewRegistrar(c.Notifier)
	c.Dispatcher = notify.NewDispatcher(cfg.Webhooks, notify.NewHTTPClient(cfg.HTTP))
	c.Engine = lifecycle.NewEngine(c.AlarmRepo, c.Registrar).
		WithEscalationTimeout(cfg.Alarm.EscalationTimeout).
		WithEmitter(c.Dispatcher)
	c.Alarms = alarms.NewService(c.AlarmRepo, c.Registrar)
}

// Poller builds a delivery poller that hands due triggers to the engine.
func (c *Context) Poller() *scheduler.Poller {
	return scheduler.NewPoller(c.Store, c.Notifier, c.Engine.Deliver).
		WithCatchUpWindow(c.Config.Scheduler.CatchUpWindow)
}

// Close flushes pending webhook deliveries and closes the store.
func (c *Context) Close() error {
	if c.Dispatcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), c.flushTimeout())
		_ = c.Dispatcher.Wait(ctx)
		cancel()
	}
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}

func (c *Context) flushTimeout() time.Duration {
	if c.Config != nil && c.Config.HTTP.Timeout > 0 {
		return c.Config.HTTP.Timeout
	}
	return 10 * time.Second
}

// CLIFormatter returns a CLI formatter.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	return output.NewCLIFormatter(c.Formatter)
}

// JSONFormatter returns a JSON formatter.
func (c *Context) JSONFormatter() *output.JSONFormatter {
	return output.NewJSONFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.Format == output.FormatJSON
}

// IsCLI returns true if output format is CLI.
func (c *Context) IsCLI() bool {
	return c.Formatter.Format == output.FormatCLI
}

// Debugf prints debug output if debug mode is enabled.
func (c *Context) Debugf(format string, args ...interface{}) {
	if c.Debug {
		c.Formatter.Printf("[DEBUG] "+format+"\n", args...)
	}
}
