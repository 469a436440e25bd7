package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/manav03panchal/waketime/internal/config"
)

// configCmd represents the config command.
var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"cfg", "settings"},
	Short:   "Inspect the configuration",
	Long: `Inspect the effective configuration. Values come from config.yaml,
then WAKETIME_* environment variables (e.g. WAKETIME_ALARM_DEFAULT_SNOOZE),
then a .env file in the working directory.

Examples:
  waketime config show
  waketime config path
  waketime config validate --config ./waketime.yaml`,
	Annotations: noStore,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the effective configuration as YAML",
	Args:        cobra.NoArgs,
	Annotations: noStore,
	RunE:        runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the config file location",
	Args:        cobra.NoArgs,
	Annotations: noStore,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := daemonFormatter()
		if err != nil {
			return err
		}
		if f.IsJSON() {
			return f.PrintJSON(map[string]interface{}{"path": configPathHint()})
		}
		f.Println(configPathHint())
		return nil
	},
}

// configValidateCmd relies on the root pre-run, which refuses to run any
// command with an invalid configuration.
var configValidateCmd = &cobra.Command{
	Use:         "validate",
	Short:       "Check the configuration",
	Args:        cobra.NoArgs,
	Annotations: noStore,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := daemonFormatter()
		if err != nil {
			return err
		}
		if f.IsJSON() {
			return f.PrintJSON(map[string]interface{}{"status": "valid", "path": configPathHint()})
		}
		newCLI(f).Success("Configuration is valid")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	f, err := daemonFormatter()
	if err != nil {
		return err
	}
	settings := configSettings(config.Global)
	if f.IsJSON() {
		return f.PrintJSON(settings)
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	f.Print(string(out))
	return nil
}

// configSettings mirrors the config file layout, with durations written
// the way the file accepts them.
func configSettings(c *config.RuntimeConfig) map[string]interface{} {
	dur := func(d time.Duration) string { return d.String() }

	return map[string]interface{}{
		"alarm": map[string]interface{}{
			"escalation_timeout": dur(c.Alarm.EscalationTimeout),
			"default_snooze":     c.Alarm.DefaultSnooze,
			"snooze_options":     c.Alarm.SnoozeOptions,
			"default_sound":      c.Alarm.DefaultSound,
		},
		"history": map[string]interface{}{
			"max_events": c.History.MaxEvents,
			"max_age":    dur(c.History.MaxAge),
		},
		"scheduler": map[string]interface{}{
			"poll_interval":   dur(c.Scheduler.PollInterval),
			"catch_up_window": dur(c.Scheduler.CatchUpWindow),
		},
		"storage": map[string]interface{}{
			"driver":       c.Storage.Driver,
			"dsn":          c.Storage.DSN,
			"open_timeout": dur(c.Storage.OpenTimeout),
		},
		"daemon": map[string]interface{}{
			"startup_wait":     dur(c.Daemon.StartupWait),
			"shutdown_timeout": dur(c.Daemon.ShutdownTimeout),
			"metrics_addr":     c.Daemon.MetricsAddr,
		},
		"http": map[string]interface{}{
			"timeout":        dur(c.HTTP.Timeout),
			"max_retries":    c.HTTP.MaxRetries,
			"retry_wait":     dur(c.HTTP.RetryWait),
			"retry_max_wait": dur(c.HTTP.RetryMaxWait),
		},
		"log": map[string]interface{}{
			"level": c.Log.Level,
			"json":  c.Log.JSON,
		},
		"notifications": map[string]interface{}{
			"enabled": c.Notifications.Enabled,
		},
		"webhooks": c.Webhooks,
	}
}
