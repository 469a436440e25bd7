package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/waketime/internal/config"
	"github.com/manav03panchal/waketime/internal/daemon"
	"github.com/manav03panchal/waketime/internal/output"
)

// Daemon command flags.
var (
	daemonStartFlagForeground bool
	daemonLogsFlagTail        int
	daemonInstallFlagForce    bool
)

var noStore = map[string]string{annotationNoStore: ""}

// daemonCmd represents the daemon command.
var daemonCmd = &cobra.Command{
	Use:     "daemon [command]",
	Aliases: []string{"bg", "service"},
	Short:   "Manage the background daemon",
	Long: `Manage the waketime daemon that delivers scheduled alarms. The daemon
polls the store for due triggers, records a ring for each and posts
configured webhooks.

Examples:
  waketime daemon start
  waketime daemon status
  waketime daemon stop
  waketime daemon logs -n 50`,
	Annotations: noStore,
	RunE:        runDaemonStatus,
}

// daemonStartCmd starts the daemon.
var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the background daemon",
	Long: `Start the waketime daemon.

Examples:
  waketime daemon start                # Start in background
  waketime daemon start --foreground   # Start in foreground (for debugging)`,
	Annotations: noStore,
	RunE:        runDaemonStart,
}

// daemonStopCmd stops the daemon.
var daemonStopCmd = &cobra.Command{
	Use:         "stop",
	Short:       "Stop the background daemon",
	Annotations: noStore,
	RunE:        runDaemonStop,
}

// daemonStatusCmd shows daemon status.
var daemonStatusCmd = &cobra.Command{
	Use:         "status",
	Short:       "Show daemon status",
	Annotations: noStore,
	RunE:        runDaemonStatus,
}

// daemonPollCmd runs a single delivery pass.
var daemonPollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Deliver due alarms once and exit",
	Long: `Run one delivery pass without starting the daemon. Useful from cron
or when the daemon is not installed.`,
	Annotations: noStore,
	RunE:        runDaemonPoll,
}

// daemonLogsCmd shows daemon logs.
var daemonLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View daemon logs",
	Long: `View the daemon log file.

Examples:
  waketime daemon logs
  waketime daemon logs -n 50`,
	Annotations: noStore,
	RunE:        runDaemonLogs,
}

// daemonInstallCmd installs the daemon as a user service.
var daemonInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install daemon as a user service",
	Long: `Install the waketime daemon as a service that starts on login.

On macOS this creates a launchd agent, on Linux a systemd user unit and on
Windows a service.

Examples:
  waketime daemon install
  waketime daemon install --force   # Reinstall if already installed`,
	Annotations: noStore,
	RunE:        runDaemonInstall,
}

// daemonUninstallCmd removes the user service.
var daemonUninstallCmd = &cobra.Command{
	Use:         "uninstall",
	Short:       "Uninstall the daemon service",
	Annotations: noStore,
	RunE:        runDaemonUninstall,
}

// daemonRunCmd is the entry point used by the service manager.
var daemonRunCmd = &cobra.Command{
	Use:         "run",
	Short:       "Run under the service manager",
	Hidden:      true,
	Annotations: noStore,
	RunE:        runDaemonRun,
}

func init() {
	daemonStartCmd.Flags().BoolVar(&daemonStartFlagForeground, "foreground", false,
		"Run in foreground (don't daemonize)")
	daemonLogsCmd.Flags().IntVarP(&daemonLogsFlagTail, "tail", "n", 20,
		"Number of lines to show")
	daemonInstallCmd.Flags().BoolVar(&daemonInstallFlagForce, "force", false,
		"Force reinstall if already installed")

	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonPollCmd)
	daemonCmd.AddCommand(daemonLogsCmd)
	daemonCmd.AddCommand(daemonInstallCmd)
	daemonCmd.AddCommand(daemonUninstallCmd)
	daemonCmd.AddCommand(daemonRunCmd)

	rootCmd.AddCommand(daemonCmd)
}

// newDaemon builds a daemon over the loaded config. It never opens the
// store itself; each poll does.
func newDaemon() *daemon.Daemon {
	d := daemon.New(config.Global, openRuntime)
	d.SetVersion(Version)
	d.SetDebug(flagDebug)
	return d
}

// passthroughArgs repeats the flags a child process needs to see the same
// configuration.
func passthroughArgs() []string {
	var args []string
	if flagConfig != "" {
		args = append(args, "--config", flagConfig)
	}
	return args
}

func daemonFormatter() (*output.Formatter, error) {
	opts, err := runtimeOptions()
	if err != nil {
		return nil, err
	}
	return newFormatter(opts), nil
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	f, err := daemonFormatter()
	if err != nil {
		return err
	}
	d := newDaemon()

	if daemonStartFlagForeground {
		if d.IsRunning() {
			return fmt.Errorf("%w (PID: %d)", daemon.ErrAlreadyRunning, d.GetStatus().PID)
		}
		if len(config.Global.Webhooks) == 0 && !f.IsJSON() {
			newCLI(f).Muted("No webhooks configured; alarms ring without notifications.")
		}
		if !f.IsJSON() {
			f.Printf("Starting waketime daemon (foreground mode)...\n")
		}
		return d.Start(commandContext(cmd))
	}

	pid, err := d.StartBackground(passthroughArgs()...)
	if stderrors.Is(err, daemon.ErrAlreadyRunning) {
		if f.IsJSON() {
			return f.PrintJSON(map[string]interface{}{"status": "already_running", "pid": pid})
		}
		newCLI(f).Warning(fmt.Sprintf("Daemon is already running (PID: %d)", pid))
		return nil
	}
	if err != nil {
		return err
	}

	if f.IsJSON() {
		return f.PrintJSON(map[string]interface{}{"status": "started", "pid": pid})
	}
	newCLI(f).Success(fmt.Sprintf("Daemon started (PID: %d)", pid))
	return nil
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	f, err := daemonFormatter()
	if err != nil {
		return err
	}
	d := newDaemon()
	pid := d.GetStatus().PID

	err = d.Stop()
	if stderrors.Is(err, daemon.ErrNotRunning) {
		if f.IsJSON() {
			return f.PrintJSON(map[string]interface{}{"status": "not_running"})
		}
		newCLI(f).Muted("Daemon is not running")
		return nil
	}
	if err != nil {
		return err
	}

	if f.IsJSON() {
		return f.PrintJSON(map[string]interface{}{"status": "stopped", "pid": pid})
	}
	newCLI(f).Success(fmt.Sprintf("Daemon stopped (was PID: %d)", pid))
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	f, err := daemonFormatter()
	if err != nil {
		return err
	}
	status := newDaemon().GetStatus()
	if f.IsJSON() {
		return f.PrintJSON(status)
	}

	cli := newCLI(f)
	cli.Title("Waketime Daemon")
	if !status.Running {
		f.Printf("  Status:    stopped\n")
		f.Println()
		cli.Muted("Start with: waketime daemon start")
		return nil
	}
	f.Printf("  Status:    running\n")
	f.Printf("  PID:       %d\n", status.PID)
	if status.Uptime != "" {
		f.Printf("  Uptime:    %s\n", status.Uptime)
	}
	if status.LastPoll != nil {
		f.Printf("  Last poll: %s\n", output.FormatTime(*status.LastPoll))
	}
	f.Printf("  Delivered: %d\n", status.Delivered)
	f.Printf("  Log:       %s\n", status.LogPath)
	return nil
}

func runDaemonPoll(cmd *cobra.Command, args []string) error {
	f, err := daemonFormatter()
	if err != nil {
		return err
	}
	res, err := newDaemon().Poll(commandContext(cmd))
	if err != nil {
		return err
	}
	if f.IsJSON() {
		return f.PrintJSON(map[string]interface{}{
			"status":    "polled",
			"delivered": res.Delivered,
			"dropped":   res.Dropped,
			"failed":    res.Failed,
		})
	}
	cli := newCLI(f)
	if res.Delivered+res.Dropped+res.Failed == 0 {
		cli.Muted("Nothing due")
		return nil
	}
	cli.Success(fmt.Sprintf("Delivered %d alarms", res.Delivered))
	if res.Dropped > 0 {
		cli.Warning(fmt.Sprintf("Dropped %d stale triggers", res.Dropped))
	}
	if res.Failed > 0 {
		cli.Error(fmt.Sprintf("%d deliveries failed", res.Failed))
	}
	return nil
}

func runDaemonLogs(cmd *cobra.Command, args []string) error {
	f, err := daemonFormatter()
	if err != nil {
		return err
	}
	path := newDaemon().LogPath()

	lines, err := daemon.TailLog(path, daemonLogsFlagTail)
	if os.IsNotExist(err) {
		newCLI(f).Muted("No log file found at " + path)
		return nil
	}
	if err != nil {
		return err
	}
	for _, line := range lines {
		f.Println(line)
	}
	return nil
}

func runDaemonInstall(cmd *cobra.Command, args []string) error {
	f, err := daemonFormatter()
	if err != nil {
		return err
	}
	mgr, err := daemon.NewServiceManager(newDaemon(), passthroughArgs()...)
	if err != nil {
		return err
	}

	if mgr.IsInstalled() {
		if !daemonInstallFlagForce {
			if f.IsJSON() {
				return f.PrintJSON(map[string]interface{}{"status": "already_installed"})
			}
			newCLI(f).Muted("Service is already installed. Use --force to reinstall.")
			return nil
		}
		if err := mgr.Uninstall(); err != nil {
			return fmt.Errorf("failed to remove existing service: %w", err)
		}
	}

	if err := mgr.Install(); err != nil {
		return err
	}

	if f.IsJSON() {
		return f.PrintJSON(map[string]interface{}{"status": "installed", "platform": mgr.Platform()})
	}
	cli := newCLI(f)
	cli.Success("Service installed (" + mgr.Platform() + ")")
	cli.Muted("The daemon will start when you log in. To remove: waketime daemon uninstall")
	return nil
}

func runDaemonUninstall(cmd *cobra.Command, args []string) error {
	f, err := daemonFormatter()
	if err != nil {
		return err
	}
	d := newDaemon()
	mgr, err := daemon.NewServiceManager(d)
	if err != nil {
		return err
	}

	if !mgr.IsInstalled() {
		if f.IsJSON() {
			return f.PrintJSON(map[string]interface{}{"status": "not_installed"})
		}
		newCLI(f).Muted("Service is not installed")
		return nil
	}

	// a daemon started by hand is stopped too
	if err := d.Stop(); err != nil && !stderrors.Is(err, daemon.ErrNotRunning) && flagDebug {
		f.Printf("[DEBUG] failed to stop daemon: %v\n", err)
	}
	if err := mgr.Uninstall(); err != nil {
		return err
	}

	if f.IsJSON() {
		return f.PrintJSON(map[string]interface{}{"status": "uninstalled"})
	}
	newCLI(f).Success("Service uninstalled")
	return nil
}

func runDaemonRun(cmd *cobra.Command, args []string) error {
	mgr, err := daemon.NewServiceManager(newDaemon(), passthroughArgs()...)
	if err != nil {
		return err
	}
	return mgr.Run()
}
