package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/waketime/internal/config"
	"github.com/manav03panchal/waketime/internal/notify"
	"github.com/manav03panchal/waketime/internal/output"
)

// webhookCmd represents the webhook command.
var webhookCmd = &cobra.Command{
	Use:     "webhook",
	Aliases: []string{"wh", "hook"},
	Short:   "Inspect and test notification webhooks",
	Long: `Webhooks are declared in the config file under "webhooks". Each one
receives every alarm notification unless "events" narrows the list to
some of alarm.fired, alarm.snoozed, alarm.auto_snoozed and alarm.dismissed.

  webhooks:
    - name: phone
      url: https://discord.com/api/webhooks/...
      events: [alarm.fired, alarm.auto_snoozed]

Examples:
  waketime webhook list
  waketime webhook test phone`,
	Annotations: noStore,
}

var webhookListCmd = &cobra.Command{
	Use:         "list",
	Aliases:     []string{"ls"},
	Short:       "List configured webhooks",
	Args:        cobra.NoArgs,
	Annotations: noStore,
	RunE:        runWebhookList,
}

var webhookTestCmd = &cobra.Command{
	Use:               "test [NAME]",
	Short:             "Send a test notification",
	Long:              `Send a test notification to one webhook, or to every enabled webhook.`,
	Args:              cobra.MaximumNArgs(1),
	Annotations:       noStore,
	ValidArgsFunction: completeWebhooks,
	RunE:              runWebhookTest,
}

func init() {
	webhookCmd.AddCommand(webhookListCmd)
	webhookCmd.AddCommand(webhookTestCmd)
	rootCmd.AddCommand(webhookCmd)
}

func newDispatcher() *notify.Dispatcher {
	return notify.NewDispatcher(config.Global.Webhooks, notify.NewHTTPClient(config.Global.HTTP))
}

func runWebhookList(cmd *cobra.Command, args []string) error {
	f, err := daemonFormatter()
	if err != nil {
		return err
	}
	hooks := newDispatcher().Webhooks()
	if f.IsJSON() {
		return f.PrintJSON(map[string]interface{}{"webhooks": hooks})
	}

	cli := newCLI(f)
	if len(hooks) == 0 {
		cli.Muted("No webhooks configured. Add them to " + configPathHint())
		return nil
	}
	rows := make([]output.TableRow, 0, len(hooks))
	for _, w := range hooks {
		events := "all"
		if len(w.Events) > 0 {
			events = fmt.Sprint(w.Events)
		}
		state := "enabled"
		if !w.IsEnabled() {
			state = "disabled"
		}
		rows = append(rows, output.TableRow{Columns: []string{w.Name, w.EffectiveType(), events, state}})
	}
	cli.PrintTable([]string{"NAME", "TYPE", "EVENTS", "STATE"}, rows)
	return nil
}

func runWebhookTest(cmd *cobra.Command, args []string) error {
	f, err := daemonFormatter()
	if err != nil {
		return err
	}
	c := commandContext(cmd)
	d := newDispatcher()

	var names []string
	if len(args) == 1 {
		names = args
	} else {
		for _, w := range d.Webhooks() {
			if w.IsEnabled() {
				names = append(names, w.Name)
			}
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("no enabled webhooks configured")
	}

	results := make([]map[string]interface{}, 0, len(names))
	failed := 0
	cli := newCLI(f)
	for _, name := range names {
		r := d.TestWebhook(c, name)
		entry := map[string]interface{}{
			"name":        r.WebhookName,
			"success":     r.Success,
			"status_code": r.StatusCode,
			"attempts":    r.Attempts,
		}
		if r.Error != nil {
			entry["error"] = r.Error.Error()
			failed++
		}
		results = append(results, entry)

		if f.IsJSON() {
			continue
		}
		if r.Success {
			cli.Success(fmt.Sprintf("%s: delivered in %s", name, output.FormatDuration(r.Duration)))
		} else {
			cli.Error(fmt.Sprintf("%s: %v", name, r.Error))
		}
	}

	if f.IsJSON() {
		if err := f.PrintJSON(map[string]interface{}{"results": results}); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d webhooks failed", failed, len(names))
	}
	return nil
}
