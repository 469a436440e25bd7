package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/waketime/internal/clock"
	"github.com/manav03panchal/waketime/internal/config"
	"github.com/manav03panchal/waketime/internal/model"
)

// completeAlarms returns a completion function for alarm ids.
func completeAlarms(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return alarmCompletions(cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeManyAlarms completes alarm ids for every positional argument.
func completeManyAlarms(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, c := range alarmCompletions(cmd, toComplete) {
		id := strings.SplitN(c, "\t", 2)[0]
		if !contains(args, id) {
			out = append(out, c)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// alarmCompletions returns "id\tdescription" pairs for alarms whose id
// starts with toComplete.
func alarmCompletions(cmd *cobra.Command, toComplete string) []string {
	if ctx == nil || ctx.Alarms == nil {
		return nil
	}

	alarms, err := ctx.Alarms.List(commandContext(cmd))
	if err != nil {
		return nil
	}

	var completions []string
	for _, a := range alarms {
		if strings.HasPrefix(a.ID, toComplete) {
			completions = append(completions, a.ID+"\t"+clock.FormatTimeOfDay(a.Time)+" "+a.Label)
		}
	}
	return completions
}

// completeSounds completes catalog sound ids.
func completeSounds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var completions []string
	for _, s := range model.Sounds() {
		if strings.HasPrefix(s.ID, toComplete) {
			completions = append(completions, s.ID+"\t"+s.Name)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeDays suggests schedule presets and day names.
func completeDays(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	suggestions := append(clock.PresetNames(), "mon-fri", "mon,wed,fri", "sat,sun")

	var filtered []string
	for _, s := range suggestions {
		if strings.HasPrefix(s, toComplete) {
			filtered = append(filtered, s)
		}
	}
	return filtered, cobra.ShellCompDirectiveNoFileComp
}

// completeWebhooks completes configured webhook names.
func completeWebhooks(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, w := range config.Global.Webhooks {
		if strings.HasPrefix(w.Name, toComplete) {
			out = append(out, w.Name+"\t"+w.EffectiveType())
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// fixedCompletions completes from a static list.
func fixedCompletions(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var out []string
		for _, v := range values {
			if strings.HasPrefix(v, toComplete) {
				out = append(out, v)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
