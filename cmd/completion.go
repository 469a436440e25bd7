// Waketime - a command-line alarm clock
// Copyright (c) Manav Panchal
//
// Licensed under the SEGV License, Version 1.0
// See LICENSE file for full license text.
package cmd

import (
	"github.com/spf13/cobra"
)

// completionCmd represents the completion command.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for waketime. Alarm ids complete
from the local store, so "waketime dismiss <TAB>" offers the ringing alarm.

To load completions:

Bash:
  $ source <(waketime completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ waketime completion bash > /etc/bash_completion.d/waketime
  # macOS:
  $ waketime completion bash > $(brew --prefix)/etc/bash_completion.d/waketime

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ waketime completion zsh > "${fpath[1]}/_waketime"

Fish:
  $ waketime completion fish > ~/.config/fish/completions/waketime.fish

PowerShell:
  PS> waketime completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Annotations:           noStore,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletionV2(stdout, true)
		case "zsh":
			return rootCmd.GenZshCompletion(stdout)
		case "fish":
			return rootCmd.GenFishCompletion(stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(stdout)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
