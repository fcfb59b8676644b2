package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for flowsankey.

To load completions:

Bash:
  $ source <(flowsankey completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ flowsankey completion bash > /etc/bash_completion.d/flowsankey
  # macOS:
  $ flowsankey completion bash > $(brew --prefix)/etc/bash_completion.d/flowsankey

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ flowsankey completion zsh > "${fpath[1]}/_flowsankey"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ flowsankey completion fish | source

  # To load completions for each session, execute once:
  $ flowsankey completion fish > ~/.config/fish/completions/flowsankey.fish

PowerShell:
  PS> flowsankey completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> flowsankey completion powershell > flowsankey.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		PersistentPreRunE:     func(*cobra.Command, []string) error { return nil },
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}

	return cmd
}
