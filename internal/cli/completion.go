package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/crossdrop/internal/chain"
	"github.com/mrz1836/crossdrop/internal/config"
)

// completionCmd generates shell completion scripts.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var completionCmd = &cobra.Command{
	Use:     "completion [bash|zsh|fish|powershell]",
	Short:   "Generate shell completion script",
	GroupID: groupConfig,
	Long: `Generate a shell completion script for crossdrop.

Besides commands and flags, the script completes the dotted keys of
'config get' and 'config set', known network names for --network and for
the *.network keys, and the accepted values of --output and output.color.

Load it for the current shell, or write it once where your shell looks:

  bash        source <(crossdrop completion bash)
  zsh         crossdrop completion zsh > "${fpath[1]}/_crossdrop"
  fish        crossdrop completion fish > ~/.config/fish/completions/crossdrop.fish
  powershell  crossdrop completion powershell | Out-String | Invoke-Expression

Zsh needs compinit enabled; start a new shell afterwards.`,
	Example: `  crossdrop completion bash > /etc/bash_completion.d/crossdrop
  crossdrop completion zsh > "${fpath[1]}/_crossdrop"`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletionV2(cmd.OutOrStdout(), true)
		case "zsh":
			return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		}
		return nil
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(completionCmd)

	configGetCmd.ValidArgsFunction = completeConfigGet
	configSetCmd.ValidArgsFunction = completeConfigSet
}

// valueCompletions lists the accepted values of enumerated config keys.
func valueCompletions(key string) []string {
	switch {
	case key == "output.color":
		return []string{"auto", "always", "never"}
	case key == "output.default_format":
		return outputFormats()
	case key == "logging.level":
		return []string{"off", "error", "info", "debug"}
	case strings.HasSuffix(key, ".network"):
		return networkNames()
	}
	return nil
}

func outputFormats() []string {
	return []string{"auto", "text", "json"}
}

func networkNames() []string {
	nets := chain.Networks()
	names := make([]string, 0, len(nets))
	for _, n := range nets {
		names = append(names, n.Name.String())
	}
	return names
}

func withPrefix(values []string, prefix string) []string {
	var out []string
	for _, v := range values {
		if strings.HasPrefix(v, prefix) {
			out = append(out, v)
		}
	}
	return out
}

func completeConfigGet(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return withPrefix(config.Keys(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

func completeConfigSet(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return withPrefix(config.Keys(), toComplete), cobra.ShellCompDirectiveNoFileComp
	case 1:
		if values := valueCompletions(args[0]); values != nil {
			return withPrefix(values, toComplete), cobra.ShellCompDirectiveNoFileComp
		}
		// Free-form value such as a path or address.
		return nil, cobra.ShellCompDirectiveDefault
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func completeNetworkFlag(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return withPrefix(networkNames(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

func completeOutputFlag(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return withPrefix(outputFormats(), toComplete), cobra.ShellCompDirectiveNoFileComp
}
