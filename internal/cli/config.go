package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mrz1836/crossdrop/internal/config"
	"github.com/mrz1836/crossdrop/internal/output"
	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage configuration",
	GroupID: groupConfig,
	Long:    `View and modify crossdrop configuration settings.`,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.crossdrop/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.`,
	Example: `  crossdrop config init
  crossdrop config init --force`,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration: the config file with environment
and flag overrides applied.`,
	Example: `  crossdrop config show
  crossdrop config show -o json`,
	RunE: runConfigShow,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long:  `Get a configuration value by its dotted key.`,
	Example: `  crossdrop config get source.contract
  crossdrop config get axelar.gas_limit`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value by its dotted key. The value is validated and
the configuration file is updated immediately.`,
	Example: `  crossdrop config set source.contract 0xAbc...
  crossdrop config set destination.network avalanche
  crossdrop config set output.color never`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

// configKeysCmd lists settable keys.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configKeysCmd = &cobra.Command{
	Use:     "keys",
	Short:   "List configuration keys",
	Long:    `List every key accepted by 'config get' and 'config set'.`,
	Example: `  crossdrop config keys`,
	Args:    cobra.NoArgs,
	RunE:    runConfigKeys,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configGetCmd, configSetCmd, configKeysCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := config.Path(cmdCtx.Home())

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return droperr.WithSuggestion(
			droperr.ErrGeneral,
			fmt.Sprintf("configuration already exists at %s. Use --force to overwrite.", configPath),
		)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cfg.Home
	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	if formatter.IsJSON() {
		return output.FormatSuccess(cmd.OutOrStdout(), "configuration initialized at "+configPath, output.FormatJSON)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Set these before sending:")
	outln(w, "  - source.contract:      Airdrop contract on "+defaultCfg.Source.Name)
	outln(w, "  - destination.contract: Airdrop contract on "+defaultCfg.Destination.Name)
	outln(w, "  - tx.keystore:          keystore file (or export CROSSDROP_PRIVATE_KEY)")
	return nil
}

// configEntry is one key/value pair of config show.
type configEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type configView []configEntry

func (v configView) RenderText(w io.Writer) error {
	tbl := output.NewTable("KEY", "VALUE")
	for _, e := range v {
		tbl.AddRow(e.Key, e.Value)
	}
	return tbl.Render(w)
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	keys := config.Keys()
	view := make(configView, 0, len(keys))
	for _, k := range keys {
		v, err := cfg.Get(k)
		if err != nil {
			return err
		}
		view = append(view, configEntry{Key: k, Value: v})
	}
	return formatter.Print(view)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	value, err := cfg.Get(args[0])
	if err != nil {
		return err
	}
	outln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	// Edit the file, not the effective config, so env overrides don't leak in.
	configPath := config.Path(cmdCtx.Home())
	current, err := config.Load(configPath)
	if err != nil {
		current = config.Defaults()
		current.Home = cfg.Home
	}

	if err := current.Set(key, value); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := config.Save(current, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	stored, _ := current.Get(key)
	out(cmd.OutOrStdout(), "Set %s = %s\n", key, stored)
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	if formatter.IsJSON() {
		return formatter.Print(config.Keys())
	}
	for _, k := range config.Keys() {
		outln(w, k)
	}
	return nil
}

// out writes formatted text; write errors to the terminal are ignored.
func out(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

// outln writes a line of text.
func outln(w io.Writer, args ...any) {
	_, _ = fmt.Fprintln(w, args...)
}
