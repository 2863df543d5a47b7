package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/safecheck/internal/config"
	"github.com/mrz1836/safecheck/internal/output"
	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify safecheck configuration settings.`,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.safecheck/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.`,
	Example: `  safecheck config init
  safecheck config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration, including environment overrides.`,
	Example: `  safecheck config show
  safecheck config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value by its key.

Keys use dot notation. Run 'safecheck config keys' to list them.`,
	Example: `  safecheck config get services.client_gateway
  safecheck config get check.timeout_seconds
  safecheck config get logging.level`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeConfigKeys,
	RunE:              runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value by its key.

The value is validated before the configuration file is updated.`,
	Example: `  safecheck config set services.client_gateway https://safe-client.safe.global
  safecheck config set token.backend keyring
  safecheck config set output.default_format json
  safecheck config set logging.level debug`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeConfigKeys,
	RunE:              runConfigSet,
}

// configKeysCmd lists every configuration key.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys",
	Long:  `List every key accepted by 'config get' and 'config set'.`,
	Example: `  safecheck config keys`,
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.GroupID = groupConfig
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")

	enrichParentLong(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	configPath := config.Path(cc.Cfg.Home)

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil && !configForce {
		return checkerr.WithSuggestion(
			checkerr.ErrInvalidInput,
			fmt.Sprintf("configuration already exists at %s. Use --force to overwrite.", configPath),
		)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cc.Cfg.Home

	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	if cc.Fmt.IsJSON() {
		return output.FormatSuccess(w, "configuration initialized at "+configPath, output.FormatJSON)
	}

	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - services.client_gateway: Safe client gateway base URL")
	outln(w, "  - check.timeout_seconds: How long a check may take (0 = no limit)")
	outln(w, "  - token.backend: Where the RPC auth token is stored (file/keyring)")
	outln(w, "  - output.default_format: Output format (text/json/auto)")
	outln(w, "  - logging.level: Log level (off/error/debug)")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	values, err := configValues(cc.Cfg)
	if err != nil {
		return err
	}

	return renderDoc(cmd, values, func(w io.Writer) error {
		return displayConfigText(w, cc.Cfg, values)
	})
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	value, err := cc.Cfg.Get(args[0])
	if err != nil {
		return err
	}

	return renderDoc(cmd, map[string]string{args[0]: value}, func(w io.Writer) error {
		outln(w, value)
		return nil
	})
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	key, value := args[0], args[1]

	// Work on the file contents so environment overrides are not persisted.
	configPath := config.Path(cc.Cfg.Home)
	fileCfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}

	if err := fileCfg.Set(key, value); err != nil {
		return err
	}
	if err := fileCfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(fileCfg, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	cc.Log.Debug("config %s set in %s", key, configPath)

	stored, _ := fileCfg.Get(key)
	return output.FormatSuccess(cmd.OutOrStdout(), fmt.Sprintf("Set %s = %s", key, stored), cc.Fmt.Format())
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	keys := config.Keys()
	return renderDoc(cmd, keys, func(w io.Writer) error {
		for _, k := range keys {
			outln(w, k)
		}
		return nil
	})
}

// completeConfigKeys completes the key argument of config get and set.
func completeConfigKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return config.Keys(), cobra.ShellCompDirectiveNoFileComp
}

// configValues returns every key with its current value.
func configValues(c *config.Config) (map[string]string, error) {
	values := make(map[string]string, len(config.Keys()))
	for _, k := range config.Keys() {
		v, err := c.Get(k)
		if err != nil {
			return nil, err
		}
		values[k] = v
	}
	return values, nil
}

// displayConfigText shows the config in text format.
func displayConfigText(w io.Writer, c *config.Config, values map[string]string) error {
	outln(w, "Configuration:")
	outln(w)

	table := output.NewTable("KEY", "VALUE")
	for _, k := range config.Keys() {
		table.AddRow(k, values[k])
	}
	if err := table.Render(w); err != nil {
		return err
	}

	if c.AuthToken != "" {
		outln(w)
		out(w, "Auth token set via %s\n", config.EnvAuthToken)
	}
	return nil
}
