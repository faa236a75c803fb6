package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/odegate/internal/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Manage the odegate CLI configuration file.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long: `Create a default configuration file at ~/.odegate/config.yaml
(or at $ODEGATE_CONFIG).

Example:
  odegate config init`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.InitConfig(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		configPath, _ := cli.GetConfigPath()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
		fmt.Fprintln(out, "\nPlease edit the file to set your admin keys and base URLs.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Default Environment: %s\n\n", cfg.DefaultEnv)
		fmt.Fprintln(out, "Environments:")
		names := make([]string, 0, len(cfg.Environments))
		for name := range cfg.Environments {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			envCfg := cfg.Environments[name]
			fmt.Fprintf(out, "  %s:\n", name)
			fmt.Fprintf(out, "    base_url: %s\n", envCfg.BaseURL)
			fmt.Fprintf(out, "    admin_key: %s\n", mask(envCfg.AdminKey))
			if envCfg.SessionToken != "" {
				fmt.Fprintf(out, "    session_token: %s\n", mask(envCfg.SessionToken))
			}
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <env.key>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value.

Examples:
  odegate config get local.base_url
  odegate config get prod.admin_key`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		envName, key, err := splitConfigKey(args[0])
		if err != nil {
			return err
		}
		envCfg, ok := cfg.Environments[envName]
		if !ok {
			return fmt.Errorf("environment '%s' not found", envName)
		}

		var value string
		switch key {
		case "base_url":
			value = envCfg.BaseURL
		case "admin_key":
			value = envCfg.AdminKey
		case "session_token":
			value = envCfg.SessionToken
		default:
			return unknownConfigKey(key)
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <env.key> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value.

Examples:
  odegate config set local.base_url http://localhost:8080
  odegate config set prod.admin_key my-secret-key`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		envName, key, err := splitConfigKey(args[0])
		if err != nil {
			return err
		}
		value := args[1]

		// Create environment if it doesn't exist
		if cfg.Environments == nil {
			cfg.Environments = make(map[string]cli.EnvConfig)
		}
		envCfg := cfg.Environments[envName]
		switch key {
		case "base_url":
			envCfg.BaseURL = value
		case "admin_key":
			envCfg.AdminKey = value
		case "session_token":
			envCfg.SessionToken = value
		default:
			return unknownConfigKey(key)
		}
		cfg.Environments[envName] = envCfg

		if err := cli.SaveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Successfully set %s.%s\n", envName, key)
		return nil
	},
}

func splitConfigKey(s string) (envName, key string, err error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid key format, expected 'env.key' (e.g., 'local.base_url')")
	}
	return parts[0], parts[1], nil
}

func unknownConfigKey(key string) error {
	return fmt.Errorf("unknown key '%s', valid keys: base_url, admin_key, session_token", key)
}

// mask hides all but the first four characters of a secret.
func mask(s string) string {
	if len(s) > 4 {
		return s[:4] + "***"
	}
	return "***"
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configListCmd, configGetCmd, configSetCmd)
}
