package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/odegate/internal/cli"
	"github.com/TimurManjosov/odegate/internal/client"
)

var (
	// Global flags
	baseURL  string
	adminKey string
	env      string
	format   string
	quiet    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "odegate",
	Short: "CLI tool for odegate content gating",
	Long: `odegate inspects and manages gated chapter content: custom buttons and
sub-chapters, their unlock conditions and the feature rollouts in front of them.

Offline commands (unlock eval, rollout decide, hash-admin-key) need no server.

Examples:
  odegate items list ch-1 --kind button
  odegate items put btn-map -f btn-map.yaml
  odegate unlock eval -c conditions.json --stamp explorer-badge
  odegate rollout decide u1 u2 u3 --feature unified-buttons --percentage 25 --salt s`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the odegate API")
	rootCmd.PersistentFlags().StringVar(&adminKey, "admin-key", "", "Admin API key for item writes")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "Deployment from the config file (local, staging, prod)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
}

// newClient builds an API client for the selected deployment.
func newClient() (*client.Client, error) {
	envCfg, _, err := cli.GetEnvConfig(env, baseURL, adminKey)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	c := client.NewClient(envCfg.BaseURL, envCfg.AdminKey)
	c.SessionToken = envCfg.SessionToken
	return c, nil
}
