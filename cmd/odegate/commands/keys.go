package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/odegate/internal/auth"
)

var hashAdminKeyCmd = &cobra.Command{
	Use:   "hash-admin-key <key>",
	Short: "Print the bcrypt hash of an admin key",
	Long: `Hash an admin key for ADMIN_API_KEY_HASH so the plain key never has to be
stored in the server's environment.

Example:
  odegate hash-admin-key "$(openssl rand -hex 24)"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashAPIKey(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashAdminKeyCmd)
}
