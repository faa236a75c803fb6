package commands

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/odegate/internal/cli"
	"github.com/TimurManjosov/odegate/internal/client"
	"github.com/TimurManjosov/odegate/internal/store"
)

var (
	itemsKind       string
	itemsFile       string
	itemsContentEnv string
	itemsForce      bool
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Read and manage gated items",
}

var itemsListCmd = &cobra.Command{
	Use:   "list <chapterId>",
	Short: "List the buttons or sub-chapters of a chapter",
	Long: `List the items of one kind in a chapter with their unlock state.
The state is evaluated for the session token in the config, if any.

Examples:
  odegate items list ch-1
  odegate items list ch-1 --kind sub-chapter --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := store.Kind(itemsKind)
		if !kind.Valid() {
			return fmt.Errorf("invalid kind %q, must be button or sub-chapter", itemsKind)
		}
		c, err := newClient()
		if err != nil {
			return err
		}

		list, err := c.ListItems(cmd.Context(), args[0], kind)
		if err != nil {
			return fmt.Errorf("failed to list items: %w", err)
		}
		if quiet {
			return nil
		}
		if len(list.Items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No items found")
			return nil
		}
		return cli.PrintItems(cmd.OutOrStdout(), list, cli.OutputFormat(format))
	},
}

var itemsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a single item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		item, err := c.GetItem(cmd.Context(), args[0])
		if err != nil {
			if client.IsNotFound(err) {
				return fmt.Errorf("item '%s' not found", args[0])
			}
			return fmt.Errorf("failed to get item: %w", err)
		}
		if quiet {
			return nil
		}
		return cli.PrintItem(cmd.OutOrStdout(), item, cli.OutputFormat(format))
	},
}

var itemsPutCmd = &cobra.Command{
	Use:   "put <id>",
	Short: "Create or replace an item from a file",
	Long: `Create or replace an item from a YAML or JSON file. Requires the admin key.

Example file:
  kind: button
  chapterId: ch-1
  title: Harbour map
  link: /maps/harbour
  unlockConditions:
    - type: stamp-required
      stampId: explorer-badge
      stampName: Explorer Badge

Examples:
  odegate items put btn-map -f btn-map.yaml
  odegate items put btn-map -f btn-map.yaml --content-env staging`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := readItemInput(itemsFile)
		if err != nil {
			return err
		}
		if itemsContentEnv != "" {
			in.Env = itemsContentEnv
		}
		c, err := newClient()
		if err != nil {
			return err
		}

		stored, err := c.UpsertItem(cmd.Context(), args[0], *in)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) {
				for field, msg := range apiErr.Fields {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, msg)
				}
			}
			return fmt.Errorf("failed to save item: %w", err)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s '%s' in environment '%s'\n", stored.Kind, stored.ID, stored.Env)
		}
		return nil
	},
}

var itemsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		if !itemsForce && !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Are you sure you want to delete item '%s'? (y/N): ", id)
			response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read confirmation: %w", err)
			}
			response = strings.ToLower(strings.TrimSpace(response))
			if response != "y" && response != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
				return nil
			}
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.DeleteItem(cmd.Context(), id, itemsContentEnv); err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully deleted item '%s'\n", id)
		}
		return nil
	},
}

// readItemInput loads an item definition. JSON is valid YAML, so both are
// read through the YAML decoder and re-encoded for the API.
func readItemInput(path string) (*client.ItemInput, error) {
	if path == "" {
		return nil, fmt.Errorf("an item file is required (-f)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("no item found in %s", path)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode item: %w", err)
	}
	var in client.ItemInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("invalid item: %w", err)
	}
	return &in, nil
}

func init() {
	rootCmd.AddCommand(itemsCmd)
	itemsCmd.AddCommand(itemsListCmd, itemsGetCmd, itemsPutCmd, itemsDeleteCmd)

	itemsListCmd.Flags().StringVar(&itemsKind, "kind", string(store.KindButton), "Item kind (button, sub-chapter)")
	itemsPutCmd.Flags().StringVarP(&itemsFile, "file", "f", "", "Item definition (YAML or JSON)")
	itemsPutCmd.Flags().StringVar(&itemsContentEnv, "content-env", "", "Content environment (defaults to the server's)")
	itemsDeleteCmd.Flags().StringVar(&itemsContentEnv, "content-env", "", "Content environment (defaults to the server's)")
	itemsDeleteCmd.Flags().BoolVar(&itemsForce, "force", false, "Skip confirmation prompt")
}
