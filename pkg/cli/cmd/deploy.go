package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgefleet/fleetman/pkg/types"
)

var deployVars []string

// deployCmd represents the deploy command
var deployCmd = &cobra.Command{
	Use:   "deploy <template>",
	Short: "Push a template's latest upstream artifact to every target",
	Long: `Deploy downloads the template's current upstream artifact and pushes it to
every configured target. The stored variable working set is merged into each
target's bindings; --var adds to or overrides the stored set for this deploy.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeploy,
	Example: `  fleetman deploy cmliu
  fleetman deploy joey --var u=custom-secret`,
}

func init() {
	rootCmd.AddCommand(deployCmd)
	deployCmd.Flags().StringArrayVar(&deployVars, "var", nil, "Extra variable as key=value (repeatable)")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	templateID := args[0]
	c := apiClient()

	set, err := c.Settings(cmd.Context(), templateID)
	if err != nil {
		return err
	}
	for _, kv := range deployVars {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid --var %q, expected key=value", kv)
		}
		set = types.UpsertBinding(set, key, value)
	}

	fmt.Printf("Deploying %s to the fleet...\n", templateID)
	logs, err := c.Deploy(cmd.Context(), templateID, set)
	if err != nil {
		return err
	}
	printDeployLogs(logs)
	return nil
}
