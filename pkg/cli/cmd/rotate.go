package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// rotateCmd represents the rotate command
var rotateCmd = &cobra.Command{
	Use:   "rotate <template>",
	Short: "Rotate a template's secret variable and redeploy the fleet",
	Long: `Rotate replaces the template's designated secret variable with a fresh
random identifier and pushes the fleet. Every previously issued client
reference stops working immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: runRotate,
}

func init() {
	rootCmd.AddCommand(rotateCmd)
}

func runRotate(cmd *cobra.Command, args []string) error {
	templateID := args[0]

	fmt.Printf("Rotating secret for %s...\n", templateID)
	logs, err := apiClient().Rotate(cmd.Context(), templateID)
	if err != nil {
		return err
	}
	printDeployLogs(logs)
	return nil
}
