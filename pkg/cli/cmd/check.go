package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <template>",
	Short: "Compare a template's deployed revision with upstream",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
	Example: `  fleetman check cmliu
  fleetman check joey --server http://10.0.0.5:8080`,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	status, err := apiClient().CheckUpdate(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if status.Local == nil {
		fmt.Println("Deployed: never")
	} else {
		fmt.Printf("Deployed: %s (%s)\n",
			shortID(status.Local.RevisionID),
			status.Local.DeployedAt.Local().Format(time.RFC822))
	}

	if status.Remote == nil {
		failColor.Println("Upstream: unavailable")
		return nil
	}
	fmt.Printf("Upstream: %s (%s) %s\n",
		shortID(status.Remote.ID),
		status.Remote.CommittedAt.Local().Format(time.RFC822),
		status.Remote.Message)

	if status.Available() {
		warnColor.Println("Update available.")
	} else {
		okColor.Println("Up to date.")
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
