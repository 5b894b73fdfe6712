package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edgefleet/fleetman/pkg/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI build information and daemon reachability",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
		if err := apiClient().Health(cmd.Context()); err != nil {
			warnColor.Printf("Daemon: %v", err)
			fmt.Println()
		} else {
			okColor.Println("Daemon: reachable")
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
