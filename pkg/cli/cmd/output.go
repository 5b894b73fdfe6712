package cmd

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/edgefleet/fleetman/pkg/types"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
)

// printDeployLogs renders a deploy result, one line per target.
func printDeployLogs(logs []types.DeployLogEntry) {
	succeeded := 0
	for _, entry := range logs {
		if entry.Success {
			succeeded++
			okColor.Printf("  ok   %s", entry.Target)
			fmt.Println()
		} else {
			failColor.Printf("  fail %s: %s", entry.Target, entry.Message)
			fmt.Println()
		}
	}
	fmt.Printf("%d/%d targets updated\n", succeeded, len(logs))
}
