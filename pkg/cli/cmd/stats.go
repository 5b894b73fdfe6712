package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show today's request usage per account",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := apiClient().Stats(cmd.Context())
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Println("No accounts configured.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tUSED\tQUOTA\tUSED%")
	for i := range stats {
		s := &stats[i]
		if s.Err != "" {
			fmt.Fprintf(w, "%s\t%s\t\t\n", s.Alias, failColor.Sprintf("error: %s", s.Err))
			continue
		}
		pct := s.UsedPercent()
		pctText := fmt.Sprintf("%.1f%%", pct)
		switch {
		case pct >= 90:
			pctText = failColor.Sprint(pctText)
		case pct >= 70:
			pctText = warnColor.Sprint(pctText)
		default:
			pctText = okColor.Sprint(pctText)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", s.Alias, s.Used, s.Quota, pctText)
	}
	return w.Flush()
}
