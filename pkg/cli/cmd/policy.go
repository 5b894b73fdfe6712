package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgefleet/fleetman/pkg/types"
)

var (
	policyEnabled  bool
	policyInterval int
	policyUnit     string
	policyFusePct  float64
)

// policyCmd represents the policy command group
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage the scheduled auto-update and circuit-breaker policy",
}

var policyGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the current policy",
	RunE:  runPolicyGet,
}

var policySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the policy",
	Long: `Set replaces the stored policy with the given values. The orchestrator's
last-checked timestamp is preserved by the daemon and cannot be set here.`,
	RunE: runPolicySet,
	Example: `  fleetman policy set --enabled --interval 30 --unit minutes --fuse 90
  fleetman policy set --enabled=false`,
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyGetCmd)
	policyCmd.AddCommand(policySetCmd)

	policySetCmd.Flags().BoolVar(&policyEnabled, "enabled", true, "Enable scheduled evaluation")
	policySetCmd.Flags().IntVar(&policyInterval, "interval", 30, "Check cadence magnitude")
	policySetCmd.Flags().StringVar(&policyUnit, "unit", types.IntervalMinutes, "Check cadence unit (minutes or hours)")
	policySetCmd.Flags().Float64Var(&policyFusePct, "fuse", 0, "Quota percentage tripping the circuit breaker (0 disables)")
}

func runPolicyGet(cmd *cobra.Command, args []string) error {
	policy, err := apiClient().AutoConfig(cmd.Context())
	if err != nil {
		return err
	}

	state := failColor.Sprint("disabled")
	if policy.Enabled {
		state = okColor.Sprint("enabled")
	}
	fmt.Printf("Scheduled evaluation: %s\n", state)
	fmt.Printf("Check interval:       %d %s\n", policy.Interval, policy.IntervalUnit)
	if policy.FuseThresholdPct > 0 {
		fmt.Printf("Fuse threshold:       %.1f%%\n", policy.FuseThresholdPct)
	} else {
		fmt.Println("Fuse threshold:       off")
	}
	if policy.LastCheckedAt.IsZero() {
		fmt.Println("Last evaluated:       never")
	} else {
		fmt.Printf("Last evaluated:       %s\n", policy.LastCheckedAt.Local().Format(time.RFC822))
	}
	return nil
}

func runPolicySet(cmd *cobra.Command, args []string) error {
	if policyUnit != types.IntervalMinutes && policyUnit != types.IntervalHours {
		return fmt.Errorf("invalid --unit %q, expected minutes or hours", policyUnit)
	}
	if policyInterval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	policy := &types.AutoPolicy{
		Enabled:          policyEnabled,
		Interval:         policyInterval,
		IntervalUnit:     policyUnit,
		FuseThresholdPct: policyFusePct,
	}
	if err := apiClient().SaveAutoConfig(cmd.Context(), policy); err != nil {
		return err
	}
	okColor.Println("Policy updated.")
	return nil
}
