package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/edgefleet/fleetman/pkg/types"
)

var accountsFile string

// accountsCmd represents the accounts command group
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage the deployment account list",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured accounts and their targets",
	RunE:  runAccountsList,
}

var accountsApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Replace the account list from a yaml file",
	Long: `Apply reads a yaml file with an "accounts" list and replaces the daemon's
stored account list with it. Tokens are stored as given; there is no merge.`,
	RunE: runAccountsApply,
	Example: `  fleetman accounts apply -f accounts.yaml

  # accounts.yaml
  accounts:
    - alias: main
      accountId: 0123abc
      apiToken: cf-token
      workers:
        cmliu: [edge-1, edge-2]`,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsApplyCmd)
	accountsApplyCmd.Flags().StringVarP(&accountsFile, "file", "f", "", "Yaml file with the account list (required)")
	accountsApplyCmd.MarkFlagRequired("file")
}

func runAccountsList(cmd *cobra.Command, args []string) error {
	accounts, err := apiClient().Accounts(cmd.Context())
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("No accounts configured.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ALIAS\tACCOUNT ID\tTARGETS")
	for i := range accounts {
		a := &accounts[i]
		var parts []string
		templateIDs := make([]string, 0, len(a.Workers))
		for id := range a.Workers {
			templateIDs = append(templateIDs, id)
		}
		sort.Strings(templateIDs)
		for _, id := range templateIDs {
			if len(a.Workers[id]) > 0 {
				parts = append(parts, fmt.Sprintf("%s: %s", id, strings.Join(a.Workers[id], ",")))
			}
		}
		if len(parts) == 0 {
			parts = []string{"-"}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.Alias, a.AccountID, strings.Join(parts, "; "))
	}
	return w.Flush()
}

func runAccountsApply(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(accountsFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", accountsFile, err)
	}

	var doc struct {
		Accounts []types.Account `yaml:"accounts"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", accountsFile, err)
	}
	for i := range doc.Accounts {
		if doc.Accounts[i].Alias == "" || doc.Accounts[i].AccountID == "" || doc.Accounts[i].APIToken == "" {
			return fmt.Errorf("account %d in %s is missing alias, accountId or apiToken", i, accountsFile)
		}
	}

	if err := apiClient().SaveAccounts(cmd.Context(), doc.Accounts); err != nil {
		return err
	}
	okColor.Printf("Replaced account list with %d account(s)", len(doc.Accounts))
	fmt.Println()
	return nil
}
