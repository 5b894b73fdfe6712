// Package cmd implements the fleetman CLI: a thin cobra front over the
// daemon's JSON API.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgefleet/fleetman/pkg/cli/client"
	"github.com/edgefleet/fleetman/pkg/version"
)

var (
	serverAddr string
	accessCode string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fleetman",
	Short: "Fleetman - Worker fleet synchronization manager",
	Long: `Fleetman keeps a fleet of deployed worker instances in sync with their
upstream source and rotates access secrets when request quotas run hot.
The CLI talks to a running fleetmand daemon.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "", "Daemon address (default "+client.DefaultAddr+")")
	rootCmd.PersistentFlags().StringVar(&accessCode, "access-code", "", "Access code for the daemon API")

	viper.SetEnvPrefix("FLEETMAN")
	viper.AutomaticEnv()
}

// apiClient builds the daemon client from flags and environment.
func apiClient() *client.Client {
	addr := serverAddr
	if addr == "" {
		addr = viper.GetString("server")
	}
	code := accessCode
	if code == "" {
		code = viper.GetString("access_code")
	}
	return client.New(addr, code)
}
