package main

import "github.com/edgefleet/fleetman/pkg/cli/cmd"

func main() {
	cmd.Execute()
}
