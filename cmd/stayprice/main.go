// README: Operator CLI entry point.
package main

import (
	"os"

	"stayprice/cmd/stayprice/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
