// Command authtoken mints stats service auth tokens and queries the
// stats service with them.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"bfstats/internal/cli/command"
)

func main() {
	_ = godotenv.Load()
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
