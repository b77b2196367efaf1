package main

import (
	"fmt"
	"os"

	"github.com/adurocher/mandat/internal/cli"
)

func main() {
	// rootCmd silences cobra's own error printing, so the error is
	// reported exactly once, here.
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
