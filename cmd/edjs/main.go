package main

import (
	"fmt"
	"os"

	"github.com/edjs-platform/edjs/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "edjs:", err)
		os.Exit(1)
	}
}
