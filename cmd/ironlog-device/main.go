package main

import (
	"context"
	"fmt"
	"os"

	"github.com/meltforce/ironlog/internal/cli"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if err := cli.NewRootCommand(Version).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
