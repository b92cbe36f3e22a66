package main

import (
	"fmt"
	"os"

	"github.com/keshon/bvc/internal/command"
	"github.com/keshon/bvc/internal/command/registry"
)

func main() {
	app := command.NewApp()
	if err := registry.NewRootCommand(app).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
