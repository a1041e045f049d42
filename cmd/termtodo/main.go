// Package main is the entry point for the termtodo CLI.
package main

import (
	"os"

	"github.com/leeovery/termtodo/internal/cli"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	app := &cli.App{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Stdin:   os.Stdin,
		Dir:     ".",
		Version: version,
	}

	if wd, err := os.Getwd(); err == nil {
		app.Dir = wd
	}

	os.Exit(app.Run(os.Args))
}
