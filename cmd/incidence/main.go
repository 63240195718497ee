package main

import (
	"os"

	"github.com/incidence-dev/incidence/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
