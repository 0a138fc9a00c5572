package main

import (
	"os"

	"github.com/zimsave/zimsave_plus/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
