package main

import (
	"os"

	"max.ks1230/spendings/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
