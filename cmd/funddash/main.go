package main

import (
	"os"

	"github.com/wonny/funddash/cmd/funddash/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
