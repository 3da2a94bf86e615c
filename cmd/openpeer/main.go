package main

import (
	"os"

	"openpeer/cmd/openpeer/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
