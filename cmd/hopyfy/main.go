package main

import (
	"os"

	"github.com/sinan-prvt/Hopyfy-Cart/cmd/hopyfy/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
