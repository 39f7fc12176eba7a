package main

import (
	"os"

	"github.com/antaressimulatorteam/antares-web-installer/installer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
