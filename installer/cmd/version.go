package cmd

import (
	"github.com/spf13/cobra"

	"github.com/antaressimulatorteam/antares-web-installer/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "prints the installer version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println(version.InstallerVersion())
	},
}
