package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/app"
	"github.com/antaressimulatorteam/antares-web-installer/util"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "install or update the Antares Web server",
	Long: "Copies the Antares Web distribution found in the source directory into the target directory.\n" +
		"An existing installation is updated in place: the running server is stopped, the configuration\n" +
		"is migrated and user data is preserved.",
	Args: cobra.NoArgs,
	RunE: installFunc,
}

func installFunc(cmd *cobra.Command, _ []string) error {
	if err := cobraConfig.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := util.InitLog(cobraConfig.LogLevel, cobraConfig.LogFile); err != nil {
		return fmt.Errorf("failed to initialize log: %w", err)
	}

	req, err := cobraConfig.Request()
	if err != nil {
		return fmt.Errorf("invalid paths: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	SetupCloseHandler(ctx, cancel)

	log.Infof("starting installation in directory: '%s'", req.TargetDir)
	version, err := app.New(req, cobraConfig.Options()).Run(ctx)
	if err != nil {
		logFailure(err)
		return err
	}

	log.Infof("Antares Web %s installed in %s", version, req.TargetDir)
	return nil
}
