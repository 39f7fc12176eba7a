package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/app"
	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/installerr"
	"github.com/antaressimulatorteam/antares-web-installer/util"
)

const (
	sourceDirFlag      = "source-dir"
	targetDirFlag      = "target-dir"
	shortcutFlag       = "shortcut"
	noShortcutFlag     = "no-shortcut"
	launchFlag         = "launch"
	noLaunchFlag       = "no-launch"
	browserFlag        = "browser"
	noBrowserFlag      = "no-browser"
	logLevelFlag       = "log-level"
	logFileFlag        = "log-file"
	healthURLFlag      = "health-url"
	healthTimeoutFlag  = "health-timeout"
	stopTimeoutFlag    = "stop-timeout"
	versionTimeoutFlag = "version-timeout"
	resultFileFlag     = "result-file"
)

type Config struct {
	SourceDir string
	TargetDir string

	Shortcut   bool
	NoShortcut bool
	Launch     bool
	NoLaunch   bool
	Browser    bool
	NoBrowser  bool

	LogLevel string
	LogFile  string

	HealthURL      string
	HealthTimeout  time.Duration
	StopTimeout    time.Duration
	VersionTimeout time.Duration
	// ResultFile receives the outcome as JSON for graphical front-ends
	ResultFile string
}

func (c Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("--%s is required", sourceDirFlag)
	}
	if c.TargetDir == "" {
		return fmt.Errorf("--%s is required", targetDirFlag)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	timeouts := []struct {
		flag  string
		value time.Duration
	}{
		{healthTimeoutFlag, c.HealthTimeout},
		{stopTimeoutFlag, c.StopTimeout},
		{versionTimeoutFlag, c.VersionTimeout},
	}
	for _, t := range timeouts {
		if t.value <= 0 {
			return fmt.Errorf("--%s must be positive, got %s", t.flag, t.value)
		}
	}

	if c.launch() {
		u, err := url.Parse(c.HealthURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid health url %q", c.HealthURL)
		}
	}
	return nil
}

func (c Config) launch() bool {
	return c.Launch && !c.NoLaunch
}

// Request builds the installation request, relative paths being resolved
// against the working directory.
func (c Config) Request() (app.Request, error) {
	return app.Request{
		SourceDir:      c.SourceDir,
		TargetDir:      c.TargetDir,
		CreateShortcut: c.Shortcut && !c.NoShortcut,
		Launch:         c.launch(),
		OpenBrowser:    c.Browser && !c.NoBrowser,
	}.Normalize()
}

func (c Config) Options() app.Options {
	opts := app.DefaultOptions()
	opts.HealthURL = c.HealthURL
	opts.HealthTimeout = c.HealthTimeout
	opts.StopTimeout = c.StopTimeout
	opts.VersionTimeout = c.VersionTimeout
	opts.ResultFile = c.ResultFile
	return opts
}

var (
	cobraConfig *Config
	rootCmd     = &cobra.Command{
		Use:           "antares-web-installer",
		Short:         "Antares Web installer",
		Long:          "Installs or updates a local Antares Web server.\nWithout a subcommand, runs the installation.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          installFunc,
	}
)

func init() {
	_ = util.InitLog("info", util.LogConsole)

	cobraConfig = &Config{}
	defaults := app.DefaultOptions()

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cobraConfig.SourceDir, sourceDirFlag, "s", ".", "where to find the Antares Web distribution")
	flags.StringVarP(&cobraConfig.TargetDir, targetDirFlag, "t", defaultTargetDir(runtime.GOOS), "target location of the Antares Web server")
	flags.BoolVar(&cobraConfig.Shortcut, shortcutFlag, true, "create a shortcut on the desktop")
	flags.BoolVar(&cobraConfig.NoShortcut, noShortcutFlag, false, "do not create a shortcut on the desktop")
	flags.BoolVar(&cobraConfig.Launch, launchFlag, true, "launch the Antares Web server")
	flags.BoolVar(&cobraConfig.NoLaunch, noLaunchFlag, false, "do not launch the Antares Web server")
	flags.BoolVar(&cobraConfig.Browser, browserFlag, true, "open the default browser at the server home page")
	flags.BoolVar(&cobraConfig.NoBrowser, noBrowserFlag, false, "do not open the browser")
	flags.StringVar(&cobraConfig.LogLevel, logLevelFlag, "info", "log level (panic, fatal, error, warn, info, debug, trace)")
	flags.StringVar(&cobraConfig.LogFile, logFileFlag, util.LogConsole, "log file, console writes to the standard output only")
	flags.StringVar(&cobraConfig.HealthURL, healthURLFlag, defaults.HealthURL, "health endpoint of the launched server")
	flags.DurationVar(&cobraConfig.HealthTimeout, healthTimeoutFlag, defaults.HealthTimeout, "how long to wait for the launched server to be healthy")
	flags.DurationVar(&cobraConfig.StopTimeout, stopTimeoutFlag, defaults.StopTimeout, "how long to wait for a running server to stop")
	flags.DurationVar(&cobraConfig.VersionTimeout, versionTimeoutFlag, defaults.VersionTimeout, "how long to wait for the server version")
	flags.StringVar(&cobraConfig.ResultFile, resultFileFlag, "", "write the installation result as JSON to this file")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(versionCmd)

	util.SetFlagsFromEnvVars(rootCmd)
}

func defaultTargetDir(goos string) string {
	if goos == "windows" {
		return "C:/Program Files/AntaresWeb"
	}
	return "/opt/antares-web"
}

// Execute runs the root command. Installation failures are logged where they
// happen, any other error is logged here.
func Execute() error {
	err := rootCmd.Execute()
	var ie *installerr.Error
	if err != nil && !errors.As(err, &ie) {
		log.Errorf("%v", err)
	}
	return err
}

// SetupCloseHandler cancels the context on SIGINT or SIGTERM.
func SetupCloseHandler(ctx context.Context, cancel context.CancelFunc) {
	termCh := make(chan os.Signal, 1)
	signal.Notify(termCh, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(termCh)
		select {
		case <-ctx.Done():
			return
		case <-termCh:
		}

		log.Info("shutdown signal received")
		cancel()
	}()
}

// logFailure logs err on a single line, the full cause only at debug level.
func logFailure(err error) {
	var ie *installerr.Error
	if errors.As(err, &ie) {
		log.Errorf("%s", ie.Error())
		log.Debugf("%s: %s", ie.Kind, ie.Detail())
		return
	}
	log.Errorf("%v", err)
}
