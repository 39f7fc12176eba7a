package app

import (
	"context"
	"path/filepath"
	"time"

	goversion "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"

	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/browser"
	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/config"
	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/filesync"
	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/installerr"
	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/launcher"
	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/process"
	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/shortcut"
	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/versionprobe"
	"github.com/antaressimulatorteam/antares-web-installer/util"
)

const (
	// MinimumUpgradeVersion is the oldest installation that can be updated in place.
	MinimumUpgradeVersion = "2.14"

	DefaultStopTimeout = 5 * time.Second

	shortcutName        = "AntaresWebServer"
	shortcutTitle       = "Antares Web Server"
	shortcutDescription = "Launch Antares Web Server in background"
)

var minimumUpgradeVersion = goversion.Must(goversion.NewVersion(MinimumUpgradeVersion))

// Options tunes the timing and outputs of a run.
type Options struct {
	HealthURL      string
	HealthTimeout  time.Duration
	HealthInterval time.Duration
	StopTimeout    time.Duration
	VersionTimeout time.Duration
	// BrowserURL is opened once the server is healthy.
	BrowserURL string
	// ResultFile receives the outcome as JSON when set.
	ResultFile string
}

// DefaultOptions returns the options used by the command line.
func DefaultOptions() Options {
	return Options{
		HealthURL:      launcher.DefaultHealthURL,
		HealthTimeout:  launcher.DefaultMaxWait,
		HealthInterval: launcher.DefaultPollInterval,
		StopTimeout:    DefaultStopTimeout,
		VersionTimeout: versionprobe.DefaultTimeout,
		BrowserURL:     browser.DefaultURL,
	}
}

// ProcessStopper finds and stops running servers.
type ProcessStopper interface {
	Find(ctx context.Context) ([]process.Handle, error)
	Stop(ctx context.Context, handles []process.Handle, timeout time.Duration) (terminated, alive []process.Handle, err error)
}

// VersionChecker queries the version of a server executable.
type VersionChecker interface {
	Check(ctx context.Context, exe string) (string, error)
}

// ConfigUpdater migrates the configuration file of an installation.
type ConfigUpdater interface {
	UpdateFile(ctx context.Context, path, detected string) ([]string, error)
}

// FileCopier copies a distribution into the installation directory.
type FileCopier interface {
	CopyTree(ctx context.Context, src, dst string, excluded filesync.Set, progress filesync.ProgressFunc) ([]filesync.Result, error)
	CopyAll(ctx context.Context, src, dst string) error
}

// HealthWaiter waits for a started server to answer its health check.
type HealthWaiter interface {
	WaitHealthy(ctx context.Context, srv *launcher.Server, maxWait time.Duration, onAttempt func(attempt, maxAttempts int)) error
}

// StartFunc spawns the server executable.
type StartFunc func(exe, workDir string) (*launcher.Server, error)

// App runs one installation request.
type App struct {
	req  Request
	opts Options

	processes ProcessStopper
	versions  VersionChecker
	configs   ConfigUpdater
	files     FileCopier
	excluded  filesync.Set
	start     StartFunc
	health    HealthWaiter
	shortcuts shortcut.Creator
	browser   browser.Opener

	onProgress func(float64)
	onState    func(State)

	server *launcher.Server
}

// Option overrides a collaborator of the App.
type Option func(*App)

func WithProcessStopper(p ProcessStopper) Option { return func(a *App) { a.processes = p } }

func WithVersionChecker(v VersionChecker) Option { return func(a *App) { a.versions = v } }

func WithConfigUpdater(c ConfigUpdater) Option { return func(a *App) { a.configs = c } }

func WithFileCopier(f FileCopier) Option { return func(a *App) { a.files = f } }

func WithExcluded(s filesync.Set) Option { return func(a *App) { a.excluded = s } }

func WithStarter(s StartFunc) Option { return func(a *App) { a.start = s } }

func WithHealthWaiter(h HealthWaiter) Option { return func(a *App) { a.health = h } }

func WithShortcutCreator(c shortcut.Creator) Option { return func(a *App) { a.shortcuts = c } }

func WithBrowser(b browser.Opener) Option { return func(a *App) { a.browser = b } }

// WithProgress registers a callback receiving the overall progress in [0, 100].
func WithProgress(fn func(float64)) Option { return func(a *App) { a.onProgress = fn } }

// WithStateListener registers a callback receiving every state transition.
func WithStateListener(fn func(State)) Option { return func(a *App) { a.onState = fn } }

// New returns an App wired with the platform collaborators. req must be
// normalized.
func New(req Request, opts Options, options ...Option) *App {
	health := launcher.NewHealthChecker(opts.HealthURL)
	if opts.HealthInterval > 0 {
		health.Interval = opts.HealthInterval
	}
	prober := versionprobe.New()
	if opts.VersionTimeout > 0 {
		prober.Timeout = opts.VersionTimeout
	}

	a := &App{
		req:       req,
		opts:      opts,
		processes: process.NewFinder(),
		versions:  prober,
		configs:   config.NewMigrator(),
		files:     filesync.New(),
		excluded:  filesync.PlatformExcluded(),
		start:     launcher.Start,
		health:    health,
		shortcuts: shortcut.New(),
		browser:   browser.New(),
	}
	for _, o := range options {
		o(a)
	}
	return a
}

// Server returns the server started by Run, if any.
func (a *App) Server() *launcher.Server {
	return a.server
}

// Run executes the installation and returns the installed version. Any
// returned error is fatal and the stages after it did not run.
func (a *App) Run(ctx context.Context) (string, error) {
	s := newSession(a.req.Steps(), a.onProgress, a.onState)

	lock, err := acquireLock(a.req.TargetDir)
	if err == nil {
		defer releaseLock(lock)
		err = a.run(ctx, s)
	}
	if err != nil {
		s.enter(StateFailed)
	} else {
		s.enter(StateDone)
	}

	if a.opts.ResultFile != "" {
		a.writeResult(s, err)
	}
	return s.version, err
}

func (a *App) run(ctx context.Context, s *session) error {
	stages := []struct {
		enabled bool
		run     func(context.Context, *session) error
	}{
		{true, a.stopServer},
		{true, a.installFiles},
		{a.req.CreateShortcut, a.createShortcut},
		{a.req.Launch, a.launchServer},
	}

	for _, stage := range stages {
		if !stage.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return installerr.Interrupted(err)
		}
		if err := stage.run(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) stopServer(ctx context.Context, s *session) error {
	s.enter(StateStoppingServer)

	handles, err := a.processes.Find(ctx)
	if err != nil {
		return installerr.New(installerr.KindProcessStop, err, "cannot list running processes: %v", err)
	}
	s.update(50)

	if len(handles) == 0 {
		log.Infof("no running server found")
		s.completeStep()
		return nil
	}

	log.Infof("running server found, attempt to stop it")
	_, alive, err := a.processes.Stop(ctx, handles, a.opts.StopTimeout)
	if err != nil {
		log.Warnf("errors while stopping the server: %v", err)
	}
	if ctx.Err() != nil {
		return installerr.Interrupted(ctx.Err())
	}
	if len(alive) > 0 {
		return installerr.New(installerr.KindProcessStop, err,
			"impossible to kill the server, please kill it manually before relaunching the installer")
	}

	log.Infof("the server was successfully stopped")
	s.completeStep()
	return nil
}

func (a *App) installFiles(ctx context.Context, s *session) error {
	s.enter(StateInstalling)
	log.Infof("installing files in %s", a.req.TargetDir)

	empty, err := util.IsDirEmpty(a.req.TargetDir)
	if err != nil {
		return installerr.New(installerr.KindCopy, err, "cannot read target directory %s: %v", a.req.TargetDir, err)
	}

	if empty {
		err = a.freshCopy(ctx, s)
	} else {
		err = a.updateCopy(ctx, s)
	}
	if err != nil {
		return err
	}

	s.completeStep()
	return nil
}

func (a *App) freshCopy(ctx context.Context, s *session) error {
	log.Infof("no existing files found, copying the whole distribution")
	if err := a.files.CopyAll(ctx, a.req.SourceDir, a.req.TargetDir); err != nil {
		return err
	}
	log.Infof("files were successfully copied")
	s.update(50)

	version, err := a.versions.Check(ctx, a.req.ServerPath())
	if err != nil {
		return err
	}
	log.Infof("installed application version: %s", version)
	s.version = version
	return nil
}

func (a *App) updateCopy(ctx context.Context, s *session) error {
	log.Infof("existing files were found, checking the installed version")
	oldVersion, err := a.versions.Check(ctx, a.req.ServerPath())
	if err != nil {
		return err
	}
	log.Infof("old application version: %s", oldVersion)

	if err := checkUpgradable(oldVersion); err != nil {
		return err
	}
	s.update(25)

	if err := a.updateConfig(ctx, oldVersion); err != nil {
		return err
	}
	s.update(50)

	log.Infof("updating program files")
	if _, err := a.files.CopyTree(ctx, a.req.SourceDir, a.req.TargetDir, a.excluded, s.subProgress(50, 75)); err != nil {
		return err
	}
	log.Infof("program files updated")
	s.update(75)

	newVersion, err := a.versions.Check(ctx, a.req.ServerPath())
	if err != nil {
		return err
	}
	log.Infof("new application version: %s", newVersion)
	s.version = newVersion
	return nil
}

func checkUpgradable(detected string) error {
	v, err := goversion.NewVersion(detected)
	if err != nil {
		return installerr.VersionCheck(installerr.VersionUnparseable, err, "invalid installed version %q", detected)
	}
	if v.LessThan(minimumUpgradeVersion) {
		return installerr.New(installerr.KindVersionTooOld, nil,
			"installed version %s is too old to be updated, version %s or later is required", detected, MinimumUpgradeVersion)
	}
	return nil
}

func (a *App) updateConfig(ctx context.Context, detected string) error {
	path := filepath.Join(a.req.TargetDir, config.FileName)
	if !util.FileExists(path) {
		log.Warnf("no configuration file found at %s, skipping migration", path)
		return nil
	}

	log.Infof("updating configuration file %s", path)
	applied, err := a.configs.UpdateFile(ctx, path, detected)
	if err != nil {
		return installerr.New(installerr.KindConfig, err, "cannot update configuration file %s: %v", path, err)
	}
	if len(applied) > 0 {
		log.Infof("configuration migrated through versions %v", applied)
	}
	return nil
}

func (a *App) createShortcut(_ context.Context, s *session) error {
	s.enter(StateCreatingShortcut)
	s.update(50)

	created, err := a.shortcuts.Create(shortcut.Shortcut{
		Name:        shortcutName,
		Title:       shortcutTitle,
		Target:      a.req.ServerPath(),
		WorkingDir:  a.req.TargetDir,
		Description: shortcutDescription,
	})
	if err != nil {
		serr := installerr.New(installerr.KindShortcut, err, "cannot create server shortcut: %v", err)
		log.Warnf("%s, continuing without it", serr.Error())
	} else {
		log.Infof("server shortcut created: %v", created)
	}

	s.completeStep()
	return nil
}

func (a *App) launchServer(ctx context.Context, s *session) error {
	s.enter(StateStarting)
	srv, err := a.start(a.req.ServerPath(), a.req.TargetDir)
	if err != nil {
		return err
	}
	a.server = srv
	s.completeStep()

	if err := ctx.Err(); err != nil {
		return installerr.Interrupted(err)
	}

	s.enter(StateHealthPolling)
	err = a.health.WaitHealthy(ctx, srv, a.opts.HealthTimeout, func(attempt, maxAttempts int) {
		s.update(float64(attempt-1) * 100 / float64(maxAttempts))
	})
	if err != nil {
		return err
	}
	s.completeStep()

	if a.req.OpenBrowser {
		if err := a.browser.Open(a.opts.BrowserURL); err != nil {
			log.Warnf("%v", err)
		}
	}
	return nil
}

func (a *App) writeResult(s *session, runErr error) {
	result := Result{
		Success:    runErr == nil,
		Version:    s.version,
		ExecutedAt: time.Now(),
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}

	// the run context may be cancelled already
	if err := NewResultHandler(a.opts.ResultFile).Write(context.Background(), result); err != nil {
		log.Errorf("installation result not saved: %v", err)
	}
}
