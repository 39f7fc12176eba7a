package app

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/mitchellh/go-homedir"
)

// Request is an immutable installation request.
type Request struct {
	SourceDir      string
	TargetDir      string
	CreateShortcut bool
	Launch         bool
	// OpenBrowser opens the server page once it is healthy. Ignored without Launch.
	OpenBrowser bool
}

// Normalize returns a copy of r with both directories made absolute, a
// leading ~ being expanded to the user's home directory.
func (r Request) Normalize() (Request, error) {
	source, err := absPath(r.SourceDir)
	if err != nil {
		return r, fmt.Errorf("source directory: %w", err)
	}
	target, err := absPath(r.TargetDir)
	if err != nil {
		return r, fmt.Errorf("target directory: %w", err)
	}
	r.SourceDir = source
	r.TargetDir = target
	return r, nil
}

// Steps returns the number of progress steps of the request.
func (r Request) Steps() int {
	steps := 2 // stop server, install files
	if r.CreateShortcut {
		steps++
	}
	if r.Launch {
		steps += 2
	}
	return steps
}

// ServerPath returns the server executable of the installation.
func (r Request) ServerPath() string {
	return filepath.Join(r.TargetDir, "AntaresWeb", serverExecutable(runtime.GOOS))
}

func serverExecutable(goos string) string {
	if goos == "windows" {
		return "AntaresWebServer.exe"
	}
	return "AntaresWebServer"
}

func absPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}
