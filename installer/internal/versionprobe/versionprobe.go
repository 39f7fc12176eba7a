package versionprobe

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/installerr"
)

// DefaultTimeout bounds a single `--version` call.
const DefaultTimeout = 30 * time.Second

var versionPattern = regexp.MustCompile(`^\d+(?:\.\d+)+`)

// Prober queries a server executable for its version.
type Prober struct {
	Timeout time.Duration
}

// New returns a prober with the default timeout.
func New() *Prober {
	return &Prober{Timeout: DefaultTimeout}
}

// Check runs `exe --version` and returns the leading dotted version number of
// its standard output, e.g. "2.19.1" for "2.19.1-beta".
func (p *Prober) Check(ctx context.Context, exe string) (string, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Infof("checking version of '%s'", exe)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, exe, "--version")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	setProcAttr(cmd)

	err := cmd.Run()
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) || errors.Is(err, exec.ErrNotFound):
		return "", installerr.VersionCheck(installerr.VersionNotFound, err, "can't check version: '%s' not found", exe)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "", installerr.VersionCheck(installerr.VersionTimeout, ctx.Err(), "can't check version: '%s' did not answer within %s", exe, timeout)
	case ctx.Err() != nil:
		return "", installerr.Interrupted(ctx.Err())
	default:
		return "", installerr.VersionCheck(installerr.VersionProcessFailed, &stderrError{err: err, stderr: stderr.String()},
			"can't check version of '%s': %v", exe, err)
	}

	output := strings.TrimSpace(stdout.String())
	version := versionPattern.FindString(output)
	if version == "" {
		return "", installerr.VersionCheck(installerr.VersionUnparseable, nil, "can't check version of '%s': no version found in %q", exe, firstLine(output))
	}

	log.Infof("version found: %s", version)
	return version, nil
}

// stderrError keeps the captured standard error for debug output.
type stderrError struct {
	err    error
	stderr string
}

func (e *stderrError) Error() string {
	if strings.TrimSpace(e.stderr) == "" {
		return e.err.Error()
	}
	return e.err.Error() + "\n" + indent(e.stderr, "  | ")
}

func (e *stderrError) Unwrap() error {
	return e.err
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
