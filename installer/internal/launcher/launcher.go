package launcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/installerr"
)

const outputTailLines = 20

// Server is a detached Antares Web server spawned by the installer.
type Server struct {
	cmd     *exec.Cmd
	logPath string

	done    chan struct{}
	mu      sync.Mutex
	waitErr error
}

// Start spawns exe in workDir as a detached process. Its standard output and
// error go to a log file so it keeps running after the installer exits.
func Start(exe, workDir string) (*Server, error) {
	logFile, err := os.CreateTemp("", "antares-web-server-*.log")
	if err != nil {
		return nil, installerr.New(installerr.KindServerStart, err, "cannot create server log file: %v", err)
	}
	defer func() {
		if err := logFile.Close(); err != nil {
			log.Warnf("failed to close server log file: %v", err)
		}
	}()

	cmd := exec.Command(exe)
	cmd.Dir = workDir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	setServerProcAttr(cmd)

	log.Infof("starting server '%s'", exe)
	if err := cmd.Start(); err != nil {
		_ = os.Remove(logFile.Name())
		return nil, installerr.New(installerr.KindServerStart, err, "cannot start server '%s': %v", exe, err)
	}
	log.Infof("server started with pid %d, output in %s", cmd.Process.Pid, logFile.Name())

	srv := &Server{
		cmd:     cmd,
		logPath: logFile.Name(),
		done:    make(chan struct{}),
	}
	go srv.wait()
	return srv, nil
}

func (s *Server) wait() {
	err := s.cmd.Wait()
	s.mu.Lock()
	s.waitErr = err
	s.mu.Unlock()
	close(s.done)
}

// PID returns the process id of the server.
func (s *Server) PID() int {
	return s.cmd.Process.Pid
}

// LogPath returns the file receiving the server output.
func (s *Server) LogPath() string {
	return s.logPath
}

// Done is closed once the server process has exited.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// ExitError describes how the process ended. Only meaningful after Done.
func (s *Server) ExitError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.waitErr == nil {
		return errors.New("exited with status 0")
	}
	return s.waitErr
}

// Stop kills the server and waits for it to exit.
func (s *Server) Stop(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	default:
	}

	if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill server: %w", err)
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OutputTail returns the last lines written by the server.
func (s *Server) OutputTail() string {
	f, err := os.Open(s.logPath)
	if err != nil {
		return ""
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > outputTailLines {
			lines = lines[1:]
		}
	}
	return strings.Join(lines, "\n")
}
