package process

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/shirou/gopsutil/v3/process"
	log "github.com/sirupsen/logrus"

	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/installerr"
)

const defaultPollInterval = 100 * time.Millisecond

// Handle is a live OS process. The installer only observes and kills it.
type Handle interface {
	PID() int32
	Name() string
	Kill(ctx context.Context) error
	IsRunning(ctx context.Context) (bool, error)
}

// Lister enumerates live processes.
type Lister func(ctx context.Context) ([]Handle, error)

// Finder discovers and stops running server processes.
type Finder struct {
	list         Lister
	name         string
	threshold    float64
	selfPID      int32
	forceKill    func(ctx context.Context, pid int32) error
	pollInterval time.Duration
}

// NewFinder returns a finder scanning the OS process table.
func NewFinder() *Finder {
	return NewFinderWithLister(listProcesses)
}

// NewFinderWithLister returns a finder scanning the processes returned by list.
func NewFinderWithLister(list Lister) *Finder {
	return &Finder{
		list:         list,
		name:         ServerProcessName,
		threshold:    MatchThreshold,
		selfPID:      int32(os.Getpid()),
		forceKill:    forceKill,
		pollInterval: defaultPollInterval,
	}
}

// Find returns the running processes whose name matches the server name.
// The installer's own process is never returned.
func (f *Finder) Find(ctx context.Context) ([]Handle, error) {
	handles, err := f.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	handles = slices.DeleteFunc(handles, func(h Handle) bool { return h.PID() == f.selfPID })
	matched := Select(handles, f.name, f.threshold)
	for _, h := range matched {
		log.Debugf("server process: %s - process id: %d", h.Name(), h.PID())
	}
	return matched, nil
}

// Stop kills every handle and waits up to timeout for all of them to exit.
// Survivors get a forceful kill when the platform provides one. The returned
// error aggregates kill failures and is informational: alive decides whether
// the stop succeeded.
func (f *Finder) Stop(ctx context.Context, handles []Handle, timeout time.Duration) (terminated, alive []Handle, err error) {
	var merr *multierror.Error
	for _, h := range handles {
		log.Infof("stopping %s (pid %d)", h.Name(), h.PID())
		if err := h.Kill(ctx); err != nil {
			merr = multierror.Append(merr, err)
		}
	}

	terminated, alive = f.wait(ctx, handles, timeout)
	if len(alive) > 0 && f.forceKill != nil && ctx.Err() == nil {
		for _, h := range alive {
			log.Warnf("process %d survived, forcing termination", h.PID())
			if err := f.forceKill(ctx, h.PID()); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("force kill %d: %w", h.PID(), err))
			}
		}
		var killed []Handle
		killed, alive = f.wait(ctx, alive, timeout)
		terminated = append(terminated, killed...)
	}

	return terminated, alive, installerr.FormatErrorOrNil(merr)
}

func (f *Finder) wait(ctx context.Context, handles []Handle, timeout time.Duration) (terminated, alive []Handle) {
	deadline := time.Now().Add(timeout)
	pending := handles
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		var still []Handle
		for _, h := range pending {
			running, err := h.IsRunning(ctx)
			if err != nil {
				log.Debugf("failed to check process %d: %v", h.PID(), err)
			}
			if running {
				still = append(still, h)
			} else {
				terminated = append(terminated, h)
			}
		}
		pending = still

		if len(pending) == 0 || !time.Now().Before(deadline) {
			return terminated, pending
		}

		select {
		case <-ctx.Done():
			return terminated, pending
		case <-ticker.C:
		}
	}
}

type osProcess struct {
	proc *process.Process
	name string
}

func (p *osProcess) PID() int32 {
	return p.proc.Pid
}

func (p *osProcess) Name() string {
	return p.name
}

func (p *osProcess) Kill(ctx context.Context) error {
	if err := p.proc.KillWithContext(ctx); err != nil {
		if !isProcessOwnedByCurrentUser(p.proc) {
			return fmt.Errorf("kill %s (pid %d) owned by another user: %w", p.name, p.proc.Pid, err)
		}
		return fmt.Errorf("kill %s (pid %d): %w", p.name, p.proc.Pid, err)
	}
	return nil
}

func (p *osProcess) IsRunning(ctx context.Context) (bool, error) {
	running, err := p.proc.IsRunningWithContext(ctx)
	if err != nil || !running {
		return false, err
	}

	// a killed process stays in the table until its parent reaps it
	status, err := p.proc.StatusWithContext(ctx)
	if err == nil && slices.Contains(status, process.Zombie) {
		return false, nil
	}
	return true, nil
}

func listProcesses(ctx context.Context) ([]Handle, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	handles := make([]Handle, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			log.Debugf("process %d was stopped before being analyzed, skipping: %v", p.Pid, err)
			continue
		}
		handles = append(handles, &osProcess{proc: p, name: name})
	}
	return handles, nil
}
