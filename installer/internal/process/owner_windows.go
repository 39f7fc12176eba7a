package process

import (
	"context"
	"fmt"
	"os/exec"
	"os/user"
	"strconv"

	"github.com/shirou/gopsutil/v3/process"
	log "github.com/sirupsen/logrus"
)

func isProcessOwnedByCurrentUser(p *process.Process) bool {
	processUsername, err := p.Username()
	if err != nil {
		log.Errorf("get process username error: %v", err)
		return false
	}

	currUser, err := user.Current()
	if err != nil {
		log.Errorf("get current user error: %v", err)
		return false
	}

	return processUsername == currUser.Username
}

// forceKill terminates the whole process tree with taskkill.
var forceKill = func(ctx context.Context, pid int32) error {
	cmd := exec.CommandContext(ctx, "taskkill", "/F", "/T", "/PID", strconv.Itoa(int(pid)))
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("taskkill: %w, output: %s", err, string(output))
	}
	return nil
}
