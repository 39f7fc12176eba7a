//go:build unix

package launcher

import (
	"os/exec"
	"syscall"
)

// setServerProcAttr runs the server in a new session so that it outlives the
// installer and its terminal.
func setServerProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
