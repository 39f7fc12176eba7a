package launcher

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// setServerProcAttr runs the server detached from the installer console.
func setServerProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.DETACHED_PROCESS,
	}
}
