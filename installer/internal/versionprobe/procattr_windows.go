package versionprobe

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// setProcAttr hides the console window of the probed executable.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
}
