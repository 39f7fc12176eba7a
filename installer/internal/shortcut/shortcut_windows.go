package shortcut

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// New returns the shortcut creator of the running platform.
func New() Creator {
	return &WindowsShell{}
}

// WindowsShell writes .lnk files on the user's desktop through WScript.Shell.
type WindowsShell struct{}

func (w *WindowsShell) Create(s Shortcut) ([]string, error) {
	desktop, err := windows.KnownFolderPath(windows.FOLDERID_Desktop, windows.KF_FLAG_DEFAULT)
	if err != nil {
		return nil, fmt.Errorf("resolve desktop folder: %w", err)
	}

	path := filepath.Join(desktop, s.Name+".lnk")
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove existing shortcut %s: %w", path, err)
	}

	workDir := s.WorkingDir
	if workDir == "" {
		if workDir, err = windows.KnownFolderPath(windows.FOLDERID_Profile, windows.KF_FLAG_DEFAULT); err != nil {
			return nil, fmt.Errorf("resolve profile folder: %w", err)
		}
	}

	if err := saveLink(path, s.Target, workDir, s.Description); err != nil {
		return nil, fmt.Errorf("save shortcut %s: %w", path, err)
	}
	log.Infof("shortcut created in %s", path)
	return []string{path}, nil
}

func saveLink(path, target, workDir, description string) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED|ole.COINIT_SPEED_OVER_MEMORY); err != nil {
		var oleErr *ole.OleError
		// S_FALSE: already initialized on this thread
		if !errors.As(err, &oleErr) || oleErr.Code() != 1 {
			return fmt.Errorf("initialize COM: %w", err)
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("WScript.Shell")
	if err != nil {
		return fmt.Errorf("create WScript.Shell: %w", err)
	}
	defer unknown.Release()

	shell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("query WScript.Shell dispatch: %w", err)
	}
	defer shell.Release()

	result, err := oleutil.CallMethod(shell, "CreateShortcut", path)
	if err != nil {
		return fmt.Errorf("create shortcut object: %w", err)
	}
	link := result.ToIDispatch()
	defer link.Release()

	properties := []struct {
		name  string
		value any
	}{
		{"TargetPath", target},
		{"WorkingDirectory", workDir},
		{"WindowStyle", 7},
		{"Description", description},
		{"IconLocation", target},
	}
	for _, p := range properties {
		if _, err := oleutil.PutProperty(link, p.name, p.value); err != nil {
			return fmt.Errorf("set %s: %w", p.name, err)
		}
	}

	if _, err := oleutil.CallMethod(link, "Save"); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
