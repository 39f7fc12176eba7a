//go:build !windows

package shortcut

import "runtime"

// New returns the shortcut creator of the running platform.
func New() Creator {
	if runtime.GOOS == "darwin" {
		return unsupported{}
	}
	return &FreeDesktop{}
}

type unsupported struct{}

func (unsupported) Create(Shortcut) ([]string, error) {
	return nil, ErrUnsupported
}
