package shortcut

import "errors"

// ErrUnsupported is returned on platforms without a shortcut implementation.
var ErrUnsupported = errors.New("shortcuts are not supported on this platform")

// Shortcut describes a launcher for the server executable.
type Shortcut struct {
	// Name is the file name without extension, e.g. AntaresWebServer.
	Name        string
	Title       string
	Target      string
	WorkingDir  string
	Description string
}

// Creator writes shortcuts and returns the paths it created.
type Creator interface {
	Create(s Shortcut) ([]string, error)
}
