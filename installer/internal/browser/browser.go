package browser

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

// DefaultURL is the address served by a locally running Antares Web server.
const DefaultURL = "http://localhost:8080/"

// Opener opens a URL in the user's browser.
type Opener interface {
	Open(url string) error
}

// System opens URLs with the default browser of the desktop session.
type System struct {
	run func(string) error
}

func New() *System {
	return &System{run: open.Run}
}

func (s *System) Open(url string) error {
	if err := s.run(url); err != nil {
		return fmt.Errorf("could not open browser at '%s': %w", url, err)
	}
	log.Infof("browser was successfully opened at %s", url)
	return nil
}
