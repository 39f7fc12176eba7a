package app

import (
	log "github.com/sirupsen/logrus"
)

// State is a stage of the installation state machine.
type State int

const (
	StateIdle State = iota
	StateStoppingServer
	StateInstalling
	StateCreatingShortcut
	StateStarting
	StateHealthPolling
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStoppingServer:
		return "stopping server"
	case StateInstalling:
		return "installing"
	case StateCreatingShortcut:
		return "creating shortcut"
	case StateStarting:
		return "starting server"
	case StateHealthPolling:
		return "waiting for server"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// session holds the mutable state of one Run call.
type session struct {
	state    State
	step     int
	steps    int
	progress float64
	version  string

	onProgress func(float64)
	onState    func(State)
}

func newSession(steps int, onProgress func(float64), onState func(State)) *session {
	return &session{steps: steps, onProgress: onProgress, onState: onState}
}

func (s *session) enter(state State) {
	s.state = state
	log.Debugf("installer state: %s", state)
	if s.onState != nil {
		s.onState(state)
	}
}

// update maps the progress of the current step into its share of the whole
// installation. Overall progress never decreases.
func (s *session) update(stepProgress float64) {
	stepProgress = min(max(stepProgress, 0), 100)
	progress := (stepProgress + float64(s.step)*100) / float64(s.steps)
	progress = min(max(progress, s.progress), 100)

	s.progress = progress
	log.Infof("Progression: %.2f", progress)
	if s.onProgress != nil {
		s.onProgress(progress)
	}
}

// completeStep fills the current step and moves to the next one.
func (s *session) completeStep() {
	s.update(100)
	s.step++
}

// subProgress maps a 0-100 progress into the [from, to] window of the current step.
func (s *session) subProgress(from, to float64) func(float64) {
	return func(p float64) {
		s.update(from + (to-from)*p/100)
	}
}
