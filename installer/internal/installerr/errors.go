package installerr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Kind classifies a fatal installation failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindProcessStop
	KindCopy
	KindVersionCheck
	KindVersionTooOld
	KindConfig
	KindServerStart
	KindShortcut
	KindInterrupted
	KindLocked
)

func (k Kind) String() string {
	switch k {
	case KindProcessStop:
		return "process stop failure"
	case KindCopy:
		return "copy failure"
	case KindVersionCheck:
		return "version check failure"
	case KindVersionTooOld:
		return "version too old"
	case KindConfig:
		return "configuration failure"
	case KindServerStart:
		return "server start failure"
	case KindShortcut:
		return "shortcut creation failure"
	case KindInterrupted:
		return "interrupted"
	case KindLocked:
		return "installation in progress"
	default:
		return "unknown failure"
	}
}

// VersionCheckReason tells apart the ways a version probe can fail.
type VersionCheckReason int

const (
	VersionNotFound VersionCheckReason = iota + 1
	VersionProcessFailed
	VersionTimeout
	VersionUnparseable
)

func (r VersionCheckReason) String() string {
	switch r {
	case VersionNotFound:
		return "executable not found"
	case VersionProcessFailed:
		return "process failed"
	case VersionTimeout:
		return "timeout"
	case VersionUnparseable:
		return "no version found"
	default:
		return "unknown"
	}
}

// Error is a stage-level failure. Message is what the end user sees, Err is
// kept for debug logging.
type Error struct {
	Kind    Kind
	Reason  VersionCheckReason
	Message string
	Err     error
}

func (e *Error) Error() string {
	return singleLine(e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail returns the message followed by the underlying cause, possibly over
// several lines.
func (e *Error) Detail() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func New(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func VersionCheck(reason VersionCheckReason, err error, format string, args ...any) *Error {
	return &Error{Kind: KindVersionCheck, Reason: reason, Message: fmt.Sprintf(format, args...), Err: err}
}

// Interrupted is returned when the run context was cancelled.
func Interrupted(err error) *Error {
	return &Error{Kind: KindInterrupted, Message: "installation interrupted", Err: err}
}

// KindOf returns the kind of the first *Error in the chain.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindUnknown
}

// ReasonOf returns the version check reason of the first *Error in the chain.
func ReasonOf(err error) VersionCheckReason {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Reason
	}
	return 0
}

func formatError(es []error) string {
	if len(es) == 1 {
		return fmt.Sprintf("1 error occurred:\n\t* %s", es[0])
	}

	points := make([]string, len(es))
	for i, err := range es {
		points[i] = fmt.Sprintf("* %s", err)
	}

	return fmt.Sprintf(
		"%d errors occurred:\n\t%s",
		len(es), strings.Join(points, "\n\t"))
}

// FormatErrorOrNil sets a bullet-list formatter on the aggregated error.
func FormatErrorOrNil(err *multierror.Error) error {
	if err != nil {
		err.ErrorFormat = formatError
	}
	return err.ErrorOrNil()
}

func singleLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
