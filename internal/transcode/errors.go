package transcode

import "fmt"

// ErrorKind classifies transcoder failures.
type ErrorKind int

const (
	// SpawnFailure means the transcoder process could not be started,
	// including failures while staging its inputs.
	SpawnFailure ErrorKind = iota

	// NonZeroExit means the transcoder ran but reported failure.
	NonZeroExit

	// Timeout means the job exceeded the configured duration ceiling and
	// the process was killed.
	Timeout

	// Cancelled means the job was cancelled by the caller while running.
	Cancelled
)

func (k ErrorKind) String() string {
	switch k {
	case SpawnFailure:
		return "spawn failure"
	case NonZeroExit:
		return "non-zero exit"
	case Timeout:
		return "timeout"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error reports why a transcode failed. Whenever an Error is returned
// the partial output file has already been removed.
type Error struct {
	Kind     ErrorKind
	ExitCode int
	Err      error
}

func (e *Error) Error() string {
	if e.Kind == NonZeroExit {
		return fmt.Sprintf("transcode: transcoder exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("transcode: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
