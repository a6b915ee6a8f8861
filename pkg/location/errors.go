package location

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformed matches every error caused by a response that does not have the expected layout.
	ErrMalformed = errors.New("malformed location data")
	// ErrTransport matches every error raised while reaching the location sharing service.
	ErrTransport = errors.New("location sharing transport failure")
)

// Path is a chain of array indices into a sharer record, e.g. [1][1][2].
type Path []int

func (p Path) String() string {
	var sb strings.Builder
	for _, i := range p {
		sb.WriteByte('[')
		sb.WriteString(strconv.Itoa(i))
		sb.WriteByte(']')
	}
	return sb.String()
}

// MalformedError reports a response whose shape or types differ from the expected layout.
type MalformedError struct {
	Path     Path   // Index chain that failed, empty for envelope-level failures
	Reason   string // Human-readable description of the mismatch
	Snapshot string // JSON rendering of the container actually encountered
}

func (e *MalformedError) Error() string {
	var sb strings.Builder
	sb.WriteString(ErrMalformed.Error())
	if len(e.Path) > 0 {
		sb.WriteString(" at ")
		sb.WriteString(e.Path.String())
	}
	sb.WriteString(": ")
	sb.WriteString(e.Reason)
	if e.Snapshot != "" {
		sb.WriteString(" (got ")
		sb.WriteString(e.Snapshot)
		sb.WriteByte(')')
	}
	return sb.String()
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

func malformed(path Path, reason string, snapshot string) *MalformedError {
	return &MalformedError{Path: append(Path(nil), path...), Reason: reason, Snapshot: snapshot}
}

// TransportError reports a failure to obtain a response body from the service:
// request construction, connection, non-2xx status or body read.
type TransportError struct {
	Op         string // What was being attempted
	StatusCode int    // HTTP status when one was received, otherwise 0
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", ErrTransport, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrTransport, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
