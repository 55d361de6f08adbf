package errors

import (
	"errors"
	"fmt"
)

var (
	ErrConfigInvalid        = errors.New("invalid configuration")
	ErrSourceIO             = errors.New("event source I/O failed")
	ErrMalformedLine        = errors.New("malformed event line")
	ErrObserverEvicted      = errors.New("observer evicted: queue saturated")
	ErrStreamingUnsupported = errors.New("streaming unsupported by response writer")
	ErrInvalidFilter        = errors.New("invalid event filter")
	ErrWorkspaceIO          = errors.New("workspace listing failed")
	ErrAlreadyRunning       = errors.New("already running")
)

func NewConfigError(field string, value interface{}) error {
	return fmt.Errorf("%w: field=%s value=%v", ErrConfigInvalid, field, value)
}

func NewSourceError(path string, op string, err error) error {
	return fmt.Errorf("%w: path=%s op=%s: %v", ErrSourceIO, path, op, err)
}

func NewFilterError(src string, err error) error {
	return fmt.Errorf("%w: %q: %v", ErrInvalidFilter, src, err)
}

func NewWorkspaceError(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrWorkspaceIO, path, err)
}
