package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMeetingNotFound  = errors.New("meeting not found")
	ErrArtifactNotFound = errors.New("meeting notes not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("service unavailable")
	ErrUpstreamTimeout  = errors.New("upstream timeout")

	ErrNoSpeech = errors.New("No speech detected in audio file")
)

// KindError tags an error with one of the sentinel kinds above.
type KindError struct {
	Kind error
	Op   string
	Err  error
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *KindError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Kind: kind, Op: operation, Err: err}
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// Message returns the text meant for API clients: the cause of the outermost
// typed error, or the full error text otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var kindErr *KindError
	if errors.As(err, &kindErr) {
		return kindErr.Err.Error()
	}
	return err.Error()
}
