package resolver

import "fmt"

// ErrorKind classifies a failed resolution
type ErrorKind string

const (
	AllProvidersFailed ErrorKind = "ALL_PROVIDERS_FAILED"
	NotFound           ErrorKind = "NOT_FOUND"
)

// Attempt records one failed provider call
type Attempt struct {
	Provider string
	Err      error
}

// ResolutionError is the only failure surfaced by Resolve
type ResolutionError struct {
	Kind     ErrorKind
	Word     string
	Detail   string
	Attempts []Attempt
}

func (e *ResolutionError) Error() string {
	if e.Kind == NotFound {
		return fmt.Sprintf("word not found: %s", e.Detail)
	}
	return fmt.Sprintf("could not trace roots: %s", e.Detail)
}

// Unwrap exposes the last provider failure
func (e *ResolutionError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}
