package domain

import "errors"

// ErrorKind is a stable machine code for a resolution failure. Callers map
// kinds to exit statuses (CLI) or persist them on jobs (server).
type ErrorKind string

const (
	KindFetch         ErrorKind = "fetch_error"
	KindParse         ErrorKind = "parse_error"
	KindNotFound      ErrorKind = "not_found"
	KindNotConfident  ErrorKind = "not_confident"
	KindInvalidParams ErrorKind = "invalid_params"
)

// Error carries an ErrorKind plus context for display (attempted URL,
// underlying cause). Steps surface these to their caller; nothing is
// swallowed except the documented graceful degradations.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind from an error chain, "" for untyped errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
