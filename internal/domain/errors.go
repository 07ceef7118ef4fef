package domain

import "errors"

// Error kinds. Pipeline errors wrap exactly one of these.
var (
	// ErrValidation indicates empty or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrEmbedding indicates the embedding provider failed or returned
	// malformed output.
	ErrEmbedding = errors.New("embedding failed")

	// ErrStore indicates a persistence or query failure.
	ErrStore = errors.New("store failed")

	// ErrNotFound indicates a requested document does not exist.
	ErrNotFound = errors.New("not found")
)

// Error is the single human-readable failure returned at the pipeline
// boundary. Error() is the message to display; Kind keeps errors.Is usable.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

// NewError builds an Error whose message is the cause's message when it
// is non-empty, and fallback otherwise.
func NewError(kind error, err error, fallback string) *Error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = fallback
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the error kind as well as the wrapped chain.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// Message returns the displayable message for err, or fallback when
// err carries no text.
func Message(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
