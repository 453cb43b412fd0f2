package booking

import "errors"

// Error taxonomy shared with the tool layer. Every sentinel here is an
// expected outcome: it reaches the dialogue driver as {ok:false, message},
// never as an uncaught fault.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidDateTime    = errors.New("invalid date or time")
	ErrStoreFailure       = errors.New("storage failure")
	ErrFatalInconsistency = errors.New("fatal inconsistency")
	ErrRequestInFlight    = errors.New("identical booking request is still being processed")
)

// UserError carries a short, non-technical message to display verbatim to
// the patient, plus the taxonomy sentinel it belongs to. Internal detail
// (store errors, stack traces) never goes in Message.
type UserError struct {
	Kind    error
	Message string
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Kind }

func invalidInput(msg string) error {
	return &UserError{Kind: ErrInvalidInput, Message: msg}
}

func invalidDateTime(msg string) error {
	return &UserError{Kind: ErrInvalidDateTime, Message: msg}
}
