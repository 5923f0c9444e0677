package usecase

// ValidationError is returned for missing or malformed input. Err is one of the
// sentinel values below and Message is safe to show to clients.
type ValidationError struct {
	Err     error
	Message string
	Fields  map[string]string
}

func newValidationError(err error, message string, fields map[string]string) *ValidationError {
	return &ValidationError{Err: err, Message: message, Fields: fields}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
