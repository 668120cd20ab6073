package errs

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

// NotFoundError: the template does not exist or is not owned by the caller.
type NotFoundError struct {
	ErrorMessage
}

// AlreadyExistsError: a write collided with an existing document.
type AlreadyExistsError struct {
	ErrorMessage
}

// ValidationError: malformed template input (bad interval/anchor range,
// non-positive amount, endDate before startDate, bad date format).
type ValidationError struct {
	ErrorMessage
}

// DatabaseError wraps a Firestore failure with the attempted operation.
type DatabaseError struct {
	ErrorMessage
	Operation string
	Err       error
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// IntegrityError: an atomic lifecycle unit (scoped delete,
// propagate-on-edit) could not be committed and rolled back whole.
type IntegrityError struct {
	ErrorMessage
	Err error
}

func (e *IntegrityError) Unwrap() error { return e.Err }

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewAlreadyExistsError(message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewDatabaseError(operation, message string, err error) *DatabaseError {
	return &DatabaseError{
		ErrorMessage: ErrorMessage{Message: message},
		Operation:    operation,
		Err:          err,
	}
}

func NewIntegrityError(message string, err error) *IntegrityError {
	return &IntegrityError{
		ErrorMessage: ErrorMessage{Message: message},
		Err:          err,
	}
}
