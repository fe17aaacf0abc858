package domain

import "fmt"

// Error types for consistent error handling across the API.

// ErrNotFound indicates a resource was not found. Message overrides the
// default text.
type ErrNotFound struct {
	Resource string
	ID       string
	Message  string
}

func (e *ErrNotFound) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Invalid value for %s", e.Field)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Unauthorized"
}

// ErrForbidden indicates the caller lacks permission for the operation.
// The API reports it with 401, like authentication failures.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return MsgNotAllowed
}

// ErrConflict indicates a resource already exists (duplicate email or company
// name) or a write lost a race with another one.
type ErrConflict struct {
	Message string
	Err     error
}

func (e *ErrConflict) Error() string {
	return e.Message
}

func (e *ErrConflict) Unwrap() error {
	return e.Err
}

// ErrUpstream indicates a failed call to an external collaborator
// (email provider) that the caller is told about.
type ErrUpstream struct {
	Service string
	Message string
	Err     error
}

func (e *ErrUpstream) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrUpstream) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// Client-facing messages shared between services and handlers.
const (
	MsgNotAllowed         = "User is not allowed to perform this action"
	MsgInvalidCredentials = "Invalid Credentials"
	MsgUserExists         = "User Already Exists"
	MsgCompanyExists      = "Company with the provided name already registerd"
	MsgEmailFailed        = "Error occured during sending email"
	MsgValidationFailed   = "Validation has not passed"
	MsgFeedbackInvalid    = "Validation failed"
	MsgFileRequired       = "File must be uploaded"
	MsgContactLinked      = "User with the provided email is already a contact person"
	MsgIncorrectID        = "Incorrect id was provided"
	MsgInternal           = "Internal Server Error"
	MsgConcurrentUpdate   = "Data was changed by another request, please retry"
)
