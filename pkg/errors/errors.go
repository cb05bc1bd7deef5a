package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried in the JSON error envelope.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
	CodeRateLimited      = "RATE_LIMITED"
	CodeCorrupt          = "CORRUPT_DATA"
	CodeInternal         = "INTERNAL_ERROR"
)

// Sentinels. Wrap them with %w so Classify and HTTPStatus can see through.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternal       = errors.New("internal error")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrCorrupt        = errors.New("corrupt data")
)

// AppError is an error with a client-facing code and message.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func newError(code string, status int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: err}
}

// NotFound reports a missing resource by kind and id.
func NotFound(resource, id string) *AppError {
	return newError(CodeNotFound, http.StatusNotFound,
		fmt.Sprintf("%s with id %s not found", resource, id), ErrNotFound)
}

// InvalidInput reports a malformed request.
func InvalidInput(message string) *AppError {
	return newError(CodeInvalidInput, http.StatusBadRequest, message, ErrInvalidInput)
}

// Unavailable reports an upstream dependency that could not be reached.
func Unavailable(message string, err error) *AppError {
	return newError(CodeUnavailable, http.StatusServiceUnavailable, message, errors.Join(ErrServiceUnavail, err))
}

// Corrupt reports stored data that could not be decoded.
func Corrupt(resource string, err error) *AppError {
	return newError(CodeCorrupt, http.StatusInternalServerError,
		resource+" could not be decoded", errors.Join(ErrCorrupt, err))
}

// Internal hides err behind a generic message.
func Internal(err error) *AppError {
	return newError(CodeInternal, http.StatusInternalServerError, "an internal error occurred", err)
}

type class struct {
	sentinel error
	code     string
	status   int
	message  string
}

var classes = []class{
	{ErrNotFound, CodeNotFound, http.StatusNotFound, "resource not found"},
	{ErrInvalidInput, CodeInvalidInput, http.StatusBadRequest, ""},
	{ErrServiceUnavail, CodeUnavailable, http.StatusServiceUnavailable, "service unavailable"},
	{ErrCorrupt, CodeCorrupt, http.StatusInternalServerError, "stored data could not be decoded"},
}

// Classify maps err to the code, status and client message written in the
// error envelope. An *AppError anywhere in the chain wins; otherwise the
// first matching sentinel decides. Invalid input echoes err's own text.
func Classify(err error) (code string, status int, message string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, appErr.Status, appErr.Message
	}
	for _, c := range classes {
		if errors.Is(err, c.sentinel) {
			if c.message == "" {
				return c.code, c.status, err.Error()
			}
			return c.code, c.status, c.message
		}
	}
	return CodeInternal, http.StatusInternalServerError, "an internal error occurred"
}

// HTTPStatus returns the status Classify would assign to err.
func HTTPStatus(err error) int {
	_, status, _ := Classify(err)
	return status
}
