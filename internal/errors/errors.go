package errors

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	// ErrTaskNotFound is returned when no owned task matches the given id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidTaskID is returned when the task id is not a valid UUID.
	ErrInvalidTaskID = errors.New("invalid task ID")
	// ErrEmptyTitle is returned when a task title is empty after trimming.
	ErrEmptyTitle = errors.New("task title is required")
	// ErrTitleTooLong is returned when a task title exceeds 100 characters.
	ErrTitleTooLong = errors.New("title cannot exceed 100 characters")
	// ErrDescriptionTooLong is returned when a description exceeds 500 characters.
	ErrDescriptionTooLong = errors.New("description cannot exceed 500 characters")
	// ErrInvalidPriority is returned when priority is not low, medium or high.
	ErrInvalidPriority = errors.New("priority must be low, medium or high")
	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password so the response carries no enumeration signal.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrUsernameTaken is returned when the username is already registered.
	ErrUsernameTaken = errors.New("user with this username already exists")
	// ErrUserNotFound is returned when the token references a deleted user.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoAuthHeader is returned when the Authorization header is absent.
	ErrNoAuthHeader = errors.New("no authorization header provided")
	// ErrInvalidToken is returned for malformed or badly signed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for tokens past their expiry.
	ErrTokenExpired = errors.New("token has expired")
)

// ErrorResponse is the wire format for every failed request.
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// HTTPError carries a status code alongside the client-facing message.
type HTTPError struct {
	StatusCode int
	Message    string
	Errors     []string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message string, fieldErrors ...string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Errors:     fieldErrors,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Message: e.Message,
		Errors:  e.Errors,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything unmapped
// becomes a generic 500 so no internal detail leaks to the client.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTaskID),
		errors.Is(err, ErrEmptyTitle),
		errors.Is(err, ErrTitleTooLong),
		errors.Is(err, ErrDescriptionTooLong),
		errors.Is(err, ErrInvalidPriority),
		errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrUsernameTaken):
		return NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrNoAuthHeader),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired):
		return NewHTTPError(http.StatusUnauthorized, err.Error())
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

// HTTPErrorHandler is the global Echo fallback: it renders HTTPError and
// echo.HTTPError values as ErrorResponse, turns unmatched routes into a JSON
// 404, and hides unexpected failures behind a generic 500 unless devMode is
// set, in which case the underlying message is echoed.
func HTTPErrorHandler(devMode bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var resp ErrorResponse
		status := http.StatusInternalServerError

		var appErr *HTTPError
		var echoErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = appErr.StatusCode
			resp = appErr.ToErrorResponse()
		case errors.As(err, &echoErr):
			status = echoErr.Code
			switch m := echoErr.Message.(type) {
			case string:
				if status == http.StatusNotFound && m == http.StatusText(http.StatusNotFound) {
					m = "route not found"
				}
				resp = ErrorResponse{Message: m}
			case ErrorResponse:
				resp = m
			default:
				resp = ErrorResponse{Message: http.StatusText(status)}
			}
		default:
			resp = ErrorResponse{Message: "internal server error"}
			if devMode {
				resp.Message = err.Error()
			}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, resp)
	}
}
