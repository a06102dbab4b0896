package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dailyroster/rosterd/internal/model"
	"github.com/dailyroster/rosterd/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodePermission         = "PERMISSION_DENIED"
	CodeCutoffPassed       = "CUTOFF_PASSED"
	CodeMarkWindowClosed   = "MARK_WINDOW_CLOSED"
	CodeNotLocked          = "NOT_LOCKED"
	CodeSelfTarget         = "SELF_TARGET"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeHostNotFound       = "HOST_NOT_FOUND"
	CodeEntryNotFound      = "ENTRY_NOT_FOUND"
	CodePlayerExists       = "PLAYER_EXISTS"
	CodeHostExists         = "HOST_EXISTS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrHostNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeHostNotFound, "Host not found"}}
	case errors.Is(err, model.ErrEntryNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeEntryNotFound, "No attendance entry for this date"}}
	case errors.Is(err, model.ErrPlayerExists):
		return &httpError{http.StatusConflict, APIError{CodePlayerExists, "Player already exists"}}
	case errors.Is(err, model.ErrHostExists):
		return &httpError{http.StatusConflict, APIError{CodeHostExists, "Host already exists"}}
	case errors.Is(err, model.ErrReasonRequired):
		return &httpError{http.StatusBadRequest, APIError{CodeValidation, "A decline requires a reason"}}
	case errors.Is(err, model.ErrInvalidIdentity):
		return &httpError{http.StatusBadRequest, APIError{CodeValidation, "Invalid identity"}}
	case errors.Is(err, model.ErrInvalidDate):
		return &httpError{http.StatusBadRequest, APIError{CodeValidation, "Invalid date"}}
	case errors.Is(err, model.ErrInvalidAvailability):
		return &httpError{http.StatusBadRequest, APIError{CodeValidation, "Availability must be yes or no"}}
	case errors.Is(err, model.ErrInvalidAttendance):
		return &httpError{http.StatusBadRequest, APIError{CodeValidation, "Attendance must be yes or no"}}
	case errors.Is(err, model.ErrCutoffPassed):
		return &httpError{http.StatusConflict, APIError{CodeCutoffPassed, "Submission cutoff has passed for this date"}}
	case errors.Is(err, model.ErrNotLocked):
		return &httpError{http.StatusConflict, APIError{CodeNotLocked, "Availability is not finalized for this date yet"}}
	case errors.Is(err, model.ErrMarkWindowClosed):
		return &httpError{http.StatusConflict, APIError{CodeMarkWindowClosed, "Attendance marking window has closed"}}
	case errors.Is(err, model.ErrPermission):
		return &httpError{http.StatusForbidden, APIError{CodePermission, "Role insufficient for this action"}}
	case errors.Is(err, model.ErrSelfTarget):
		return &httpError{http.StatusForbidden, APIError{CodeSelfTarget, "Cannot remove your own record"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid email or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewForbiddenError creates a permission error
func NewForbiddenError() error {
	return &httpError{http.StatusForbidden, APIError{CodePermission, "Role insufficient for this action"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
