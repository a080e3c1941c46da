package errresponse

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/blog/internal/articlerequest"
	"github.com/SergeyParamoshkin/blog/internal/auth"
	"github.com/SergeyParamoshkin/blog/internal/store"
)

// ErrResponse renderer type for handling all sorts of errors.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string            `json:"status"`           // user-level status message
	AppCode    int64             `json:"code,omitempty"`   // application-specific error code
	ErrorText  string            `json:"error,omitempty"`  // application-level error message, for debugging
	Fields     map[string]string `json:"fields,omitempty"` // per-field validation messages
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)

	return nil
}

func (e *ErrResponse) Error() string {
	if e.Err != nil {
		return e.StatusText + ": " + e.Err.Error()
	}

	return e.StatusText
}

func ErrInvalidRequest(err error) *ErrResponse {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrValidation(err *articlerequest.ValidationError) *ErrResponse {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusUnprocessableEntity,
		StatusText:     "Invalid form.",
		Fields:         err.Fields,
	}
}

func ErrRender(err error) *ErrResponse {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusUnprocessableEntity,
		StatusText:     "Error rendering response.",
		ErrorText:      err.Error(),
	}
}

// ErrInternal hides err from the client; callers log it.
func ErrInternal(err error) *ErrResponse {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "Internal server error.",
	}
}

var (
	ErrNotFound        = &ErrResponse{HTTPStatusCode: http.StatusNotFound, StatusText: "Resource not found."}
	ErrForbidden       = &ErrResponse{HTTPStatusCode: http.StatusForbidden, StatusText: "Forbidden."}
	ErrUnauthenticated = &ErrResponse{HTTPStatusCode: http.StatusUnauthorized, StatusText: "Authentication required."}
)

// FromError maps service errors onto response payloads. Unknown errors
// become ErrInternal.
func FromError(err error) *ErrResponse {
	var (
		resp *ErrResponse
		verr *articlerequest.ValidationError
	)
	switch {
	case errors.As(err, &resp):
		return resp
	case errors.As(err, &verr):
		return ErrValidation(verr)
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, auth.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, auth.ErrUnauthenticated):
		return ErrUnauthenticated
	default:
		return ErrInternal(err)
	}
}
