package apperr

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// envelope is the uniform error response body.
type envelope struct {
	Error *Error `json:"error"`
}

// HTTPErrorHandler is installed as echo's centralized error handler. Domain
// *Error values are serialized as-is with their status; echo's own
// *HTTPError (404 on unknown routes, 405, binding failures) is translated
// into the same envelope; everything else is logged server-side and masked
// as internal_error.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			appErr = fromEcho(echoErr)
		} else {
			log.Printf("internal error on %s %s: %v", c.Request().Method, c.Path(), err)
			appErr = Internal()
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(appErr.Status)
		return
	}
	if err := c.JSON(appErr.Status, envelope{Error: appErr}); err != nil {
		log.Printf("failed to write error response: %v", err)
	}
}

func fromEcho(he *echo.HTTPError) *Error {
	switch he.Code {
	case http.StatusNotFound:
		return NotFound("Resource not found")
	case http.StatusUnauthorized:
		return Unauthorized()
	case http.StatusBadRequest:
		return Validation("Invalid request", nil)
	default:
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		return &Error{Status: he.Code, Code: "error", Message: msg}
	}
}
