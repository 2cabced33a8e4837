package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HTTPErrorHandler renders errors as {"error": ..., "details": ...}. A string
// message becomes the error text and the internal error, when set, becomes
// the details. Any other message value (for example a conflict payload) is
// written as-is.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			he = &echo.HTTPError{
				Code:     http.StatusInternalServerError,
				Message:  msgInternal,
				Internal: err,
			}
		}

		var body interface{}
		switch msg := he.Message.(type) {
		case string:
			b := ErrorBody{Error: msg}
			if he.Internal != nil {
				b.Details = he.Internal.Error()
			}
			body = b
		case error:
			body = ErrorBody{Error: msg.Error()}
		case nil:
			body = ErrorBody{Error: http.StatusText(he.Code)}
		default:
			body = msg
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(he.Code)
		} else {
			werr = c.JSON(he.Code, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
