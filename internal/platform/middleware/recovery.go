package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const msgInternal = "Internal server error"

// panicStackSize bounds the trace attached to a recovered panic.
const panicStackSize = 8 << 10

// Recovery turns a handler panic into a plain 500. The panic value and stack
// go to the log only; the response carries no details. http.ErrAbortHandler
// is re-raised so net/http still aborts the connection.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				rid, _ := c.Get("request_id").(string)
				logger.Error().
					Err(panicError(r)).
					Str("request_id", rid).
					Str("method", c.Request().Method).
					Str("route", c.Path()).
					Str("stack", panicStack()).
					Msg("handler panicked")

				err = echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
			}()
			return next(c)
		}
	}
}

func panicError(r interface{}) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}

func panicStack() string {
	buf := make([]byte, panicStackSize)
	return string(buf[:runtime.Stack(buf, false)])
}
