package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const msgTimeout = "Request timed out"

// RequestTimeout puts a deadline on the request context and runs the handler
// on the request goroutine, so Recovery still sees its panics. Handlers that
// give up because the deadline passed are answered with 504. Paths starting
// with one of the skip prefixes keep the caller's context untouched.
func RequestTimeout(timeout time.Duration, skip ...string) echo.MiddlewareFunc {
	return echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{
		Timeout: timeout,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			for _, prefix := range skip {
				if strings.HasPrefix(path, prefix) {
					return true
				}
			}
			return false
		},
		ErrorHandler: func(err error, c echo.Context) error {
			if errors.Is(err, context.DeadlineExceeded) {
				return echo.NewHTTPError(http.StatusGatewayTimeout, msgTimeout).SetInternal(err)
			}
			return err
		},
	})
}
