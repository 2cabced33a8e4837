// Package auth guards the staff routes with HMAC-signed bearer tokens.
// Booking intake, the messaging webhook and the operational endpoints stay
// public.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const SubjectKey contextKey = "auth_subject"

// ErrNoSecret is returned when a token is requested without a signing secret.
var ErrNoSecret = errors.New("auth: signing secret not configured")

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

type Config struct {
	Secret []byte
	Issuer string
	// Skipper reports requests that bypass the token check.
	Skipper func(c echo.Context) bool
}

// Enabled reports whether a secret is configured. Without one the middleware
// lets every request through.
func (c Config) Enabled() bool {
	return len(c.Secret) > 0
}

// publicRoutes are reachable without a token. Keys are "METHOD path" using
// the registered route path.
var publicRoutes = map[string]bool{
	"GET /health":            true,
	"GET /health/db":         true,
	"GET /metrics":           true,
	"POST /appointments":     true,
	"GET /webhook/whatsapp":  true,
	"POST /webhook/whatsapp": true,
}

// PublicSkipper skips authentication for the routes in publicRoutes and for
// CORS preflight requests.
func PublicSkipper(c echo.Context) bool {
	if c.Request().Method == http.MethodOptions {
		return true
	}
	return publicRoutes[c.Request().Method+" "+c.Path()]
}

// Middleware validates "Authorization: Bearer <token>" on every request the
// skipper does not exempt.
func Middleware(cfg Config) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Enabled() || (cfg.Skipper != nil && cfg.Skipper(c)) {
				return next(c)
			}

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			scheme, tokenStr, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tokenStr) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenStr), claims, func(*jwt.Token) (interface{}, error) {
				return cfg.Secret, nil
			}, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(err)
			}

			ctx := context.WithValue(c.Request().Context(), SubjectKey, claims.Subject)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// Issue signs a staff token for subject valid for ttl.
func Issue(cfg Config, subject, role string, ttl time.Duration, now time.Time) (string, error) {
	if !cfg.Enabled() {
		return "", ErrNoSecret
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
}

func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(SubjectKey).(string)
	return sub
}
