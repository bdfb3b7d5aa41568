// Package csrf implements double-submit-cookie CSRF protection for the
// cookie-authenticated part of the API. Requests that authenticate with an
// Authorization header are exempt: a cross-site page cannot set one.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	cookieName = "XSRF-TOKEN"
	headerName = "X-CSRF-Token"
	tokenBytes = 32
	cookieAge  = 24 * time.Hour
)

type Config struct {
	// Secure marks the token cookie Secure; enable behind TLS.
	Secure bool
	// SkipPaths lists exact request paths exempt from the check, typically
	// the endpoints that establish a session in the first place.
	SkipPaths []string
}

func Middleware(cfg Config) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if _, ok := skip[req.URL.Path]; ok {
				return next(c)
			}

			token := cookieToken(req)
			if token == "" {
				fresh, err := newToken()
				if err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to create CSRF token")
				}
				token = fresh
			}
			setTokenCookie(c, cfg, token)

			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				c.Response().Header().Set(headerName, token)
				return next(c)
			}

			if strings.HasPrefix(req.Header.Get(echo.HeaderAuthorization), "Bearer ") {
				return next(c)
			}

			provided := req.Header.Get(headerName)
			if subtle.ConstantTimeCompare([]byte(token), []byte(provided)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")
			}

			return next(c)
		}
	}
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func cookieToken(req *http.Request) string {
	ck, err := req.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

func setTokenCookie(c echo.Context, cfg Config, token string) {
	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		Secure:   cfg.Secure,
		HttpOnly: false,
		MaxAge:   int(cookieAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}
