package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func RequireAdmin(jwtSecret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseClaims(c, jwtSecret)
			if err != nil {
				return err
			}
			if role, _ := claims["role"].(string); role != "admin" {
				return echo.NewHTTPError(http.StatusForbidden, "admin access denied")
			}
			setUserContext(c, claims)
			return next(c)
		}
	}
}
