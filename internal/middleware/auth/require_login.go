package auth

import (
	"github.com/labstack/echo/v4"
)

func RequireUser(jwtSecret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseClaims(c, jwtSecret)
			if err != nil {
				return err
			}
			setUserContext(c, claims)
			return next(c)
		}
	}
}
