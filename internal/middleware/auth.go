package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ErrInvalidToken is returned by authenticators for tokens that cannot be trusted.
var ErrInvalidToken = errors.New("invalid or expired token")

const userIDKey = "userID"

// Authenticator resolves a bearer token to the id of the acting user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uint, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// acting user's id in the echo context.
func RequireAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
			}

			// Expecting "Bearer <token>"
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
			}

			userID, err := a.Authenticate(c.Request().Context(), parts[1])
			switch {
			case errors.Is(err, ErrInvalidToken):
				return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidToken.Error()).SetInternal(err)
			case err != nil:
				return err
			case userID == 0:
				return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidToken.Error())
			}

			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// UserIDFrom returns the id stored by RequireAuth, or 0 for anonymous requests.
func UserIDFrom(c echo.Context) uint {
	id, _ := c.Get(userIDKey).(uint)
	return id
}
