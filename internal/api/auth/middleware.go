package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/scholarfeed/internal/store"
	"github.com/scholarfeed/pkg/models"
)

const userContextKey = "auth.user"

// CurrentUser returns the authenticated user set by the middleware, or nil.
func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get(userContextKey).(*models.User); ok {
		return u
	}
	return nil
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// Middleware authenticates requests against the token service.
type Middleware struct {
	tokens *TokenService
	users  *store.Store
}

// NewMiddleware creates the auth middleware.
func NewMiddleware(tokens *TokenService, users *store.Store) *Middleware {
	return &Middleware{tokens: tokens, users: users}
}

func (m *Middleware) resolve(c echo.Context) (*models.User, error) {
	token := bearerToken(c)
	if token == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	userID, err := m.tokens.ValidateToken(c.Request().Context(), token)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}
	user, err := m.users.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}
	return user, nil
}

// Require rejects unauthenticated requests.
func (m *Middleware) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := m.resolve(c)
		if err != nil {
			return err
		}
		c.Set(userContextKey, user)
		return next(c)
	}
}

// Optional attaches the user when a valid token is present and lets the
// request through either way. Read endpoints use it to personalize
// liked-by-me style fields.
func (m *Middleware) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if bearerToken(c) != "" {
			if user, err := m.resolve(c); err == nil {
				c.Set(userContextKey, user)
			}
		}
		return next(c)
	}
}
