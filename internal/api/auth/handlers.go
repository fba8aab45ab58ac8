package auth

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/scholarfeed/internal/store"
	"github.com/scholarfeed/pkg/models"
)

var (
	usernameRe = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Handlers serves the /api/auth endpoints.
type Handlers struct {
	store  *store.Store
	tokens *TokenService
}

// NewHandlers creates the auth handlers.
func NewHandlers(st *store.Store, tokens *TokenService) *Handlers {
	return &Handlers{store: st, tokens: tokens}
}

type registerRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Field    string `json:"field"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register creates an account and signs the new user in.
func (h *Handlers) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	switch {
	case !usernameRe.MatchString(req.Username):
		return echo.NewHTTPError(http.StatusBadRequest, "Username must be 3-30 lowercase letters, digits or underscores")
	case !emailRe.MatchString(req.Email):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid email address")
	case len(req.Password) < 8:
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be at least 8 characters")
	case req.Name == "":
		return echo.NewHTTPError(http.StatusBadRequest, "Name is required")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")
		return echo.NewHTTPError(http.StatusInternalServerError, "Registration failed")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Field:        req.Field,
	}
	if user.Field == "" {
		user.Field = "Other"
	}
	if err := h.store.CreateUser(c.Request().Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return echo.NewHTTPError(http.StatusConflict, "Username or email already taken")
		}
		log.Error().Err(err).Msg("failed to create user")
		return echo.NewHTTPError(http.StatusInternalServerError, "Registration failed")
	}

	return h.startSession(c, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a session token.
func (h *Handlers) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	user, err := h.store.GetUserByEmail(c.Request().Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		log.Error().Err(err).Msg("failed to load user for login")
		return echo.NewHTTPError(http.StatusInternalServerError, "Login failed")
	}

	ok, err := VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	return h.startSession(c, http.StatusOK, user)
}

func (h *Handlers) startSession(c echo.Context, status int, user *models.User) error {
	token, expiresAt, err := h.tokens.CreateToken(c.Request().Context(), user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("failed to issue token")
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not start session")
	}
	return c.JSON(status, sessionResponse{Token: token, ExpiresAt: expiresAt, User: user})
}

// Logout revokes the current session token.
func (h *Handlers) Logout(c echo.Context) error {
	if token := bearerToken(c); token != "" {
		if err := h.tokens.RevokeToken(c.Request().Context(), token); err != nil {
			log.Warn().Err(err).Msg("failed to revoke token")
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the authenticated user.
func (h *Handlers) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, CurrentUser(c))
}

// CheckUsername reports whether a username is still free.
func (h *Handlers) CheckUsername(c echo.Context) error {
	username := strings.ToLower(strings.TrimSpace(c.Param("username")))
	if !usernameRe.MatchString(username) {
		return c.JSON(http.StatusOK, map[string]any{"available": false, "reason": "invalid"})
	}
	exists, err := h.store.UsernameExists(c.Request().Context(), username)
	if err != nil {
		log.Error().Err(err).Msg("failed to check username")
		return echo.NewHTTPError(http.StatusInternalServerError, "Lookup failed")
	}
	return c.JSON(http.StatusOK, map[string]any{"available": !exists})
}
