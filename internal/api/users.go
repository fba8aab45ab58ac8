package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/scholarfeed/internal/api/auth"
	"github.com/scholarfeed/internal/social"
	"github.com/scholarfeed/internal/store"
	"github.com/scholarfeed/pkg/models"
)

// UserHandlers serves profile, follow and user search endpoints.
type UserHandlers struct {
	store   *store.Store
	users   *social.UserService
	follows *social.FollowService
}

// NewUserHandlers creates the user handlers.
func NewUserHandlers(st *store.Store, users *social.UserService, follows *social.FollowService) *UserHandlers {
	return &UserHandlers{store: st, users: users, follows: follows}
}

// Profile serves GET /api/users/:username.
func (h *UserHandlers) Profile(c echo.Context) error {
	profile, err := h.store.Profile(c.Request().Context(), c.Param("username"), viewerID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateProfile serves PUT /api/profile.
func (h *UserHandlers) UpdateProfile(c echo.Context) error {
	var in social.ProfileInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	user, err := h.users.UpdateProfile(c.Request().Context(), viewerID(c), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// ToggleFollow serves POST /api/users/:id/follow.
func (h *UserHandlers) ToggleFollow(c echo.Context) error {
	following, err := h.follows.Toggle(c.Request().Context(), auth.CurrentUser(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"following": following})
}

// FollowStatus serves GET /api/users/:id/status.
func (h *UserHandlers) FollowStatus(c echo.Context) error {
	following, err := h.follows.IsFollowing(c.Request().Context(), viewerID(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"following": following})
}

// Followers serves GET /api/users/:id/followers.
func (h *UserHandlers) Followers(c echo.Context) error {
	list, err := h.follows.Followers(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// Following serves GET /api/users/:id/following.
func (h *UserHandlers) Following(c echo.Context) error {
	list, err := h.follows.Following(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// Search serves GET /api/search/users.
func (h *UserHandlers) Search(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusOK, []models.User{})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	users, err := h.store.SearchUsers(c.Request().Context(), query, limit)
	if err != nil {
		return httpError(err)
	}
	if users == nil {
		users = []models.User{}
	}
	return c.JSON(http.StatusOK, users)
}
