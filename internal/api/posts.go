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

// PostHandlers serves the /api/posts endpoints.
type PostHandlers struct {
	posts *social.PostService
}

// NewPostHandlers creates the post handlers.
func NewPostHandlers(posts *social.PostService) *PostHandlers {
	return &PostHandlers{posts: posts}
}

func viewerID(c echo.Context) string {
	if u := auth.CurrentUser(c); u != nil {
		return u.ID
	}
	return ""
}

// List serves GET /api/posts with feed, search, category, sort and paging
// parameters.
func (h *PostHandlers) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	q := store.PostQuery{
		ViewerID: viewerID(c),
		Feed:     c.QueryParam("feed"),
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		SortBy:   c.QueryParam("sort"),
		Page:     page,
		Limit:    limit,
	}
	if q.ViewerID == "" {
		switch q.Feed {
		case "following", "my-posts", "saved":
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}
	}

	posts, total, err := h.posts.List(c.Request().Context(), q)
	if err != nil {
		return httpError(err)
	}
	h.posts.RecordViews(c.Request().Context(), posts)
	if posts == nil {
		posts = []models.Post{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"posts": posts,
		"total": total,
		"page":  q.Page,
	})
}

// ByAuthor serves GET /api/users/:username/posts.
func (h *PostHandlers) ByAuthor(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	q := store.PostQuery{
		ViewerID: viewerID(c),
		Author:   c.Param("username"),
		SortBy:   "new",
		Page:     page,
		Limit:    limit,
	}
	posts, total, err := h.posts.List(c.Request().Context(), q)
	if err != nil {
		return httpError(err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"posts": posts,
		"total": total,
		"page":  q.Page,
	})
}

// Search serves GET /api/search/posts.
func (h *PostHandlers) Search(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusOK, map[string]any{"posts": []models.Post{}, "total": 0})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	posts, total, err := h.posts.List(c.Request().Context(), store.PostQuery{
		ViewerID: viewerID(c),
		Search:   query,
		SortBy:   "new",
		Limit:    limit,
	})
	if err != nil {
		return httpError(err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return c.JSON(http.StatusOK, map[string]any{"posts": posts, "total": total})
}

// Get serves GET /api/posts/:id.
func (h *PostHandlers) Get(c echo.Context) error {
	post, err := h.posts.Get(c.Request().Context(), c.Param("id"), viewerID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// Create serves POST /api/posts.
func (h *PostHandlers) Create(c echo.Context) error {
	var in social.PostInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	post, err := h.posts.Create(c.Request().Context(), auth.CurrentUser(c), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, post)
}

// Update serves PUT /api/posts/:id.
func (h *PostHandlers) Update(c echo.Context) error {
	var in social.PostInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	post, err := h.posts.Update(c.Request().Context(), viewerID(c), c.Param("id"), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// Delete serves DELETE /api/posts/:id.
func (h *PostHandlers) Delete(c echo.Context) error {
	if err := h.posts.Delete(c.Request().Context(), viewerID(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// ToggleLike serves POST /api/posts/:id/like.
func (h *PostHandlers) ToggleLike(c echo.Context) error {
	liked, count, err := h.posts.ToggleLike(c.Request().Context(), auth.CurrentUser(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"liked": liked, "likeCount": count})
}

// ToggleSave serves POST /api/posts/:id/save.
func (h *PostHandlers) ToggleSave(c echo.Context) error {
	saved, count, err := h.posts.ToggleSave(c.Request().Context(), viewerID(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"saved": saved, "saveCount": count})
}

// Repost serves POST /api/posts/:id/repost.
func (h *PostHandlers) Repost(c echo.Context) error {
	var in struct {
		Comment string `json:"comment"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	post, err := h.posts.Repost(c.Request().Context(), auth.CurrentUser(c), c.Param("id"), in.Comment)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, post)
}

// Insights serves GET /api/insights for the authenticated user.
func (h *PostHandlers) Insights(c echo.Context) error {
	stats, err := h.posts.Insights(c.Request().Context(), viewerID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
