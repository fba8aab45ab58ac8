package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scholarfeed/internal/api/auth"
	"github.com/scholarfeed/internal/social"
)

// CommentHandlers serves the comment and reply endpoints.
type CommentHandlers struct {
	comments *social.CommentService
}

// NewCommentHandlers creates the comment handlers.
func NewCommentHandlers(comments *social.CommentService) *CommentHandlers {
	return &CommentHandlers{comments: comments}
}

type contentRequest struct {
	Content string `json:"content"`
}

// AddComment serves POST /api/posts/:id/comments.
func (h *CommentHandlers) AddComment(c echo.Context) error {
	var in contentRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	comment, err := h.comments.AddComment(c.Request().Context(), auth.CurrentUser(c), c.Param("id"), in.Content)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, comment)
}

// List serves GET /api/posts/:id/comments.
func (h *CommentHandlers) List(c echo.Context) error {
	comments, err := h.comments.List(c.Request().Context(), c.Param("id"), viewerID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, comments)
}

// UpdateComment serves PUT /api/comments/:id.
func (h *CommentHandlers) UpdateComment(c echo.Context) error {
	var in contentRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	comment, err := h.comments.UpdateComment(c.Request().Context(), viewerID(c), c.Param("id"), in.Content)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, comment)
}

// UpdateReply serves PUT /api/replies/:id.
func (h *CommentHandlers) UpdateReply(c echo.Context) error {
	var in contentRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	reply, err := h.comments.UpdateReply(c.Request().Context(), viewerID(c), c.Param("id"), in.Content)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, reply)
}

// DeleteComment serves DELETE /api/comments/:id.
func (h *CommentHandlers) DeleteComment(c echo.Context) error {
	if err := h.comments.DeleteComment(c.Request().Context(), viewerID(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// ToggleCommentLike serves POST /api/comments/:id/like.
func (h *CommentHandlers) ToggleCommentLike(c echo.Context) error {
	liked, count, err := h.comments.ToggleCommentLike(c.Request().Context(), auth.CurrentUser(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"liked": liked, "likeCount": count})
}

// AddReply serves POST /api/comments/:id/replies.
func (h *CommentHandlers) AddReply(c echo.Context) error {
	var in contentRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	reply, err := h.comments.AddReply(c.Request().Context(), auth.CurrentUser(c), c.Param("id"), in.Content)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, reply)
}

// DeleteReply serves DELETE /api/replies/:id.
func (h *CommentHandlers) DeleteReply(c echo.Context) error {
	if err := h.comments.DeleteReply(c.Request().Context(), viewerID(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// ToggleReplyLike serves POST /api/replies/:id/like.
func (h *CommentHandlers) ToggleReplyLike(c echo.Context) error {
	liked, count, err := h.comments.ToggleReplyLike(c.Request().Context(), auth.CurrentUser(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"liked": liked, "likeCount": count})
}
