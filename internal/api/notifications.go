package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/scholarfeed/internal/social"
)

// NotificationHandlers serves the /api/notifications endpoints.
type NotificationHandlers struct {
	notifications *social.NotificationService
}

// NewNotificationHandlers creates the notification handlers.
func NewNotificationHandlers(n *social.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{notifications: n}
}

// List serves GET /api/notifications.
func (h *NotificationHandlers) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	list, unread, err := h.notifications.List(c.Request().Context(), viewerID(c), limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"notifications": list,
		"unread_count":  unread,
	})
}

// MarkRead serves PATCH /api/notifications/:id/read.
func (h *NotificationHandlers) MarkRead(c echo.Context) error {
	if err := h.notifications.MarkRead(c.Request().Context(), c.Param("id"), viewerID(c)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "read"})
}

// MarkAllRead serves PATCH /api/notifications/read-all.
func (h *NotificationHandlers) MarkAllRead(c echo.Context) error {
	if err := h.notifications.MarkAllRead(c.Request().Context(), viewerID(c)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "read"})
}

// Delete serves DELETE /api/notifications/:id.
func (h *NotificationHandlers) Delete(c echo.Context) error {
	if err := h.notifications.Delete(c.Request().Context(), c.Param("id"), viewerID(c)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// DeleteAll serves DELETE /api/notifications.
func (h *NotificationHandlers) DeleteAll(c echo.Context) error {
	if err := h.notifications.DeleteAll(c.Request().Context(), viewerID(c)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}
