package httpd

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}

	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	response, err := h.notificationService.List(r.Context(), ac, unreadOnly, page, limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(r.Context(), ac)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]interface{}{"unread": count})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), ac, chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]interface{}{"message": "Notification marked as read"})
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}

	n, err := h.notificationService.MarkAllRead(r.Context(), ac)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]interface{}{"updated": n})
}
