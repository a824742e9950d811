package apiserver

import (
	"net/http"
	"strconv"

	"movie-social/internal/logger"
	"movie-social/internal/middleware"
	"movie-social/internal/services"
)

// NotificationHandler serves the notification list and read-state changes.
type NotificationHandler struct {
	notifService services.NotificationService
	log          *logger.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(ns services.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{notifService: ns, log: log}
}

// UnreadCountResponse carries a freshly counted unread total.
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unreadCount"`
}

// ListNotificationsHandler handles GET /api/v1/notifications?page=&limit=&unread=
func (h *NotificationHandler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	page, err := queryInt(q.Get("page"), 1)
	if err != nil {
		writeJSONError(w, "无效的 page 参数", http.StatusBadRequest)
		return
	}
	limit, err := queryInt(q.Get("limit"), 0)
	if err != nil {
		writeJSONError(w, "无效的 limit 参数", http.StatusBadRequest)
		return
	}
	unreadOnly, _ := strconv.ParseBool(q.Get("unread"))

	result, err := h.notifService.ListNotifications(r.Context(), userID, page, limit, unreadOnly)
	if err != nil {
		writeServiceError(w, h.log, err, "获取通知失败")
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}

// UnreadCountHandler handles GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}
	count, err := h.notifService.UnreadCount(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err, "获取未读数失败")
		return
	}
	writeJSONResponse(w, http.StatusOK, UnreadCountResponse{UnreadCount: count})
}

// MarkReadHandler handles POST /api/v1/notifications/{notificationID}/read
func (h *NotificationHandler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}
	notificationID, ok := pathID(r, "notificationID")
	if !ok {
		writeJSONError(w, "无效的通知ID格式", http.StatusBadRequest)
		return
	}

	count, err := h.notifService.MarkRead(r.Context(), userID, notificationID)
	if err != nil {
		writeServiceError(w, h.log, err, "标记已读失败")
		return
	}
	writeJSONResponse(w, http.StatusOK, UnreadCountResponse{UnreadCount: count})
}

// MarkAllReadHandler handles POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}
	count, err := h.notifService.MarkAllRead(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err, "全部标记已读失败")
		return
	}
	writeJSONResponse(w, http.StatusOK, UnreadCountResponse{UnreadCount: count})
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
