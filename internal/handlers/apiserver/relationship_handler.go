package apiserver

import (
	"net/http"

	"movie-social/internal/logger"
	"movie-social/internal/middleware"
	"movie-social/internal/services"
)

// RelationshipHandler handles friend requests and the friend list.
type RelationshipHandler struct {
	relService services.RelationshipService
	log        *logger.Logger
}

// NewRelationshipHandler creates a new RelationshipHandler.
func NewRelationshipHandler(rs services.RelationshipService, log *logger.Logger) *RelationshipHandler {
	return &RelationshipHandler{relService: rs, log: log}
}

// SendFriendRequestPayload defines the expected JSON body for sending a friend request.
type SendFriendRequestPayload struct {
	RecipientID uint `json:"recipientId" validate:"required,gt=0"`
}

// StatusResponse 两个用户之间的关系状态。
type StatusResponse struct {
	UserID uint                       `json:"userId"`
	State  services.RelationshipState `json:"state"`
}

// SendFriendRequestHandler handles POST /api/v1/friend-requests
func (h *RelationshipHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}

	var payload SendFriendRequestPayload
	if err := decodeAndValidate(r, &payload); err != nil {
		writeJSONError(w, "缺少或无效的接收者ID (recipientId)", http.StatusBadRequest)
		return
	}

	rel, err := h.relService.SendRequest(r.Context(), requesterID, payload.RecipientID)
	if err != nil {
		writeServiceError(w, h.log, err, "发送好友请求失败")
		return
	}
	writeJSONResponse(w, http.StatusCreated, rel)
}

// AcceptFriendRequestHandler handles POST /api/v1/friend-requests/{userID}/accept
func (h *RelationshipHandler) AcceptFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.withOther(w, r, func(userID, otherID uint) {
		if err := h.relService.AcceptRequest(r.Context(), userID, otherID); err != nil {
			writeServiceError(w, h.log, err, "接受好友请求失败")
			return
		}
		writeJSONResponse(w, http.StatusOK, MessageResponse{Message: "friend request accepted"})
	})
}

// RejectFriendRequestHandler handles POST /api/v1/friend-requests/{userID}/reject
func (h *RelationshipHandler) RejectFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.withOther(w, r, func(userID, otherID uint) {
		if err := h.relService.RejectRequest(r.Context(), userID, otherID); err != nil {
			writeServiceError(w, h.log, err, "拒绝好友请求失败")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// CancelFriendRequestHandler handles DELETE /api/v1/friend-requests/{userID}
func (h *RelationshipHandler) CancelFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.withOther(w, r, func(userID, otherID uint) {
		if err := h.relService.CancelRequest(r.Context(), userID, otherID); err != nil {
			writeServiceError(w, h.log, err, "取消好友请求失败")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// RemoveFriendHandler handles DELETE /api/v1/friends/{userID}
func (h *RelationshipHandler) RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	h.withOther(w, r, func(userID, otherID uint) {
		if err := h.relService.RemoveFriend(r.Context(), userID, otherID); err != nil {
			writeServiceError(w, h.log, err, "删除好友失败")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// ListFriendsHandler handles GET /api/v1/friends
func (h *RelationshipHandler) ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}
	list, err := h.relService.ListRelationships(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err, "获取好友列表失败")
		return
	}
	writeJSONResponse(w, http.StatusOK, list)
}

// StatusHandler handles GET /api/v1/friends/{userID}/status
func (h *RelationshipHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	h.withOther(w, r, func(userID, otherID uint) {
		state, err := h.relService.Status(r.Context(), userID, otherID)
		if err != nil {
			writeServiceError(w, h.log, err, "获取关系状态失败")
			return
		}
		writeJSONResponse(w, http.StatusOK, StatusResponse{UserID: otherID, State: state})
	})
}

func (h *RelationshipHandler) withOther(w http.ResponseWriter, r *http.Request, fn func(userID, otherID uint)) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}
	otherID, ok := pathID(r, "userID")
	if !ok {
		writeJSONError(w, "无效的用户ID格式", http.StatusBadRequest)
		return
	}
	fn(userID, otherID)
}
