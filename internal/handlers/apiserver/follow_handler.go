package apiserver

import (
	"net/http"

	"movie-social/internal/logger"
	"movie-social/internal/middleware"
	"movie-social/internal/services"
)

// FollowHandler serves the follow and favorite toggles. POST turns a toggle
// on, DELETE turns it off; both return the confirmed state.
type FollowHandler struct {
	followService services.FollowService
	log           *logger.Logger
}

// NewFollowHandler creates a new FollowHandler.
func NewFollowHandler(fs services.FollowService, log *logger.Logger) *FollowHandler {
	return &FollowHandler{followService: fs, log: log}
}

// FollowMovieHandler handles POST|DELETE /api/v1/movies/{movieID}/follow
func (h *FollowHandler) FollowMovieHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}
	movieID, ok := pathID(r, "movieID")
	if !ok {
		writeJSONError(w, "无效的影片ID格式", http.StatusBadRequest)
		return
	}

	var (
		res *services.ToggleResult
		err error
	)
	if r.Method == http.MethodDelete {
		res, err = h.followService.Unfollow(r.Context(), userID, movieID)
	} else {
		res, err = h.followService.Follow(r.Context(), userID, movieID)
	}
	if err != nil {
		writeServiceError(w, h.log, err, "更新关注状态失败")
		return
	}
	writeJSONResponse(w, http.StatusOK, res)
}

// FavoriteEpisodeHandler handles POST|DELETE /api/v1/episodes/{episodeID}/favorite
func (h *FollowHandler) FavoriteEpisodeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}
	episodeID, ok := pathID(r, "episodeID")
	if !ok {
		writeJSONError(w, "无效的剧集ID格式", http.StatusBadRequest)
		return
	}

	res, err := h.followService.SetFavorite(r.Context(), userID, episodeID, r.Method != http.MethodDelete)
	if err != nil {
		writeServiceError(w, h.log, err, "更新收藏状态失败")
		return
	}
	writeJSONResponse(w, http.StatusOK, res)
}
