package apiserver

import (
	"net/http"

	"movie-social/internal/logger"
	"movie-social/internal/middleware"
	"movie-social/internal/services"
)

// CatalogHandler receives episode publications from the catalog side.
type CatalogHandler struct {
	catalogService services.CatalogService
	log            *logger.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cs services.CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalogService: cs, log: log}
}

// PublishEpisodePayload is the body of an episode publication.
type PublishEpisodePayload struct {
	Number int    `json:"number" validate:"required,gte=1"`
	Name   string `json:"name" validate:"max=255"`
}

// PublishEpisodeHandler handles POST /api/v1/movies/{movieID}/episodes
func (h *CatalogHandler) PublishEpisodeHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}
	movieID, ok := pathID(r, "movieID")
	if !ok {
		writeJSONError(w, "无效的影片ID格式", http.StatusBadRequest)
		return
	}

	var payload PublishEpisodePayload
	if err := decodeAndValidate(r, &payload); err != nil {
		writeJSONError(w, "集号 (number) 必须为正整数", http.StatusBadRequest)
		return
	}

	ep, err := h.catalogService.PublishEpisode(r.Context(), movieID, payload.Number, payload.Name)
	if err != nil {
		writeServiceError(w, h.log, err, "发布剧集失败")
		return
	}
	writeJSONResponse(w, http.StatusCreated, ep)
}
