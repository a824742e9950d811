package pushserver

import (
	"net/http"

	"go.uber.org/zap"

	"movie-social/internal/auth"
	"movie-social/internal/config"
	"movie-social/internal/logger"
	"movie-social/internal/middleware"
	ws "movie-social/internal/websocket"
)

// WebSocketHandler 负责处理 WebSocket 连接请求。
type WebSocketHandler struct {
	hub       ws.ConnectionRegistry
	blacklist auth.TokenBlacklist
	cfg       config.Config
	log       *logger.Logger
}

// NewWebSocketHandler 创建一个新的 WebSocketHandler 实例。
func NewWebSocketHandler(hub ws.ConnectionRegistry, blacklist auth.TokenBlacklist, cfg config.Config, log *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, blacklist: blacklist, cfg: cfg, log: log}
}

// ServeWS authenticates the caller and joins the connection to the caller's
// own room. Browsers cannot set headers on a websocket handshake, so the token
// may also come from the "token" query parameter. Anonymous sessions are refused.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		http.Error(w, "缺少认证令牌", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateToken(r.Context(), token, h.cfg.Auth.JWTSecretKey, h.blacklist)
	if err != nil {
		h.log.Info("websocket handshake rejected", zap.Error(err))
		http.Error(w, "令牌无效", http.StatusUnauthorized)
		return
	}

	ws.ServeWsPerConnection(h.hub, claims.UserID, w, r, h.cfg.WebSocket, h.log)
}
