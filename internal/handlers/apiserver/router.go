package apiserver

import (
	"net/http"

	"github.com/gorilla/mux"

	"movie-social/internal/auth"
	"movie-social/internal/middleware"
)

// Handlers groups the API handlers mounted under /api/v1.
type Handlers struct {
	Relationships *RelationshipHandler
	Notifications *NotificationHandler
	Follows       *FollowHandler
	Catalog       *CatalogHandler
}

// RegisterRoutes mounts every route on r behind authMW. Publishing episodes
// additionally needs the catalog publisher role.
func RegisterRoutes(r *mux.Router, h Handlers, authMW mux.MiddlewareFunc) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(authMW)

	api.HandleFunc("/friend-requests", h.Relationships.SendFriendRequestHandler).Methods(http.MethodPost)
	api.HandleFunc("/friend-requests/{userID:[0-9]+}/accept", h.Relationships.AcceptFriendRequestHandler).Methods(http.MethodPost)
	api.HandleFunc("/friend-requests/{userID:[0-9]+}/reject", h.Relationships.RejectFriendRequestHandler).Methods(http.MethodPost)
	api.HandleFunc("/friend-requests/{userID:[0-9]+}", h.Relationships.CancelFriendRequestHandler).Methods(http.MethodDelete)
	api.HandleFunc("/friends", h.Relationships.ListFriendsHandler).Methods(http.MethodGet)
	api.HandleFunc("/friends/{userID:[0-9]+}", h.Relationships.RemoveFriendHandler).Methods(http.MethodDelete)
	api.HandleFunc("/friends/{userID:[0-9]+}/status", h.Relationships.StatusHandler).Methods(http.MethodGet)

	api.HandleFunc("/notifications", h.Notifications.ListNotificationsHandler).Methods(http.MethodGet)
	api.HandleFunc("/notifications/unread-count", h.Notifications.UnreadCountHandler).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", h.Notifications.MarkAllReadHandler).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{notificationID:[0-9]+}/read", h.Notifications.MarkReadHandler).Methods(http.MethodPost)

	api.HandleFunc("/movies/{movieID:[0-9]+}/follow", h.Follows.FollowMovieHandler).Methods(http.MethodPost, http.MethodDelete)
	api.HandleFunc("/episodes/{episodeID:[0-9]+}/favorite", h.Follows.FavoriteEpisodeHandler).Methods(http.MethodPost, http.MethodDelete)

	publishOnly := middleware.RequireRole(auth.RoleCatalogPublisher)
	api.Handle("/movies/{movieID:[0-9]+}/episodes", publishOnly(http.HandlerFunc(h.Catalog.PublishEpisodeHandler))).Methods(http.MethodPost)
}
