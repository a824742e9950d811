package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Session ties the unread cache and the toggles to one signed-in user.
type Session struct {
	api     *API
	unread  *UnreadList
	toggles *Toggles
	log     *zap.Logger

	// OnPush, if set, runs after each push has been applied to the cache.
	OnPush func(ev PushEvent)
}

// NewSession creates a session. unread and log may be nil.
func NewSession(api *API, unread *UnreadList, log *zap.Logger) *Session {
	if unread == nil {
		unread = NewUnreadList(DefaultUnreadListSize)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{api: api, unread: unread, toggles: NewToggles(), log: log}
}

func (s *Session) Unread() *UnreadList { return s.unread }
func (s *Session) Toggles() *Toggles   { return s.toggles }

// Refresh reloads the first page of unread notifications. On error the
// cached list is kept as is.
func (s *Session) Refresh(ctx context.Context, limit int) error {
	page, err := s.api.ListNotifications(ctx, 1, limit, true)
	if err != nil {
		s.log.Warn("refresh notifications failed, keeping cached list", zap.Error(err))
		return err
	}
	s.unread.Replace(page.Items, page.UnreadCount)
	return nil
}

// LoadMore merges an older page into the cache.
func (s *Session) LoadMore(ctx context.Context, page, limit int) (bool, error) {
	p, err := s.api.ListNotifications(ctx, page, limit, true)
	if err != nil {
		return false, err
	}
	s.unread.Merge(p.Items)
	s.unread.SetCount(p.UnreadCount)
	return p.Pagination.HasMore, nil
}

// MarkRead marks one notification read and adopts the server recount.
func (s *Session) MarkRead(ctx context.Context, notificationID uint) error {
	count, err := s.api.MarkRead(ctx, notificationID)
	if err != nil {
		return err
	}
	s.unread.MarkRead(notificationID, count)
	return nil
}

// MarkAllRead zeroes the counter before the request returns.
func (s *Session) MarkAllRead(ctx context.Context) error {
	s.unread.MarkAllRead()
	_, err := s.api.MarkAllRead(ctx)
	return err
}

// ToggleFavorite flips the favorite state of an episode optimistically.
func (s *Session) ToggleFavorite(ctx context.Context, episodeID uint) (ToggleState, error) {
	return s.toggles.Toggle(ctx, FavoriteKey(episodeID), func(ctx context.Context, target bool) (*Confirmed, error) {
		res, err := s.api.SetFavorite(ctx, episodeID, target)
		if err != nil {
			return nil, err
		}
		return &Confirmed{Value: res.Active, Count: res.Count, HasCount: true}, nil
	})
}

// ToggleFollow flips the follow state of a movie optimistically.
func (s *Session) ToggleFollow(ctx context.Context, movieID uint) (ToggleState, error) {
	return s.toggles.Toggle(ctx, FollowKey(movieID), func(ctx context.Context, target bool) (*Confirmed, error) {
		res, err := s.api.SetFollow(ctx, movieID, target)
		if err != nil {
			return nil, err
		}
		return &Confirmed{Value: res.Active, Count: res.Count, HasCount: true}, nil
	})
}

// ToggleFriendRequest sends or cancels a friend request to userID.
func (s *Session) ToggleFriendRequest(ctx context.Context, userID uint) (ToggleState, error) {
	return s.toggles.Toggle(ctx, FriendRequestKey(userID), func(ctx context.Context, target bool) (*Confirmed, error) {
		if target {
			return nil, s.api.SendFriendRequest(ctx, userID)
		}
		return nil, s.api.CancelFriendRequest(ctx, userID)
	})
}

// Subscribe connects to the push server and applies pushes until ctx is done
// or the connection drops. A clean shutdown through ctx returns nil.
func (s *Session) Subscribe(ctx context.Context, wsURL string) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.api.Token())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var ev PushEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				s.log.Info("push connection closed", zap.Int("code", closeErr.Code))
			}
			return err
		}
		s.unread.Ingest(ev)
		if s.OnPush != nil {
			s.OnPush(ev)
		}
	}
}
