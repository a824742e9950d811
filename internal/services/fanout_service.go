package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"movie-social/internal/events"
	"movie-social/internal/imtypes"
	"movie-social/internal/logger"
	"movie-social/internal/metrics"
	"movie-social/internal/models"
	"movie-social/internal/storage"
)

const (
	linkFriendRequests = "/ban-be/loi-moi"
	linkFriends        = "/ban-be"
)

// FanoutService turns one domain event into notification rows and pushes.
// Rows are written first; only persisted rows are pushed.
type FanoutService interface {
	HandleEpisodePublished(ctx context.Context, ev events.EpisodePublished) error
	HandleFriendRequestSent(ctx context.Context, ev events.FriendRequestSent) error
	HandleFriendRequestAccepted(ctx context.Context, ev events.FriendRequestAccepted) error
	// Register binds the handlers above to their event types.
	Register(router *events.Router)
}

type fanoutService struct {
	notifRepo  storage.NotificationRepository
	followRepo storage.FollowRepository
	relRepo    storage.RelationshipRepository
	userRepo   storage.UserRepository
	publisher  imtypes.PushPublisher
	log        *logger.Logger
}

// NewFanoutService creates a new FanoutService instance.
func NewFanoutService(
	notifRepo storage.NotificationRepository,
	followRepo storage.FollowRepository,
	relRepo storage.RelationshipRepository,
	userRepo storage.UserRepository,
	publisher imtypes.PushPublisher,
	log *logger.Logger,
) FanoutService {
	return &fanoutService{
		notifRepo:  notifRepo,
		followRepo: followRepo,
		relRepo:    relRepo,
		userRepo:   userRepo,
		publisher:  publisher,
		log:        log,
	}
}

func (s *fanoutService) Register(router *events.Router) {
	events.On(router, events.TypeEpisodePublished, s.HandleEpisodePublished)
	events.On(router, events.TypeFriendRequestSent, s.HandleFriendRequestSent)
	events.On(router, events.TypeFriendRequestAccepted, s.HandleFriendRequestAccepted)
}

// HandleEpisodePublished notifies every follower of the movie. Followers that
// still hold an unread notification for the same episode are skipped, so a
// redelivered event does not notify twice.
func (s *fanoutService) HandleEpisodePublished(ctx context.Context, ev events.EpisodePublished) error {
	log := s.log.With(zap.String("event_type", string(ev.EventType())), zap.Uint("movie_id", ev.MovieID), zap.Int("episode", ev.EpisodeNumber))

	audience, err := s.followRepo.MovieFollowerIDs(ctx, ev.MovieID)
	if err != nil {
		return s.abort(log, "audience", err)
	}
	if len(audience) == 0 {
		log.Debug("no followers, nothing to fan out")
		return nil
	}

	link := models.EpisodeLink(ev.Slug, ev.EpisodeNumber)
	already, err := s.notifRepo.UnreadRecipientsWithLink(ctx, models.NotificationNewEpisode, link, audience)
	if err != nil {
		return s.abort(log, "audience", err)
	}
	skip := make(map[uint]struct{}, len(already))
	for _, id := range already {
		skip[id] = struct{}{}
	}

	message := fmt.Sprintf("%s vừa có tập mới: Tập %d.", ev.Title, ev.EpisodeNumber)
	batch := make([]*models.Notification, 0, len(audience))
	for _, uid := range audience {
		if _, dup := skip[uid]; dup {
			continue
		}
		batch = append(batch, &models.Notification{
			RecipientID: uid,
			Kind:        models.NotificationNewEpisode,
			Message:     message,
			Link:        link,
		})
	}
	if len(batch) == 0 {
		log.Info("all followers already notified", zap.Int("audience", len(audience)))
		return nil
	}

	if err := s.notifRepo.CreateBatch(ctx, batch); err != nil {
		return s.abort(log, "persist", err)
	}
	metrics.FanoutNotifications.WithLabelValues(string(models.NotificationNewEpisode)).Add(float64(len(batch)))
	log.Info("new-episode notifications created", zap.Int("audience", len(audience)), zap.Int("created", len(batch)))

	s.deliver(ctx, batch, imtypes.EventNewNotification)
	return nil
}

// HandleFriendRequestSent notifies the recipient, unless the request was
// cancelled or answered before the event got here.
func (s *fanoutService) HandleFriendRequestSent(ctx context.Context, ev events.FriendRequestSent) error {
	log := s.log.With(zap.String("event_type", string(ev.EventType())), zap.Uint("recipient_id", ev.RecipientID))

	rel, err := s.relRepo.FindByPair(ctx, ev.RequesterID, ev.RecipientID)
	if err != nil {
		return s.abort(log, "audience", err)
	}
	if rel == nil || rel.Status != models.RelationshipPending || rel.RequesterID != ev.RequesterID {
		log.Info("friend request no longer pending, skipping")
		return nil
	}

	sender, err := s.sender(ctx, ev.RequesterID)
	if err != nil {
		return s.abort(log, "audience", err)
	}
	if sender == nil {
		return nil
	}

	return s.notifyOne(ctx, log, &models.Notification{
		RecipientID: ev.RecipientID,
		SenderID:    &ev.RequesterID,
		Kind:        models.NotificationFriendRequest,
		Message:     fmt.Sprintf("%s đã gửi cho bạn lời mời kết bạn.", sender.DisplayName()),
		Link:        linkFriendRequests,
	}, imtypes.EventNewNotification)
}

// HandleFriendRequestAccepted notifies the original requester.
func (s *fanoutService) HandleFriendRequestAccepted(ctx context.Context, ev events.FriendRequestAccepted) error {
	log := s.log.With(zap.String("event_type", string(ev.EventType())), zap.Uint("recipient_id", ev.RequesterID))

	rel, err := s.relRepo.FindByPair(ctx, ev.RequesterID, ev.AccepterID)
	if err != nil {
		return s.abort(log, "audience", err)
	}
	if rel == nil || rel.Status != models.RelationshipAccepted {
		log.Info("friendship no longer exists, skipping")
		return nil
	}

	accepter, err := s.sender(ctx, ev.AccepterID)
	if err != nil {
		return s.abort(log, "audience", err)
	}
	if accepter == nil {
		return nil
	}

	return s.notifyOne(ctx, log, &models.Notification{
		RecipientID: ev.RequesterID,
		SenderID:    &ev.AccepterID,
		Kind:        models.NotificationFriendRequestAccepted,
		Message:     fmt.Sprintf("%s đã chấp nhận lời mời kết bạn của bạn.", accepter.DisplayName()),
		Link:        linkFriends,
	}, imtypes.EventFriendRequestAccepted)
}

func (s *fanoutService) notifyOne(ctx context.Context, log *logger.Logger, n *models.Notification, evType imtypes.PushEventType) error {
	if err := s.notifRepo.CreateBatch(ctx, []*models.Notification{n}); err != nil {
		return s.abort(log, "persist", err)
	}
	metrics.FanoutNotifications.WithLabelValues(string(n.Kind)).Inc()
	log.Info("notification created", zap.Uint("notification_id", n.ID))

	s.deliver(ctx, []*models.Notification{n}, evType)
	return nil
}

// sender returns nil, nil when the user no longer exists.
func (s *fanoutService) sender(ctx context.Context, id uint) (*models.UserBasicInfo, error) {
	info, err := s.userRepo.GetBasicInfoByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn("notification sender not found, skipping", zap.Uint("user_id", id))
		return nil, nil
	}
	return info, err
}

// deliver pushes each persisted row with a freshly counted unread total.
// A failed count or publish only affects that recipient.
func (s *fanoutService) deliver(ctx context.Context, batch []*models.Notification, evType imtypes.PushEventType) {
	if s.publisher == nil {
		return
	}
	for _, n := range batch {
		count, err := s.notifRepo.CountUnread(ctx, n.RecipientID)
		if err != nil {
			metrics.FanoutFailures.WithLabelValues("count").Inc()
			s.log.Warn("count unread failed, push skipped", zap.Uint("recipient_id", n.RecipientID), zap.Error(err))
			continue
		}
		ev := imtypes.PushEvent{
			Type:         evType,
			RecipientID:  n.RecipientID,
			Notification: n,
			UnreadCount:  count,
		}
		if err := s.publisher.Publish(ctx, n.RecipientID, ev); err != nil {
			metrics.FanoutFailures.WithLabelValues("publish").Inc()
			s.log.Warn("push failed, notification stays in store", zap.Uint("recipient_id", n.RecipientID), zap.Error(err))
		}
	}
}

func (s *fanoutService) abort(log *logger.Logger, stage string, err error) error {
	metrics.FanoutFailures.WithLabelValues(stage).Inc()
	log.Error("fan-out aborted", zap.String("stage", stage), zap.Error(err))
	return storeErr("fan-out "+stage, err)
}
