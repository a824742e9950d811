package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"movie-social/internal/events"
	"movie-social/internal/logger"
	"movie-social/internal/models"
	"movie-social/internal/storage"
)

// RelationshipState is the pair state as seen by one viewer.
type RelationshipState string

const (
	StateNone     RelationshipState = "none"
	StateOutgoing RelationshipState = "outgoing"
	StateIncoming RelationshipState = "incoming"
	StateFriends  RelationshipState = "friends"
)

// RelationshipList 好友列表接口的返回值，三个集合互不相交。
type RelationshipList struct {
	Friends  []*models.RelationshipEntry `json:"friends"`
	Incoming []*models.RelationshipEntry `json:"incoming"`
	Outgoing []*models.RelationshipEntry `json:"outgoing"`
}

// RelationshipService implements the friend state machine:
// absent -> pending -> accepted, pending -> absent, accepted -> absent.
type RelationshipService interface {
	SendRequest(ctx context.Context, requesterID, recipientID uint) (*models.Relationship, error)
	AcceptRequest(ctx context.Context, accepterID, requesterID uint) error
	RejectRequest(ctx context.Context, recipientID, requesterID uint) error
	CancelRequest(ctx context.Context, requesterID, recipientID uint) error
	RemoveFriend(ctx context.Context, userID, friendID uint) error
	ListRelationships(ctx context.Context, userID uint) (*RelationshipList, error)
	Status(ctx context.Context, viewerID, otherID uint) (RelationshipState, error)
}

type relationshipService struct {
	db         *gorm.DB // 事务
	userRepo   storage.UserRepository
	relRepo    storage.RelationshipRepository
	dispatcher events.Dispatcher
	log        *logger.Logger
}

// NewRelationshipService creates a new RelationshipService instance.
func NewRelationshipService(
	db *gorm.DB,
	userRepo storage.UserRepository,
	relRepo storage.RelationshipRepository,
	dispatcher events.Dispatcher,
	log *logger.Logger,
) RelationshipService {
	return &relationshipService{
		db:         db,
		userRepo:   userRepo,
		relRepo:    relRepo,
		dispatcher: dispatcher,
		log:        log,
	}
}

// SendRequest creates the pending row. The existence check and the insert run
// in one transaction, and the unique pair index catches the race where two
// transactions both saw an empty pair.
func (s *relationshipService) SendRequest(ctx context.Context, requesterID, recipientID uint) (*models.Relationship, error) {
	if requesterID == recipientID {
		return nil, ErrSelfRequest
	}

	exists, err := s.userRepo.Exists(ctx, recipientID)
	if err != nil {
		return nil, storeErr("check recipient", err)
	}
	if !exists {
		return nil, ErrRecipientNotFound
	}

	var created *models.Relationship
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRelRepo := storage.NewGormRelationshipRepository(tx)

		existing, err := txRelRepo.FindByPair(ctx, requesterID, recipientID)
		if err != nil {
			return err
		}
		if existing != nil {
			return classifyExisting(existing, requesterID)
		}

		rel := &models.Relationship{
			RequesterID: requesterID,
			RecipientID: recipientID,
			Status:      models.RelationshipPending,
		}
		if err := txRelRepo.Create(ctx, rel); err != nil {
			return err
		}
		created = rel
		return nil
	})

	if errors.Is(txErr, gorm.ErrDuplicatedKey) {
		// 并发插入输掉了，按对方已写入的行重新分类
		existing, err := s.relRepo.FindByPair(ctx, requesterID, recipientID)
		if err != nil {
			return nil, storeErr("re-read relationship", err)
		}
		if existing == nil {
			return nil, storeErr("insert relationship", txErr)
		}
		return nil, classifyExisting(existing, requesterID)
	}
	if txErr != nil {
		if errors.Is(txErr, ErrAlreadyFriends) || errors.Is(txErr, ErrRequestAlreadyPending) {
			return nil, txErr
		}
		s.log.Error("send friend request failed",
			zap.Uint("user_id", requesterID), zap.Uint("recipient_id", recipientID), zap.Error(txErr))
		return nil, storeErr("send friend request", txErr)
	}

	s.log.Info("friend request created",
		zap.Uint("user_id", requesterID), zap.Uint("recipient_id", recipientID), zap.Uint("relationship_id", created.ID))
	s.dispatch(ctx, events.FriendRequestSent{
		RelationshipID: created.ID,
		RequesterID:    requesterID,
		RecipientID:    recipientID,
	})
	return created, nil
}

func classifyExisting(rel *models.Relationship, requesterID uint) error {
	if rel.Status == models.RelationshipAccepted {
		return ErrAlreadyFriends
	}
	if rel.RequesterID == requesterID {
		return &PendingRequestError{Direction: DirectionOutgoing}
	}
	return &PendingRequestError{Direction: DirectionIncoming}
}

// AcceptRequest flips {requester -> accepter, pending} to accepted and notifies the requester.
func (s *relationshipService) AcceptRequest(ctx context.Context, accepterID, requesterID uint) error {
	ok, err := s.relRepo.Accept(ctx, requesterID, accepterID)
	if err != nil {
		return storeErr("accept friend request", err)
	}
	if !ok {
		return ErrRelationshipNotFound
	}

	s.log.Info("friend request accepted", zap.Uint("user_id", accepterID), zap.Uint("requester_id", requesterID))
	s.dispatch(ctx, events.FriendRequestAccepted{RequesterID: requesterID, AccepterID: accepterID})
	return nil
}

// RejectRequest deletes the incoming pending row. The requester is not notified.
func (s *relationshipService) RejectRequest(ctx context.Context, recipientID, requesterID uint) error {
	ok, err := s.relRepo.DeletePending(ctx, requesterID, recipientID)
	if err != nil {
		return storeErr("reject friend request", err)
	}
	if !ok {
		return ErrRelationshipNotFound
	}
	s.log.Info("friend request rejected", zap.Uint("user_id", recipientID), zap.Uint("requester_id", requesterID))
	return nil
}

// CancelRequest deletes the caller's own outgoing pending row.
func (s *relationshipService) CancelRequest(ctx context.Context, requesterID, recipientID uint) error {
	ok, err := s.relRepo.DeletePending(ctx, requesterID, recipientID)
	if err != nil {
		return storeErr("cancel friend request", err)
	}
	if !ok {
		return ErrRelationshipNotFound
	}
	s.log.Info("friend request cancelled", zap.Uint("user_id", requesterID), zap.Uint("recipient_id", recipientID))
	return nil
}

// RemoveFriend deletes the accepted row whichever side initiated it.
func (s *relationshipService) RemoveFriend(ctx context.Context, userID, friendID uint) error {
	ok, err := s.relRepo.DeleteAccepted(ctx, userID, friendID)
	if err != nil {
		return storeErr("remove friend", err)
	}
	if !ok {
		return ErrRelationshipNotFound
	}
	s.log.Info("friend removed", zap.Uint("user_id", userID), zap.Uint("friend_id", friendID))
	return nil
}

// ListRelationships only ever reads rows the user is part of, so another
// user's pending requests can never leak into the result.
func (s *relationshipService) ListRelationships(ctx context.Context, userID uint) (*RelationshipList, error) {
	rels, err := s.relRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, storeErr("list relationships", err)
	}

	list := &RelationshipList{
		Friends:  []*models.RelationshipEntry{},
		Incoming: []*models.RelationshipEntry{},
		Outgoing: []*models.RelationshipEntry{},
	}
	if len(rels) == 0 {
		return list, nil
	}

	otherIDs := make([]uint, 0, len(rels))
	for i := range rels {
		otherIDs = append(otherIDs, rels[i].OtherParty(userID))
	}
	infos, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, otherIDs)
	if err != nil {
		return nil, storeErr("load relationship users", err)
	}
	byID := make(map[uint]*models.UserBasicInfo, len(infos))
	for _, info := range infos {
		byID[info.ID] = info
	}

	for i := range rels {
		rel := &rels[i]
		other, ok := byID[rel.OtherParty(userID)]
		if !ok {
			continue // 对方账号已删除
		}
		entry := &models.RelationshipEntry{
			RelationshipID: rel.ID,
			User:           other,
			Status:         rel.Status,
			Since:          rel.CreatedAt,
		}
		switch {
		case rel.Status == models.RelationshipAccepted:
			entry.Since = rel.UpdatedAt
			list.Friends = append(list.Friends, entry)
		case rel.RecipientID == userID:
			list.Incoming = append(list.Incoming, entry)
		default:
			list.Outgoing = append(list.Outgoing, entry)
		}
	}
	return list, nil
}

func (s *relationshipService) Status(ctx context.Context, viewerID, otherID uint) (RelationshipState, error) {
	if viewerID == otherID {
		return StateNone, ErrSelfRequest
	}
	rel, err := s.relRepo.FindByPair(ctx, viewerID, otherID)
	if err != nil {
		return StateNone, storeErr("relationship status", err)
	}
	switch {
	case rel == nil:
		return StateNone, nil
	case rel.Status == models.RelationshipAccepted:
		return StateFriends, nil
	case rel.RequesterID == viewerID:
		return StateOutgoing, nil
	default:
		return StateIncoming, nil
	}
}

// dispatch hands the event to fan-out. The relationship write has already
// committed, so a failure here is only logged.
func (s *relationshipService) dispatch(ctx context.Context, ev events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Dispatch(ctx, ev); err != nil {
		s.log.Error("dispatch event failed", zap.String("event_type", string(ev.EventType())), zap.Error(err))
	}
}
