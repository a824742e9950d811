package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-social/internal/imtypes"
	"movie-social/internal/models"
)

func TestSendRequest_CreatesSinglePendingRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.alice.ID, env.bob.ID

	rel, err := env.relationships.SendRequest(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, models.RelationshipPending, rel.Status)
	assert.Equal(t, a, rel.RequesterID)
	assert.EqualValues(t, 1, env.countRelationships(t))

	_, err = env.relationships.SendRequest(ctx, a, b)
	var pending *PendingRequestError
	require.ErrorAs(t, err, &pending)
	assert.Equal(t, DirectionOutgoing, pending.Direction)
	assert.ErrorIs(t, err, ErrRequestAlreadyPending)

	_, err = env.relationships.SendRequest(ctx, b, a)
	require.ErrorAs(t, err, &pending)
	assert.Equal(t, DirectionIncoming, pending.Direction)

	assert.EqualValues(t, 1, env.countRelationships(t))
}

func TestSendRequest_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.relationships.SendRequest(ctx, env.alice.ID, env.alice.ID)
	assert.ErrorIs(t, err, ErrSelfRequest)

	_, err = env.relationships.SendRequest(ctx, env.alice.ID, 9999)
	assert.ErrorIs(t, err, ErrRecipientNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Zero(t, env.countRelationships(t))
}

func TestSendRequest_AlreadyFriends(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.relationships.SendRequest(ctx, env.alice.ID, env.bob.ID)
	require.NoError(t, err)
	require.NoError(t, env.relationships.AcceptRequest(ctx, env.bob.ID, env.alice.ID))

	_, err = env.relationships.SendRequest(ctx, env.bob.ID, env.alice.ID)
	assert.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestSendRequest_ConcurrentSamePair(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.alice.ID, env.bob.ID

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := a, b
			if i%2 == 1 {
				from, to = b, a
			}
			_, errs[i] = env.relationships.SendRequest(ctx, from, to)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, ErrRequestAlreadyPending), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.EqualValues(t, 1, env.countRelationships(t))
}

func TestAcceptRequest_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.alice.ID, env.bob.ID

	_, err := env.relationships.SendRequest(ctx, a, b)
	require.NoError(t, err)

	// the requester cannot accept their own request
	assert.ErrorIs(t, env.relationships.AcceptRequest(ctx, a, b), ErrRelationshipNotFound)

	require.NoError(t, env.relationships.AcceptRequest(ctx, b, a))
	assert.EqualValues(t, 1, env.countRelationships(t))

	rel, err := env.relRepo.FindByPair(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, models.RelationshipAccepted, rel.Status)

	listA, err := env.relationships.ListRelationships(ctx, a)
	require.NoError(t, err)
	require.Len(t, listA.Friends, 1)
	assert.Equal(t, b, listA.Friends[0].User.ID)

	listB, err := env.relationships.ListRelationships(ctx, b)
	require.NoError(t, err)
	require.Len(t, listB.Friends, 1)
	assert.Equal(t, a, listB.Friends[0].User.ID)

	// bob got the request, alice got the acceptance
	bobPushes := env.pub.forUser(b)
	require.Len(t, bobPushes, 1)
	assert.Equal(t, imtypes.EventNewNotification, bobPushes[0].Type)
	assert.Equal(t, models.NotificationFriendRequest, bobPushes[0].Notification.Kind)

	alicePushes := env.pub.forUser(a)
	require.Len(t, alicePushes, 1)
	assert.Equal(t, imtypes.EventFriendRequestAccepted, alicePushes[0].Type)
	assert.Equal(t, models.NotificationFriendRequestAccepted, alicePushes[0].Notification.Kind)
	assert.EqualValues(t, 1, alicePushes[0].UnreadCount)

	// accepted never reverts to pending
	assert.ErrorIs(t, env.relationships.AcceptRequest(ctx, b, a), ErrRelationshipNotFound)
}

func TestRejectAndCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.alice.ID, env.bob.ID

	_, err := env.relationships.SendRequest(ctx, a, b)
	require.NoError(t, err)

	// only the recipient can reject
	assert.ErrorIs(t, env.relationships.RejectRequest(ctx, a, b), ErrRelationshipNotFound)
	require.NoError(t, env.relationships.RejectRequest(ctx, b, a))
	assert.Zero(t, env.countRelationships(t))
	assert.Empty(t, env.pub.forUser(a), "rejection is silent")
	assert.ErrorIs(t, env.relationships.RejectRequest(ctx, b, a), ErrRelationshipNotFound)

	_, err = env.relationships.SendRequest(ctx, a, b)
	require.NoError(t, err)
	// only the requester can cancel
	assert.ErrorIs(t, env.relationships.CancelRequest(ctx, b, a), ErrRelationshipNotFound)
	require.NoError(t, env.relationships.CancelRequest(ctx, a, b))

	state, err := env.relationships.Status(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, StateNone, state)
}

func TestRemoveFriend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.alice.ID, env.bob.ID

	assert.ErrorIs(t, env.relationships.RemoveFriend(ctx, a, b), ErrRelationshipNotFound)

	_, err := env.relationships.SendRequest(ctx, a, b)
	require.NoError(t, err)
	// a pending row is not a friendship
	assert.ErrorIs(t, env.relationships.RemoveFriend(ctx, a, b), ErrRelationshipNotFound)

	require.NoError(t, env.relationships.AcceptRequest(ctx, b, a))
	require.NoError(t, env.relationships.RemoveFriend(ctx, b, a))
	assert.Zero(t, env.countRelationships(t))
}

func TestListRelationships_Visibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b, c := env.alice.ID, env.bob.ID, env.carol.ID

	_, err := env.relationships.SendRequest(ctx, a, b)
	require.NoError(t, err)

	listA, err := env.relationships.ListRelationships(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, listA.Friends)
	assert.Empty(t, listA.Incoming)
	require.Len(t, listA.Outgoing, 1)
	assert.Equal(t, b, listA.Outgoing[0].User.ID)

	listB, err := env.relationships.ListRelationships(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, listB.Friends)
	assert.Empty(t, listB.Outgoing)
	require.Len(t, listB.Incoming, 1)
	assert.Equal(t, a, listB.Incoming[0].User.ID)

	listC, err := env.relationships.ListRelationships(ctx, c)
	require.NoError(t, err)
	assert.Empty(t, listC.Friends)
	assert.Empty(t, listC.Incoming)
	assert.Empty(t, listC.Outgoing)
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.alice.ID, env.bob.ID

	_, err := env.relationships.SendRequest(ctx, a, b)
	require.NoError(t, err)

	state, err := env.relationships.Status(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, StateOutgoing, state)

	state, err = env.relationships.Status(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, StateIncoming, state)

	require.NoError(t, env.relationships.AcceptRequest(ctx, b, a))
	state, err = env.relationships.Status(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, StateFriends, state)

	_, err = env.relationships.Status(ctx, a, a)
	assert.ErrorIs(t, err, ErrSelfRequest)
}
