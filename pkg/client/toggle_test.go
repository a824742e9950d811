package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errServer = errors.New("500 internal server error")

func TestToggle_RollbackRestoresSnapshot(t *testing.T) {
	tg := NewToggles()
	key := FavoriteKey(1)
	tg.SeedCounted(key, false, 5)

	release := make(chan struct{})
	started := make(chan struct{})
	var (
		final ToggleState
		err   error
		wg    sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		final, err = tg.Toggle(context.Background(), key, func(context.Context, bool) (*Confirmed, error) {
			close(started)
			<-release
			return nil, errServer
		})
	}()

	<-started
	assert.Equal(t, ToggleState{Value: true, Count: 6, HasCount: true, InFlight: true}, tg.State(key))

	close(release)
	wg.Wait()
	require.ErrorIs(t, err, errServer)
	assert.Equal(t, ToggleState{Value: false, Count: 5, HasCount: true}, final)
	assert.Equal(t, final, tg.State(key))
}

func TestToggle_RejectsWhileInFlight(t *testing.T) {
	tg := NewToggles()
	key := FollowKey(3)
	tg.SeedCounted(key, false, 0)

	release := make(chan struct{})
	started := make(chan struct{})
	calls := 0
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = tg.Toggle(context.Background(), key, func(_ context.Context, target bool) (*Confirmed, error) {
			calls++
			close(started)
			<-release
			return &Confirmed{Value: target, Count: 1, HasCount: true}, nil
		})
	}()
	<-started

	st, err := tg.Toggle(context.Background(), key, func(context.Context, bool) (*Confirmed, error) {
		t.Fatal("must not be called while in flight")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrToggleInFlight)
	assert.True(t, st.InFlight)

	// 其他 key 不受影响
	other, err := tg.Toggle(context.Background(), FollowKey(4), func(_ context.Context, target bool) (*Confirmed, error) {
		return &Confirmed{Value: target}, nil
	})
	require.NoError(t, err)
	assert.True(t, other.Value)

	close(release)
	wg.Wait()
	assert.Equal(t, 1, calls)
	assert.Equal(t, ToggleState{Value: true, Count: 1, HasCount: true}, tg.State(key))
}

func TestToggle_SuccessReconcilesServerCount(t *testing.T) {
	tg := NewToggles()
	key := FavoriteKey(2)
	tg.SeedCounted(key, false, 5)

	st, err := tg.Toggle(context.Background(), key, func(_ context.Context, target bool) (*Confirmed, error) {
		assert.True(t, target)
		return &Confirmed{Value: true, Count: 9, HasCount: true}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, ToggleState{Value: true, Count: 9, HasCount: true}, st)

	// 没有返回计数时保留乐观值
	st, err = tg.Toggle(context.Background(), key, func(context.Context, bool) (*Confirmed, error) { return nil, nil })
	require.NoError(t, err)
	assert.Equal(t, ToggleState{Value: false, Count: 8, HasCount: true}, st)
}

func TestToggle_SeedIgnoredWhileInFlight(t *testing.T) {
	tg := NewToggles()
	key := FriendRequestKey(8)
	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = tg.Toggle(context.Background(), key, func(context.Context, bool) (*Confirmed, error) {
			close(started)
			<-release
			return nil, errServer
		})
	}()
	<-started
	tg.Seed(key, true)
	close(release)
	wg.Wait()

	assert.Equal(t, ToggleState{}, tg.State(key))
}
