package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-social/internal/imtypes"
	"movie-social/internal/logger"
)

type fakeConn struct {
	id  string
	mu  sync.Mutex
	got [][]byte
	cap int // 0 表示不限
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cap > 0 && len(c.got) >= c.cap {
		return false
	}
	c.got = append(c.got, payload)
	return true
}

func (c *fakeConn) frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.got...)
}

func countEvent(n int64) imtypes.PushEvent {
	return imtypes.PushEvent{Type: imtypes.EventUnreadCountChanged, RecipientID: 1, UnreadCount: n}
}

func TestRoomName(t *testing.T) {
	assert.Equal(t, "user_42", RoomName(42))
}

func TestHub_PublishReachesEveryDeviceOnce(t *testing.T) {
	hub := NewHub(logger.NewNop())
	phone := &fakeConn{id: "phone"}
	laptop := &fakeConn{id: "laptop"}
	other := &fakeConn{id: "other"}
	hub.Join(1, phone)
	hub.Join(1, laptop)
	hub.Join(2, other)

	require.NoError(t, hub.Publish(context.Background(), 1, countEvent(4)))

	for _, c := range []*fakeConn{phone, laptop} {
		frames := c.frames()
		require.Len(t, frames, 1, c.id)
		var ev imtypes.PushEvent
		require.NoError(t, json.Unmarshal(frames[0], &ev))
		assert.Equal(t, int64(4), ev.UnreadCount)
	}
	assert.Empty(t, other.frames(), "another user's room must not receive it")
}

func TestHub_JoinTwiceDoesNotDuplicate(t *testing.T) {
	hub := NewHub(logger.NewNop())
	c := &fakeConn{id: "a"}
	hub.Join(1, c)
	hub.Join(1, c)
	assert.Equal(t, 1, hub.ConnectionCount(1))

	require.NoError(t, hub.Publish(context.Background(), 1, countEvent(1)))
	assert.Len(t, c.frames(), 1)
}

func TestHub_LeaveStopsDelivery(t *testing.T) {
	hub := NewHub(logger.NewNop())
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	hub.Join(1, a)
	hub.Join(1, b)

	hub.Leave(1, a)
	require.NoError(t, hub.Publish(context.Background(), 1, countEvent(1)))
	assert.Empty(t, a.frames())
	assert.Len(t, b.frames(), 1)

	hub.Leave(1, b)
	hub.Leave(1, b)
	assert.Equal(t, 0, hub.ConnectionCount(1))
}

func TestHub_PublishToOfflineUserIsNotAnError(t *testing.T) {
	hub := NewHub(logger.NewNop())
	assert.NoError(t, hub.Publish(context.Background(), 99, countEvent(1)))
}

func TestHub_FullBufferDropsWithoutBlocking(t *testing.T) {
	hub := NewHub(logger.NewNop())
	slow := &fakeConn{id: "slow", cap: 1}
	fast := &fakeConn{id: "fast"}
	hub.Join(1, slow)
	hub.Join(1, fast)

	for i := 0; i < 3; i++ {
		require.NoError(t, hub.Publish(context.Background(), 1, countEvent(int64(i))))
	}
	assert.Len(t, slow.frames(), 1)
	assert.Len(t, fast.frames(), 3)
}

func TestHub_CanceledContext(t *testing.T) {
	hub := NewHub(logger.NewNop())
	c := &fakeConn{id: "a"}
	hub.Join(1, c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, hub.Publish(ctx, 1, countEvent(1)), context.Canceled)
	assert.Empty(t, c.frames())
}

func TestHub_ConcurrentJoinLeavePublish(t *testing.T) {
	hub := NewHub(logger.NewNop())
	stable := &fakeConn{id: "stable"}
	hub.Join(1, stable)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c := &fakeConn{id: fmt.Sprintf("c%d", i)}
			hub.Join(1, c)
			hub.Leave(1, c)
		}(i)
		go func() {
			defer wg.Done()
			_ = hub.Publish(context.Background(), 1, countEvent(1))
		}()
	}
	wg.Wait()

	assert.Len(t, stable.frames(), 20)
	assert.Equal(t, 1, hub.ConnectionCount(1))
}
