package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrToggleInFlight is returned when a key is toggled while its previous
// toggle is still waiting for the server.
var ErrToggleInFlight = errors.New("toggle already in flight")

// ToggleState is the state of one toggle key. While InFlight is set, Value
// and Count hold the optimistic values.
type ToggleState struct {
	Value    bool
	Count    int64
	HasCount bool
	InFlight bool
}

// Confirmed is the server's answer to a toggle. Count is applied only when
// HasCount is set.
type Confirmed struct {
	Value    bool
	Count    int64
	HasCount bool
}

// ToggleFunc performs the mutating request for the target value.
type ToggleFunc func(ctx context.Context, target bool) (*Confirmed, error)

// Toggles holds optimistic toggle state per key. Keys are independent; a
// key accepts a new toggle only when settled.
type Toggles struct {
	mu     sync.Mutex
	states map[string]*ToggleState
}

func NewToggles() *Toggles {
	return &Toggles{states: make(map[string]*ToggleState)}
}

// Seed sets the confirmed value of a key with no dependent counter.
func (t *Toggles) Seed(key string, value bool) {
	t.seed(key, ToggleState{Value: value})
}

// SeedCounted sets the confirmed value of a key and its dependent counter.
func (t *Toggles) SeedCounted(key string, value bool, count int64) {
	t.seed(key, ToggleState{Value: value, Count: count, HasCount: true})
}

// seed never overwrites an in-flight key: the pending answer wins.
func (t *Toggles) seed(key string, st ToggleState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.states[key]; ok && cur.InFlight {
		return
	}
	t.states[key] = &st
}

// State returns a copy of the key's current state.
func (t *Toggles) State(key string) ToggleState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.states[key]; ok {
		return *st
	}
	return ToggleState{}
}

// Toggle flips key optimistically, runs fn, and then either confirms or
// restores the snapshot taken before the flip. It returns the settled state.
func (t *Toggles) Toggle(ctx context.Context, key string, fn ToggleFunc) (ToggleState, error) {
	t.mu.Lock()
	st, ok := t.states[key]
	if !ok {
		st = &ToggleState{}
		t.states[key] = st
	}
	if st.InFlight {
		t.mu.Unlock()
		return *st, ErrToggleInFlight
	}
	snapshot := *st
	target := !st.Value
	st.Value = target
	if st.HasCount {
		if target {
			st.Count++
		} else if st.Count > 0 {
			st.Count--
		}
	}
	st.InFlight = true
	t.mu.Unlock()

	res, err := fn(ctx, target)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		*st = snapshot
		return *st, fmt.Errorf("toggle %s: %w", key, err)
	}
	st.InFlight = false
	if res != nil {
		st.Value = res.Value
		if res.HasCount && st.HasCount {
			st.Count = res.Count
		}
	}
	return *st, nil
}

// FavoriteKey, FollowKey and FriendRequestKey name the toggle keys used by Session.
func FavoriteKey(episodeID uint) string { return fmt.Sprintf("favorite:%d", episodeID) }

func FollowKey(movieID uint) string { return fmt.Sprintf("follow:%d", movieID) }

func FriendRequestKey(userID uint) string { return fmt.Sprintf("friend-request:%d", userID) }
