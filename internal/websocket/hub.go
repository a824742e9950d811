package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"movie-social/internal/imtypes"
	"movie-social/internal/logger"
	"movie-social/internal/metrics"
)

// Connection is one live session that can receive push frames.
type Connection interface {
	ID() string
	// Enqueue must not block; false means the frame was dropped.
	Enqueue(payload []byte) bool
}

// ConnectionRegistry addresses live connections by user. A user may have any
// number of connections (multi-device) and all of them receive a publish.
type ConnectionRegistry interface {
	Join(userID uint, conn Connection)
	Leave(userID uint, conn Connection)
	Publish(ctx context.Context, userID uint, ev imtypes.PushEvent) error
}

// Hub maintains the rooms (user_<id>) of this process. Lookups take the read
// lock so concurrent publishes never wait on each other; join and leave take
// the write lock and only touch their own room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Connection
	log   *logger.Logger
}

var _ ConnectionRegistry = (*Hub)(nil)
var _ imtypes.PushPublisher = (*Hub)(nil)

// NewHub creates a new Hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[string]Connection),
		log:   log,
	}
}

// RoomName 用户房间名。
func RoomName(userID uint) string {
	return "user_" + strconv.FormatUint(uint64(userID), 10)
}

func (h *Hub) Join(userID uint, conn Connection) {
	room := RoomName(userID)
	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]Connection)
		h.rooms[room] = members
	}
	_, existed := members[conn.ID()]
	members[conn.ID()] = conn
	size := len(members)
	h.mu.Unlock()

	if !existed {
		metrics.WSConnections.Inc()
	}
	h.log.Info("connection joined room", zap.String("room", room), zap.String("conn_id", conn.ID()), zap.Int("room_size", size))
}

// Leave removes conn from the user's room. Once Leave returns no further
// Enqueue call can reach conn, so its owner may release it.
func (h *Hub) Leave(userID uint, conn Connection) {
	room := RoomName(userID)
	h.mu.Lock()
	members, ok := h.rooms[room]
	_, present := members[conn.ID()]
	if present {
		delete(members, conn.ID())
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()

	if ok && present {
		metrics.WSConnections.Dec()
		h.log.Info("connection left room", zap.String("room", room), zap.String("conn_id", conn.ID()))
	}
}

// Publish sends ev to every connection in the user's room, at most once each.
// A user with no live connection is not an error.
func (h *Hub) Publish(ctx context.Context, userID uint, ev imtypes.PushEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal push event: %w", err)
	}

	room := RoomName(userID)
	delivered, dropped := 0, 0
	h.mu.RLock()
	for _, conn := range h.rooms[room] {
		if conn.Enqueue(payload) {
			delivered++
		} else {
			dropped++
		}
	}
	h.mu.RUnlock()

	metrics.PushDelivered.Add(float64(delivered))
	if dropped > 0 {
		metrics.PushDropped.Add(float64(dropped))
		h.log.Warn("push dropped on full send buffer",
			zap.String("room", room), zap.String("event_type", string(ev.Type)), zap.Int("dropped", dropped))
	}
	return nil
}

// ConnectionCount returns the number of live connections of a user.
func (h *Hub) ConnectionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[RoomName(userID)])
}
