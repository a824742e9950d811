// Package events decouples domain writes from their side effects. A write
// dispatches a typed event; the fan-out side receives it through a Router,
// either in-process or after a hop over Kafka.
package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Type 事件类型，同时用作路由键。
type Type string

const (
	TypeEpisodePublished      Type = "catalog.episode.published"
	TypeFriendRequestSent     Type = "friend.request.sent"
	TypeFriendRequestAccepted Type = "friend.request.accepted"
)

// Event is implemented by every payload that can be dispatched.
type Event interface {
	EventType() Type
	// Key is the partition key; events about the same subject stay ordered.
	Key() string
}

// Envelope is the wire format on the events topic.
type Envelope struct {
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Key        string          `json:"key,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope wraps ev for transport.
func NewEnvelope(ev Event, now time.Time) (Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", ev.EventType(), err)
	}
	return Envelope{
		Type:       ev.EventType(),
		OccurredAt: now.UTC(),
		Key:        ev.Key(),
		Payload:    payload,
	}, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// EpisodePublished is fired after an episode row is durably created.
type EpisodePublished struct {
	MovieID       uint   `json:"movieId"`
	EpisodeID     uint   `json:"episodeId"`
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	EpisodeNumber int    `json:"episodeNumber"`
}

func (EpisodePublished) EventType() Type { return TypeEpisodePublished }
func (e EpisodePublished) Key() string   { return "movie-" + strconv.FormatUint(uint64(e.MovieID), 10) }

// FriendRequestSent is fired after a pending row is created.
type FriendRequestSent struct {
	RelationshipID uint `json:"relationshipId"`
	RequesterID    uint `json:"requesterId"`
	RecipientID    uint `json:"recipientId"`
}

func (FriendRequestSent) EventType() Type { return TypeFriendRequestSent }
func (e FriendRequestSent) Key() string   { return userKey(e.RecipientID) }

// FriendRequestAccepted is addressed back to the original requester.
type FriendRequestAccepted struct {
	RequesterID uint `json:"requesterId"`
	AccepterID  uint `json:"accepterId"`
}

func (FriendRequestAccepted) EventType() Type { return TypeFriendRequestAccepted }
func (e FriendRequestAccepted) Key() string   { return userKey(e.RequesterID) }

func userKey(id uint) string {
	return "user-" + strconv.FormatUint(uint64(id), 10)
}
