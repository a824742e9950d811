// Package client is the consumer side of the notification and social APIs:
// a bounded unread cache fed by pushes and fetches, optimistic toggles with
// snapshot rollback, and a session tying both to the HTTP and websocket APIs.
package client

import "sync"

// DefaultUnreadListSize bounds the cached list when no size is given.
const DefaultUnreadListSize = 50

// UnreadList caches the newest notifications, unique by id, plus the unread
// counter exactly as last reported by the server. The counter is never
// computed from the list.
type UnreadList struct {
	mu    sync.Mutex
	items []Notification // 新的在前
	ids   map[uint]struct{}
	max   int
	count int64
}

// NewUnreadList creates an empty list holding at most max items.
func NewUnreadList(max int) *UnreadList {
	if max <= 0 {
		max = DefaultUnreadListSize
	}
	return &UnreadList{ids: make(map[uint]struct{}), max: max}
}

// Ingest applies one push. The notification, if any, is put at the head
// unless it is already cached; the counter always takes the pushed value.
// It reports whether a new item was inserted.
func (l *UnreadList) Ingest(ev PushEvent) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count = ev.UnreadCount
	if ev.Notification == nil {
		return false
	}
	if _, dup := l.ids[ev.Notification.ID]; dup {
		return false
	}
	l.items = append([]Notification{*ev.Notification}, l.items...)
	l.ids[ev.Notification.ID] = struct{}{}
	l.trim()
	return true
}

// Replace swaps in a freshly fetched first page. Call it only after a
// successful fetch; a failed fetch must leave the cache alone.
func (l *UnreadList) Replace(items []Notification, unreadCount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = l.items[:0]
	l.ids = make(map[uint]struct{}, len(items))
	l.appendUnique(items)
	l.count = unreadCount
	l.trim()
}

// Merge appends an older page behind the cached items, skipping duplicates.
func (l *UnreadList) Merge(items []Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appendUnique(items)
	l.trim()
}

// MarkRead flags one cached item as read and adopts the recounted value the
// server returned for it.
func (l *UnreadList) MarkRead(id uint, unreadCount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i].IsRead = true
			break
		}
	}
	l.count = unreadCount
}

// MarkAllRead is the optimistic half of mark-all: every item is read and the
// counter drops to zero without waiting for a recount.
func (l *UnreadList) MarkAllRead() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		l.items[i].IsRead = true
	}
	l.count = 0
}

// SetCount adopts a server-reported unread count.
func (l *UnreadList) SetCount(n int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count = n
}

// Count returns the last server-reported unread count.
func (l *UnreadList) Count() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Items returns a copy of the cached items, newest first.
func (l *UnreadList) Items() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Notification(nil), l.items...)
}

func (l *UnreadList) appendUnique(items []Notification) {
	for _, n := range items {
		if _, dup := l.ids[n.ID]; dup {
			continue
		}
		l.items = append(l.items, n)
		l.ids[n.ID] = struct{}{}
	}
}

// trim drops the oldest items beyond max. Caller holds mu.
func (l *UnreadList) trim() {
	for len(l.items) > l.max {
		last := l.items[len(l.items)-1]
		delete(l.ids, last.ID)
		l.items = l.items[:len(l.items)-1]
	}
}
