// Package liveevents fans dashboard changes out to the SSE subscribers of
// a single user.
package liveevents

import (
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	TypeStats      = "stats"
	TypeActivity   = "activity"
	TypeToolAccess = "tool_access"
	TypeMetrics    = "metrics"
)

const (
	DefaultReplaySize       = 50
	DefaultSubscriberBuffer = 16
)

var ErrHubUnavailable = errors.New("hub_unavailable")

type Event struct {
	Type    string    `json:"type"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

type Hub struct {
	mu               sync.RWMutex
	streams          map[snowflake.ID]*stream
	replaySize       int
	subscriberBuffer int
}

type stream struct {
	mu     sync.Mutex
	replay []Event
	subs   map[uint64]chan Event
	nextID uint64
}

type Subscription struct {
	hub    *Hub
	userID snowflake.ID
	id     uint64
	ch     chan Event
	once   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		streams:          make(map[snowflake.ID]*stream),
		replaySize:       DefaultReplaySize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

// Publish delivers event to the user's subscribers without blocking. Slow
// subscribers miss events and catch up on their next poll.
func (h *Hub) Publish(userID snowflake.ID, event Event) {
	if h == nil {
		return
	}
	h.mu.RLock()
	st := h.streams[userID]
	h.mu.RUnlock()
	if st == nil {
		return
	}

	st.mu.Lock()
	st.replay = append(st.replay, event)
	if len(st.replay) > h.replaySize {
		st.replay = st.replay[len(st.replay)-h.replaySize:]
	}
	subs := make([]chan Event, 0, len(st.subs))
	for _, ch := range st.subs {
		subs = append(subs, ch)
	}
	st.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a listener and returns the events published since the
// stream opened, oldest first.
func (h *Hub) Subscribe(userID snowflake.ID) (*Subscription, []Event, error) {
	if h == nil {
		return nil, nil, ErrHubUnavailable
	}

	st := h.ensureStream(userID)
	st.mu.Lock()
	id := st.nextID
	st.nextID++
	ch := make(chan Event, h.subscriberBuffer)
	st.subs[id] = ch
	replay := append([]Event(nil), st.replay...)
	st.mu.Unlock()

	return &Subscription{hub: h, userID: userID, id: id, ch: ch}, replay, nil
}

func (h *Hub) ensureStream(userID snowflake.ID) *stream {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.streams[userID]
	if st == nil {
		st = &stream{subs: make(map[uint64]chan Event)}
		h.streams[userID] = st
	}
	return st
}

func (h *Hub) unsubscribe(userID snowflake.ID, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.streams[userID]
	if st == nil {
		return
	}
	st.mu.Lock()
	delete(st.subs, id)
	empty := len(st.subs) == 0
	st.mu.Unlock()
	if empty {
		delete(h.streams, userID)
	}
}

func (s *Subscription) Events() <-chan Event {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.userID, s.id)
	})
}
