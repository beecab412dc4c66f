package hub

import (
	"errors"
	"strings"
	"sync"

	chatdomain "github.com/AndreaSpaggiari/sito-andrea/internal/chat/domain"
	"github.com/bwmarrin/snowflake"
)

const (
	DefaultBufferSize       = 50
	DefaultSubscriberBuffer = 16
)

// Hub fans chat and presence events out to connected subscribers.
// Single-process, no delivery guarantees: a slow subscriber loses
// events rather than stalling the room.
type Hub struct {
	mu               sync.RWMutex
	rooms            map[string]*room
	bufferSize       int
	subscriberBuffer int
}

type room struct {
	mu      sync.Mutex
	buffer  []chatdomain.Event
	subs    map[uint64]*subscriber
	nextID  uint64
	present map[snowflake.ID]presence
}

type presence struct {
	displayName string
	count       int
}

type subscriber struct {
	ch          chan chatdomain.Event
	userID      snowflake.ID
	displayName string
}

type Subscription struct {
	hub  *Hub
	room string
	id   uint64
	ch   chan chatdomain.Event
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{
		rooms:            make(map[string]*room),
		bufferSize:       DefaultBufferSize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

func (h *Hub) Publish(roomName string, event chatdomain.Event) {
	if h == nil {
		return
	}
	name := normalizeRoom(roomName)

	h.mu.RLock()
	current := h.rooms[name]
	h.mu.RUnlock()
	if current == nil {
		return
	}

	current.mu.Lock()
	current.buffer = append(current.buffer, event)
	if len(current.buffer) > h.bufferSize {
		current.buffer = current.buffer[len(current.buffer)-h.bufferSize:]
	}
	subs := make([]chan chatdomain.Event, 0, len(current.subs))
	for _, sub := range current.subs {
		subs = append(subs, sub.ch)
	}
	current.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe joins a room. The returned slice replays the buffered
// history; presence is announced to the other subscribers when this is
// the user's first connection.
func (h *Hub) Subscribe(roomName string, userID snowflake.ID, displayName string) (*Subscription, []chatdomain.Event, error) {
	if h == nil {
		return nil, nil, errors.New("hub_unavailable")
	}
	if userID == 0 {
		return nil, nil, chatdomain.ErrInvalidID
	}
	name := normalizeRoom(roomName)
	current := h.ensureRoom(name)

	current.mu.Lock()
	id := current.nextID
	current.nextID++
	sub := &subscriber{
		ch:          make(chan chatdomain.Event, h.subscriberBuffer),
		userID:      userID,
		displayName: displayName,
	}
	current.subs[id] = sub

	p := current.present[userID]
	p.count++
	p.displayName = displayName
	current.present[userID] = p
	firstConnection := p.count == 1

	replay := append([]chatdomain.Event(nil), current.buffer...)
	current.mu.Unlock()

	if firstConnection {
		h.Publish(name, chatdomain.Event{
			Kind:        chatdomain.EventJoin,
			Room:        name,
			UserID:      userID,
			DisplayName: displayName,
		})
	}

	return &Subscription{hub: h, room: name, id: id, ch: sub.ch}, replay, nil
}

// Presence lists the users currently connected to a room.
func (h *Hub) Presence(roomName string) []chatdomain.Event {
	if h == nil {
		return nil
	}
	name := normalizeRoom(roomName)

	h.mu.RLock()
	current := h.rooms[name]
	h.mu.RUnlock()
	if current == nil {
		return nil
	}

	current.mu.Lock()
	defer current.mu.Unlock()
	users := make([]chatdomain.Event, 0, len(current.present))
	for userID, p := range current.present {
		users = append(users, chatdomain.Event{
			Kind:        chatdomain.EventJoin,
			Room:        name,
			UserID:      userID,
			DisplayName: p.displayName,
		})
	}
	return users
}

func (h *Hub) ensureRoom(name string) *room {
	h.mu.RLock()
	current := h.rooms[name]
	h.mu.RUnlock()
	if current != nil {
		return current
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	current = h.rooms[name]
	if current == nil {
		current = &room{
			subs:    make(map[uint64]*subscriber),
			present: make(map[snowflake.ID]presence),
		}
		h.rooms[name] = current
	}
	return current
}

func (h *Hub) unsubscribe(roomName string, id uint64) {
	h.mu.RLock()
	current := h.rooms[roomName]
	h.mu.RUnlock()
	if current == nil {
		return
	}

	current.mu.Lock()
	sub, ok := current.subs[id]
	if !ok {
		current.mu.Unlock()
		return
	}
	delete(current.subs, id)

	var left bool
	var leftName string
	if p, found := current.present[sub.userID]; found {
		p.count--
		if p.count <= 0 {
			delete(current.present, sub.userID)
			left = true
			leftName = p.displayName
		} else {
			current.present[sub.userID] = p
		}
	}
	current.mu.Unlock()

	if left {
		h.Publish(roomName, chatdomain.Event{
			Kind:        chatdomain.EventLeave,
			Room:        roomName,
			UserID:      sub.userID,
			DisplayName: leftName,
		})
	}
}

func (s *Subscription) Events() <-chan chatdomain.Event {
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
		s.hub.unsubscribe(s.room, s.id)
	})
}

func normalizeRoom(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return chatdomain.DefaultRoom
	}
	return name
}
