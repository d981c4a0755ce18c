package ws

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/Luismi76/cursos/internal/events"
	"github.com/google/uuid"
)

// Hub owns the subscription table of course channels on this instance.
type Hub struct {
	mu      sync.RWMutex
	courses map[uuid.UUID]map[*Client]struct{}
	dropped atomic.Int64
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		courses: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Subscribe adds a client to its course channel
func (h *Hub) Subscribe(client *Client) {
	h.mu.Lock()
	subs, ok := h.courses[client.CourseID]
	if !ok {
		subs = make(map[*Client]struct{})
		h.courses[client.CourseID] = subs
	}
	subs[client] = struct{}{}
	count := len(subs)
	h.mu.Unlock()

	log.Printf("User %s joined course %s (subscribers: %d)", client.UserID, client.CourseID, count)
}

// Unsubscribe removes a client from its course channel and stops its writer
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	if subs, ok := h.courses[client.CourseID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.courses, client.CourseID)
		}
	}
	count := len(h.courses[client.CourseID])
	h.mu.Unlock()

	client.Close()
	log.Printf("User %s left course %s (subscribers: %d)", client.UserID, client.CourseID, count)
}

// Publish encodes the event once and fans it out to the course's subscribers
func (h *Hub) Publish(ev events.Event) {
	frame, err := events.Encode(ev)
	if err != nil {
		log.Printf("Error encoding %s event for course %s: %v", ev.Kind(), ev.CourseID(), err)
		return
	}
	h.Broadcast(ev.CourseID(), frame)
}

// Broadcast queues an encoded frame for every subscriber of the course. Slow
// subscribers lose the frame instead of delaying the others.
func (h *Hub) Broadcast(courseID uuid.UUID, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.courses[courseID] {
		if !client.Enqueue(frame) {
			h.dropped.Add(1)
			log.Printf("Dropped frame for user %s in course %s: send buffer full", client.UserID, courseID)
		}
	}
}

// OnlineUsers returns the distinct users connected to a course on this instance
func (h *Hub) OnlineUsers(courseID uuid.UUID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{}, len(h.courses[courseID]))
	users := make([]uuid.UUID, 0, len(h.courses[courseID]))
	for client := range h.courses[courseID] {
		if _, ok := seen[client.UserID]; ok {
			continue
		}
		seen[client.UserID] = struct{}{}
		users = append(users, client.UserID)
	}
	return users
}

// Count returns the number of connections subscribed to a course
func (h *Hub) Count(courseID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.courses[courseID])
}

// Dropped returns how many frames were discarded because a buffer was full
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
