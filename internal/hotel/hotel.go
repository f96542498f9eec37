package hotel

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Hotel tracks connected users and room occupancy. It answers the presence
// questions the trade protocol asks (co-presence, room-scoped resolution) and
// fires a departure hook whenever a user leaves their room or disconnects.
type Hotel struct {
	log *log.Logger

	mu    sync.Mutex
	users map[string]*User
	rooms map[string]*Room

	nextUserNum atomic.Uint64

	onDepart func(*User)
}

func New(logger *log.Logger) *Hotel {
	return &Hotel{
		log:   logger,
		users: map[string]*User{},
		rooms: map[string]*Room{},
	}
}

// OnDepart registers the hook invoked after a user leaves their room or
// disconnects. Must be set before the first connection is accepted.
func (h *Hotel) OnDepart(fn func(*User)) {
	h.onDepart = fn
}

// Connect registers a new user and returns their handle.
func (h *Hotel) Connect(name string, outQueue int) *User {
	if outQueue <= 0 {
		outQueue = 32
	}
	u := &User{
		ID:        fmt.Sprintf("U%d", h.nextUserNum.Add(1)),
		Name:      name,
		SessionID: uuid.NewString(),
		Out:       make(chan []byte, outQueue),
		slot:      -1,
	}
	h.mu.Lock()
	h.users[u.ID] = u
	h.mu.Unlock()
	return u
}

// EnterRoom moves the user into the named room (created on demand) and
// returns their room-scoped slot. Leaving the previous room counts as a
// departure there.
func (h *Hotel) EnterRoom(u *User, roomID string) int {
	h.LeaveRoom(u)

	h.mu.Lock()
	r := h.rooms[roomID]
	if r == nil {
		r = newRoom(roomID)
		h.rooms[roomID] = r
	}
	h.mu.Unlock()

	slot := r.add(u)
	u.setRoom(r, slot)
	return slot
}

// LeaveRoom removes the user from their current room, if any, and fires the
// departure hook.
func (h *Hotel) LeaveRoom(u *User) {
	u.mu.Lock()
	r, slot := u.room, u.slot
	u.room = nil
	u.slot = -1
	u.mu.Unlock()
	if r == nil {
		return
	}
	r.remove(slot)
	if h.onDepart != nil {
		h.onDepart(u)
	}
}

// Disconnect removes the user entirely. The departure hook fires if the user
// was still in a room.
func (h *Hotel) Disconnect(u *User) {
	h.LeaveRoom(u)
	h.mu.Lock()
	delete(h.users, u.ID)
	h.mu.Unlock()
	if h.log != nil {
		h.log.Printf("disconnect %s (%s)", u.ID, u.Name)
	}
}

// IsCoPresent reports whether both users currently occupy the same room.
func (h *Hotel) IsCoPresent(a, b *User) bool {
	ra, rb := a.Room(), b.Room()
	return ra != "" && ra == rb
}

// ResolveNear resolves a room-scoped slot against the origin's current room.
func (h *Hotel) ResolveNear(origin *User, slot int) (*User, bool) {
	origin.mu.Lock()
	r := origin.room
	origin.mu.Unlock()
	if r == nil {
		return nil, false
	}
	return r.bySlot(slot)
}

// User looks up a connected user by handle.
func (h *Hotel) User(id string) (*User, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	u, ok := h.users[id]
	return u, ok
}
