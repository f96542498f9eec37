package hotel

import "sync"

// User is one connected party. The handle (ID) is stable for the lifetime of
// the connection; room membership changes as the user moves.
type User struct {
	ID        string
	Name      string
	SessionID string

	// Out carries encoded server->client messages; the transport drains it.
	Out chan []byte

	mu   sync.Mutex
	room *Room
	slot int
}

// Room returns the id of the room the user currently occupies, or "".
func (u *User) Room() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.room == nil {
		return ""
	}
	return u.room.ID
}

// Slot returns the user's room-scoped occupancy slot (-1 when not in a room).
func (u *User) Slot() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.room == nil {
		return -1
	}
	return u.slot
}

// Send queues a message for the connection. A full queue drops the message;
// the client recovers state on the next refresh.
func (u *User) Send(b []byte) {
	select {
	case u.Out <- b:
	default:
	}
}

func (u *User) setRoom(r *Room, slot int) {
	u.mu.Lock()
	u.room = r
	u.slot = slot
	u.mu.Unlock()
}
