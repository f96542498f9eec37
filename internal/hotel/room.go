package hotel

import "sync"

// Room is one shared space. Occupants are addressed by a room-scoped slot,
// assigned on entry and never reused within the room's lifetime.
type Room struct {
	ID   string
	Name string

	mu        sync.Mutex
	occupants map[int]*User
	nextSlot  int
}

func newRoom(id string) *Room {
	return &Room{
		ID:        id,
		Name:      id,
		occupants: map[int]*User{},
	}
}

func (r *Room) add(u *User) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot := r.nextSlot
	r.nextSlot++
	r.occupants[slot] = u
	return slot
}

func (r *Room) remove(slot int) {
	r.mu.Lock()
	delete(r.occupants, slot)
	r.mu.Unlock()
}

func (r *Room) bySlot(slot int) (*User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.occupants[slot]
	return u, ok
}

// Occupancy returns the number of users currently in the room.
func (r *Room) Occupancy() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.occupants)
}
