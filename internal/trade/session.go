package trade

import (
	"sync"

	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/hotel"
)

// Offer is one item a party has put on their side of the pending exchange.
// The template is captured for display; ownership is re-validated at
// settlement, never trusted from here.
type Offer struct {
	ItemID     string
	TemplateID string
}

// Session is the shared state of one active trade between exactly two
// parties. All field access goes through mu; the mutex is held across the
// both-accepted evaluation so that settlement fires exactly once.
type Session struct {
	a, b *hotel.User

	mu       sync.Mutex
	offers   map[string][]Offer // by user handle
	accepted map[string]bool    // by user handle
	closed   bool
}

func newSession(a, b *hotel.User) *Session {
	return &Session{
		a: a,
		b: b,
		offers: map[string][]Offer{
			a.ID: nil,
			b.ID: nil,
		},
		accepted: map[string]bool{
			a.ID: false,
			b.ID: false,
		},
	}
}

func (s *Session) partner(u *hotel.User) *hotel.User {
	if u == s.a {
		return s.b
	}
	return s.a
}

func (s *Session) holds(u *hotel.User) bool {
	return u == s.a || u == s.b
}

func (s *Session) offered(u *hotel.User, itemID string) bool {
	for _, o := range s.offers[u.ID] {
		if o.ItemID == itemID {
			return true
		}
	}
	return false
}

func (s *Session) resetAccepted() {
	s.accepted[s.a.ID] = false
	s.accepted[s.b.ID] = false
}

// Offers returns a copy of one party's offer list.
func (s *Session) Offers(u *hotel.User) []Offer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Offer, len(s.offers[u.ID]))
	copy(out, s.offers[u.ID])
	return out
}

// Accepted reports one party's acceptance flag.
func (s *Session) Accepted(u *hotel.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted[u.ID]
}
