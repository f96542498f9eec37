package trade

import (
	"fmt"
	"sync"

	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/hotel"
	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/items"
	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/protocol"
)

// Presence answers whether two users share a room and resolves room-scoped
// target references.
type Presence interface {
	IsCoPresent(a, b *hotel.User) bool
	ResolveNear(origin *hotel.User, slot int) (*hotel.User, bool)
}

// Notifier pushes refresh/status updates to a party's connection.
type Notifier interface {
	TradeBoxRefresh(u *hotel.User)
	HandRefresh(u *hotel.User)
	Message(u *hotel.User, key string)
}

// Templates reports whether an item template may be traded at all.
type Templates interface {
	Tradable(templateID string) bool
}

// TradableFunc adapts a plain function to the Templates interface.
type TradableFunc func(templateID string) bool

func (f TradableFunc) Tradable(templateID string) bool { return f(templateID) }

type Config struct {
	Enabled bool
	// MaxOfferItems bounds one party's offer list; 0 means unlimited.
	MaxOfferItems int
}

// Handler interprets the trade sub-protocol. It is the sole owner of the
// user -> active session registry; commands from different connections run
// concurrently, so the registry has its own lock and every session carries
// one of its own.
type Handler struct {
	cfg       Config
	presence  Presence
	repo      items.Repository
	templates Templates
	notify    Notifier

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewHandler(cfg Config, presence Presence, repo items.Repository, templates Templates, notify Notifier) *Handler {
	return &Handler{
		cfg:       cfg,
		presence:  presence,
		repo:      repo,
		templates: templates,
		notify:    notify,
		sessions:  map[string]*Session{},
	}
}

// Handle applies one decoded command from origin's connection. It returns
// false only when the tag is not part of the trade sub-protocol; recognized
// tags report true even when a guard turns the command into a no-op, so
// stale client retries stay silent.
func (h *Handler) Handle(cmd protocol.Command, origin *hotel.User) bool {
	switch cmd.Tag {
	case protocol.CmdTradeStart:
		h.start(origin, cmd.To)
	case protocol.CmdTradeOffer:
		h.offer(origin, cmd.ItemID)
	case protocol.CmdTradeDecline:
		h.decline(origin)
	case protocol.CmdTradeAccept:
		h.accept(origin)
	case protocol.CmdTradeAbort:
		h.abort(origin)
	default:
		return false
	}
	return true
}

func (h *Handler) start(origin *hotel.User, slot int) {
	if !h.cfg.Enabled {
		h.notify.Message(origin, protocol.NoticeTradingDisabled)
		return
	}
	target, ok := h.presence.ResolveNear(origin, slot)
	if !ok || target == origin {
		return
	}
	if !h.presence.IsCoPresent(origin, target) {
		return
	}

	h.mu.Lock()
	if h.sessions[origin.ID] != nil || h.sessions[target.ID] != nil {
		h.mu.Unlock()
		return
	}
	s := newSession(origin, target)
	h.sessions[origin.ID] = s
	h.sessions[target.ID] = s
	h.mu.Unlock()

	// The target may have departed between the guard above and
	// registration; their departure hook found no session then, so the
	// re-check here is the one that unwinds it. A departure after this
	// point finds the registered session and tears it down itself.
	if !h.presence.IsCoPresent(origin, target) {
		s.mu.Lock()
		if !s.closed {
			s.closed = true
			h.removeLocked(s)
		}
		s.mu.Unlock()
		return
	}

	h.notify.TradeBoxRefresh(origin)
	h.notify.TradeBoxRefresh(target)
}

func (h *Handler) offer(origin *hotel.User, itemID string) {
	s := h.sessionOf(origin)
	if s == nil || !h.presence.IsCoPresent(s.a, s.b) {
		return
	}
	tmpl, ok := h.repo.ResolveOwnedTemplate(itemID, origin.ID)
	if !ok {
		return
	}
	if h.templates != nil && !h.templates.Tradable(tmpl) {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.offered(origin, itemID) {
		// Re-delivered offer; already applied.
		s.mu.Unlock()
		return
	}
	if h.cfg.MaxOfferItems > 0 && len(s.offers[origin.ID]) >= h.cfg.MaxOfferItems {
		s.mu.Unlock()
		return
	}
	s.offers[origin.ID] = append(s.offers[origin.ID], Offer{ItemID: itemID, TemplateID: tmpl})
	s.resetAccepted()
	s.mu.Unlock()

	h.notify.TradeBoxRefresh(s.a)
	h.notify.TradeBoxRefresh(s.b)
}

func (h *Handler) decline(origin *hotel.User) {
	s := h.sessionOf(origin)
	if s == nil || !h.presence.IsCoPresent(s.a, s.b) {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.resetAccepted()
	s.mu.Unlock()

	h.notify.TradeBoxRefresh(s.a)
	h.notify.TradeBoxRefresh(s.b)
}

func (h *Handler) accept(origin *hotel.User) {
	s := h.sessionOf(origin)
	if s == nil || !h.presence.IsCoPresent(s.a, s.b) {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.accepted[origin.ID] = true
	settle := s.accepted[s.a.ID] && s.accepted[s.b.ID]
	if settle {
		// The session lock stays held through settlement and teardown so
		// the partner's concurrent Accept cannot settle a second time.
		h.settleLocked(s)
	}
	s.mu.Unlock()

	h.notify.TradeBoxRefresh(s.a)
	h.notify.TradeBoxRefresh(s.b)
	if settle {
		h.notify.HandRefresh(s.a)
		h.notify.HandRefresh(s.b)
	}
}

func (h *Handler) abort(origin *hotel.User) {
	s := h.sessionOf(origin)
	if s == nil || !h.presence.IsCoPresent(s.a, s.b) {
		return
	}
	h.teardown(s)
}

// OnDisconnectOrDepart tears down any session containing the user, as if
// that user had sent Abort. Wired to the hotel's departure hook.
func (h *Handler) OnDisconnectOrDepart(u *hotel.User) {
	h.mu.Lock()
	s := h.sessions[u.ID]
	h.mu.Unlock()
	if s == nil {
		return
	}
	h.teardown(s)
}

// settleLocked transfers each party's offered items to the counterparty.
// Ownership is re-validated per item; items that drifted since the offer are
// skipped without failing the rest of the batch. Caller holds s.mu.
func (h *Handler) settleLocked(s *Session) {
	s.closed = true
	for _, from := range [2]*hotel.User{s.a, s.b} {
		to := s.partner(from)
		for _, o := range s.offers[from.ID] {
			if _, ok := h.repo.ResolveOwnedTemplate(o.ItemID, from.ID); !ok {
				continue
			}
			h.repo.Transfer(o.ItemID, to.ID)
		}
	}
	h.removeLocked(s)
}

func (h *Handler) teardown(s *Session) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	h.removeLocked(s)
	s.mu.Unlock()

	h.notify.HandRefresh(s.a)
	h.notify.HandRefresh(s.b)
}

// removeLocked clears both registry entries. Caller holds s.mu; h.mu is
// never held while acquiring a session lock, so taking it here cannot
// deadlock.
func (h *Handler) removeLocked(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s.a.ID)
	delete(h.sessions, s.b.ID)
	h.mu.Unlock()
}

// sessionOf returns origin's active session, if any.
func (h *Handler) sessionOf(origin *hotel.User) *Session {
	h.mu.Lock()
	s := h.sessions[origin.ID]
	h.mu.Unlock()
	if s != nil && !s.holds(origin) {
		panic(fmt.Sprintf("trade: registry maps %s to a session it is not party to", origin.ID))
	}
	return s
}

// SessionOf exposes the active session for inspection (tests, admin views).
func (h *Handler) SessionOf(u *hotel.User) *Session {
	return h.sessionOf(u)
}
