package hotel

import (
	"encoding/json"
	"testing"
)

func TestEnterResolveCoPresence(t *testing.T) {
	h := New(nil)

	a := h.Connect("alice", 4)
	b := h.Connect("bob", 4)
	if a.ID == b.ID {
		t.Fatalf("expected distinct handles, both %s", a.ID)
	}
	if a.SessionID == "" || a.SessionID == b.SessionID {
		t.Fatalf("expected distinct session ids")
	}

	slotA := h.EnterRoom(a, "lobby")
	slotB := h.EnterRoom(b, "lobby")
	if slotA == slotB {
		t.Fatalf("expected distinct slots, both %d", slotA)
	}
	if !h.IsCoPresent(a, b) {
		t.Fatalf("expected co-presence in lobby")
	}

	got, ok := h.ResolveNear(a, slotB)
	if !ok || got != b {
		t.Fatalf("resolve slot %d: got %v want %s", slotB, got, b.ID)
	}
	if _, ok := h.ResolveNear(a, 99); ok {
		t.Fatalf("expected unknown slot unresolved")
	}

	h.EnterRoom(b, "pool")
	if h.IsCoPresent(a, b) {
		t.Fatalf("expected no co-presence after room change")
	}
	if _, ok := h.ResolveNear(a, slotB); ok {
		t.Fatalf("expected departed slot unresolved")
	}
}

func TestDepartHookFires(t *testing.T) {
	h := New(nil)
	var departed []string
	h.OnDepart(func(u *User) { departed = append(departed, u.ID) })

	a := h.Connect("alice", 4)
	h.EnterRoom(a, "lobby")

	// Room switch counts as departure from the old room.
	h.EnterRoom(a, "pool")
	if len(departed) != 1 || departed[0] != a.ID {
		t.Fatalf("departed after switch: got %v want [%s]", departed, a.ID)
	}

	h.Disconnect(a)
	if len(departed) != 2 {
		t.Fatalf("departed after disconnect: got %v", departed)
	}
	if _, ok := h.User(a.ID); ok {
		t.Fatalf("expected user removed after disconnect")
	}

	// Disconnect outside any room fires no hook.
	b := h.Connect("bob", 4)
	h.Disconnect(b)
	if len(departed) != 2 {
		t.Fatalf("expected no hook for roomless disconnect, got %v", departed)
	}
}

func TestNotifyEvents(t *testing.T) {
	h := New(nil)
	u := h.Connect("alice", 4)

	var n Notify
	n.TradeBoxRefresh(u)
	n.Message(u, "trading_disabled")

	var ev map[string]any
	if err := json.Unmarshal(<-u.Out, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev["event"] != "TRADE_BOX" {
		t.Fatalf("event: got %v want TRADE_BOX", ev["event"])
	}
	if err := json.Unmarshal(<-u.Out, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev["event"] != "NOTICE" || ev["key"] != "trading_disabled" {
		t.Fatalf("notice: got %v", ev)
	}
}

func TestSendDropsWhenFull(t *testing.T) {
	h := New(nil)
	u := h.Connect("alice", 1)
	u.Send([]byte("one"))
	u.Send([]byte("two")) // dropped, must not block
	if got := string(<-u.Out); got != "one" {
		t.Fatalf("queued: got %q want %q", got, "one")
	}
	select {
	case b := <-u.Out:
		t.Fatalf("unexpected extra message %q", b)
	default:
	}
}
