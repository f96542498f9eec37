package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/hotel"
	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/items"
	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/protocol"
	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/trade"
)

type testServer struct {
	url   string
	hotel *hotel.Hotel
	repo  *items.MemoryRepository
	h     *trade.Handler
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	h := hotel.New(nil)
	repo := items.NewMemoryRepository()
	handler := trade.NewHandler(trade.Config{Enabled: true}, h, repo,
		trade.TradableFunc(func(string) bool { return true }), hotel.Notify{})
	h.OnDepart(handler.OnDisconnectOrDepart)

	srv := NewServer(h, handler, Options{DefaultRoom: "lobby"}, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", srv.Handler())
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return &testServer{
		url:   "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/ws",
		hotel: h,
		repo:  repo,
		h:     handler,
	}
}

func dial(t *testing.T, url, name string) (*websocket.Conn, protocol.WelcomeMsg) {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", name, err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	hello := protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, UserName: name}
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("hello %s: %v", name, err)
	}
	var welcome protocol.WelcomeMsg
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("welcome %s: %v", name, err)
	}
	if welcome.Type != protocol.TypeWelcome || welcome.UserID == "" || welcome.SessionID == "" {
		t.Fatalf("welcome %s: got %+v", name, welcome)
	}
	return conn, welcome
}

func sendCmd(t *testing.T, conn *websocket.Conn, cmd string, to int, itemID string) {
	t.Helper()
	msg := protocol.CmdMsg{Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, Cmd: cmd, To: to, ItemID: itemID}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("send %s: %v", cmd, err)
	}
}

// waitEvent drains events until one with the given discriminant arrives.
func waitEvent(t *testing.T, conn *websocket.Conn, event string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		var ev map[string]any
		if err := json.Unmarshal(raw, &ev); err != nil {
			continue
		}
		if ev["type"] == protocol.TypeEvent && ev["event"] == event {
			return ev
		}
	}
	t.Fatalf("timeout waiting for %s", event)
	return nil
}

func TestTradeEndToEnd(t *testing.T) {
	ts := startServer(t)

	connA, welcomeA := dial(t, ts.url, "alice")
	connB, welcomeB := dial(t, ts.url, "bob")

	ts.repo.Put(items.Item{ID: "IA", TemplateID: "CHAIR_WOOD", Owner: welcomeA.UserID})
	ts.repo.Put(items.Item{ID: "IB", TemplateID: "TABLE_SMALL", Owner: welcomeB.UserID})

	sendCmd(t, connA, protocol.CmdTradeStart, welcomeB.RoomSlot, "")
	waitEvent(t, connA, protocol.EventTradeBox)
	waitEvent(t, connB, protocol.EventTradeBox)

	sendCmd(t, connA, protocol.CmdTradeOffer, 0, "IA")
	waitEvent(t, connA, protocol.EventTradeBox)
	waitEvent(t, connB, protocol.EventTradeBox)
	sendCmd(t, connB, protocol.CmdTradeOffer, 0, "IB")
	waitEvent(t, connB, protocol.EventTradeBox)
	waitEvent(t, connA, protocol.EventTradeBox)

	sendCmd(t, connA, protocol.CmdTradeAccept, 0, "")
	sendCmd(t, connB, protocol.CmdTradeAccept, 0, "")
	waitEvent(t, connA, protocol.EventHandRefresh)
	waitEvent(t, connB, protocol.EventHandRefresh)

	if owner, _ := ts.repo.OwnerOf("IA"); owner != welcomeB.UserID {
		t.Fatalf("IA owner: got %s want %s", owner, welcomeB.UserID)
	}
	if owner, _ := ts.repo.OwnerOf("IB"); owner != welcomeA.UserID {
		t.Fatalf("IB owner: got %s want %s", owner, welcomeA.UserID)
	}
}

func TestDisconnectAbortsTrade(t *testing.T) {
	ts := startServer(t)

	connA, _ := dial(t, ts.url, "alice")
	connB, welcomeB := dial(t, ts.url, "bob")

	sendCmd(t, connA, protocol.CmdTradeStart, welcomeB.RoomSlot, "")
	waitEvent(t, connB, protocol.EventTradeBox)

	_ = connA.Close()

	// Bob's session must be torn down, signalled by a hand refresh.
	waitEvent(t, connB, protocol.EventHandRefresh)

	bob, ok := ts.hotel.User(welcomeB.UserID)
	if !ok {
		t.Fatalf("bob gone")
	}
	if ts.h.SessionOf(bob) != nil {
		t.Fatalf("expected bob's session destroyed after partner disconnect")
	}
}

func TestHandshakeRejectsBadHello(t *testing.T) {
	ts := startServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(ts.url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"type": "CMD", "protocol_version": protocol.Version, "cmd": "TRADE_ACCEPT"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected close before WELCOME")
	}
}
