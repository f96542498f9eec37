package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/hotel"
	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/protocol"
	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/trade"
)

type Options struct {
	DefaultRoom  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	OutQueue     int
	FurniDigest  string
}

func (o *Options) applyDefaults() {
	if o.DefaultRoom == "" {
		o.DefaultRoom = "lobby"
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 60 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.OutQueue <= 0 {
		o.OutQueue = 32
	}
}

type Server struct {
	hotel *hotel.Hotel
	trade *trade.Handler
	opts  Options
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(h *hotel.Hotel, tr *trade.Handler, opts Options, logger *log.Logger) *Server {
	opts.applyDefaults()
	return &Server{
		hotel: h,
		trade: tr,
		opts:  opts,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		user := s.handshake(conn)
		if user == nil {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-user.Out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop: each connection's commands apply in arrival order.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			if base.Type != protocol.TypeCmd {
				continue
			}
			var cmd protocol.CmdMsg
			if err := json.Unmarshal(msg, &cmd); err != nil {
				continue
			}
			if cmd.ProtocolVersion != protocol.Version {
				continue
			}
			if !s.trade.Handle(protocol.Command{Tag: cmd.Cmd, To: cmd.To, ItemID: cmd.ItemID}, user) {
				// Not a trade command; no other handlers are registered yet.
				continue
			}
		}

		// Cleanup: a dropped connection counts as a departure.
		s.hotel.Disconnect(user)
	}
}

func (s *Server) handshake(conn *websocket.Conn) *hotel.User {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}
	name := strings.TrimSpace(hello.UserName)
	if name == "" {
		name = "guest"
	}
	room := strings.TrimSpace(hello.Room)
	if room == "" {
		room = s.opts.DefaultRoom
	}

	user := s.hotel.Connect(name, s.opts.OutQueue)
	slot := s.hotel.EnterRoom(user, room)

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		UserID:          user.ID,
		SessionID:       user.SessionID,
		Room:            room,
		RoomSlot:        slot,
		FurniDigest:     s.opts.FurniDigest,
	}
	if err := writeJSON(conn, s.opts.WriteTimeout, welcome); err != nil {
		s.hotel.Disconnect(user)
		return nil
	}
	return user
}

func writeJSON(conn *websocket.Conn, timeout time.Duration, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
