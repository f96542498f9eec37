package hotel

import (
	"encoding/json"

	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/protocol"
)

// Notify pushes refresh/status events onto user connections.
type Notify struct{}

func (Notify) TradeBoxRefresh(u *User) { push(u, protocol.EventTradeBox, "") }
func (Notify) HandRefresh(u *User)     { push(u, protocol.EventHandRefresh, "") }
func (Notify) Message(u *User, key string) {
	push(u, protocol.EventNotice, key)
}

func push(u *User, event, key string) {
	ev := protocol.Event{"type": protocol.TypeEvent, "event": event}
	if key != "" {
		ev["key"] = key
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	u.Send(b)
}
