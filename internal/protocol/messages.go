package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	UserName        string `json:"user_name"`
	Room            string `json:"room,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	UserID          string `json:"user_id"`
	SessionID       string `json:"session_id"`
	Room            string `json:"room"`
	RoomSlot        int    `json:"room_slot"`
	FurniDigest     string `json:"furni_digest,omitempty"`
}

// CMD (client -> server): one decoded command.
type CmdMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Cmd             string `json:"cmd"`
	To              int    `json:"to,omitempty"`      // room-scoped slot of the target party (TRADE_START)
	ItemID          string `json:"item_id,omitempty"` // TRADE_OFFER
}

// Command is the dispatcher-decoded form handed to command handlers.
type Command struct {
	Tag    string
	To     int
	ItemID string
}

// Event is a generic server -> client event payload.
type Event map[string]any
