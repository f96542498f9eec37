package protocol

import "encoding/json"

const Version = "1.1"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeCmd     = "CMD"
	TypeEvent   = "EVENT"
)

// Trade command tags carried in CMD messages. Tags outside this set are not
// part of the trade sub-protocol and are routed elsewhere by the dispatcher.
const (
	CmdTradeStart   = "TRADE_START"
	CmdTradeOffer   = "TRADE_OFFER"
	CmdTradeDecline = "TRADE_DECLINE"
	CmdTradeAccept  = "TRADE_ACCEPT"
	CmdTradeAbort   = "TRADE_ABORT"
)

// Server -> client event discriminants.
const (
	EventTradeBox    = "TRADE_BOX"
	EventHandRefresh = "HAND_REFRESH"
	EventNotice      = "NOTICE"
)

// Notice keys (localized client-side).
const (
	NoticeTradingDisabled = "trading_disabled"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
