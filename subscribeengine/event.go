package subscribeengine

import (
	"github.com/pubnub/go/v7/cursor"
	"github.com/pubnub/go/v7/subscriptioninput"
	"github.com/pubnub/go/v7/wire"
)

// EventKind enumerates every event the engine accepts, per spec.md §4.2.
type EventKind int

const (
	SubscriptionChanged EventKind = iota
	SubscriptionRestored
	HandshakeSuccess
	HandshakeFailure
	HandshakeReconnectSuccess
	HandshakeReconnectFailure
	HandshakeReconnectGiveUp
	ReceiveSuccess
	ReceiveFailure
	ReceiveReconnectSuccess
	ReceiveReconnectFailure
	ReceiveReconnectGiveUp
	Disconnect
	Reconnect
	UnsubscribeAll
)

// Event is the tagged union driving Transition. Only the fields relevant to
// Kind are populated; the rest are zero.
type Event struct {
	Kind     EventKind
	Input    subscriptioninput.Input
	Cursor   cursor.Cursor
	Messages []wire.Update
	Reason   error
}
