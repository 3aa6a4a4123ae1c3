// Package subscribeengine implements the state machine that multiplexes all
// of an application's channel/group subscriptions onto a single long-poll
// connection, per spec.md §4.2. The engine itself is a pure function from
// (state, event) to (state, []Invocation) — it never touches the network;
// the dispatcher package executes the invocations it produces.
package subscribeengine

import (
	"github.com/pubnub/go/v7/cursor"
	"github.com/pubnub/go/v7/subscriptioninput"
)

// Kind enumerates the nine states from spec.md §4.2.
type Kind int

const (
	Unsubscribed Kind = iota
	Handshaking
	HandshakeReconnecting
	HandshakeFailed
	HandshakeStopped
	Receiving
	ReceiveReconnecting
	ReceiveFailed
	ReceiveStopped
)

func (k Kind) String() string {
	switch k {
	case Unsubscribed:
		return "Unsubscribed"
	case Handshaking:
		return "Handshaking"
	case HandshakeReconnecting:
		return "HandshakeReconnecting"
	case HandshakeFailed:
		return "HandshakeFailed"
	case HandshakeStopped:
		return "HandshakeStopped"
	case Receiving:
		return "Receiving"
	case ReceiveReconnecting:
		return "ReceiveReconnecting"
	case ReceiveFailed:
		return "ReceiveFailed"
	case ReceiveStopped:
		return "ReceiveStopped"
	default:
		return "Unknown"
	}
}

// State is a value-typed snapshot of the engine. Cursor is a pointer only
// to distinguish "no cursor stored yet" (nil, the handshake states' Option
// in spec.md) from the zero cursor (which is a meaningful value meaning
// "server, pick the head").
type State struct {
	Kind     Kind
	Input    subscriptioninput.Input
	Cursor   *cursor.Cursor
	Attempts int
	Reason   error
	// connectedEmitted tracks whether Connected has already been emitted
	// for the connection currently in progress, so re-entering Receiving
	// via a reconnect never double-emits it (spec.md §9 normalization).
	connectedEmitted bool
}

// Initial is the engine's starting state.
func Initial() State {
	return State{Kind: Unsubscribed, Input: subscriptioninput.Empty}
}
