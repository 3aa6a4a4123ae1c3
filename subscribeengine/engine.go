package subscribeengine

import (
	"github.com/pubnub/go/v7/cursor"
	"github.com/pubnub/go/v7/subscriptioninput"
)

// Transition is the engine's entire behavior: given the current state and
// an incoming event, it returns the next state and the effects the
// dispatcher must carry out. It never blocks and never touches the
// network — see the dispatcher package for that.
func Transition(s State, e Event) (State, []Invocation) {
	// Global rules that apply regardless of the current state.
	switch e.Kind {
	case UnsubscribeAll:
		return transitionToUnsubscribed(s)
	case SubscriptionChanged:
		if e.Input.Equal(s.Input) {
			return s, nil
		}
		if e.Input.IsEmpty() {
			return transitionToUnsubscribed(s)
		}
		return restartHandshake(s, e.Input, s.Cursor)
	case SubscriptionRestored:
		restored := e.Cursor
		if s.Kind == Unsubscribed {
			next := State{Kind: Handshaking, Input: e.Input, Cursor: &restored}
			return next, []Invocation{{Kind: InvokeHandshake, Input: next.Input}}
		}
		return restartHandshake(s, e.Input, &restored)
	case Disconnect:
		return transitionToStopped(s)
	case Reconnect:
		return transitionToReconnect(s)
	}

	switch s.Kind {
	case Handshaking:
		return transitionFromHandshaking(s, e)
	case HandshakeReconnecting:
		return transitionFromHandshakeReconnecting(s, e)
	case Receiving:
		return transitionFromReceiving(s, e)
	case ReceiveReconnecting:
		return transitionFromReceiveReconnecting(s, e)
	default:
		// Terminal states (Unsubscribed, *Failed, *Stopped) ignore any
		// event not already handled above.
		return s, nil
	}
}

func transitionFromHandshaking(s State, e Event) (State, []Invocation) {
	switch e.Kind {
	case HandshakeSuccess:
		return enterReceiving(s, mergeStoredCursor(s.Cursor, e.Cursor))
	case HandshakeFailure:
		next := State{Kind: HandshakeReconnecting, Input: s.Input, Cursor: s.Cursor, Attempts: 1, Reason: e.Reason}
		return next, []Invocation{{Kind: InvokeHandshakeReconnect, Input: next.Input, Attempts: 1, Reason: e.Reason}}
	default:
		return s, nil
	}
}

func transitionFromHandshakeReconnecting(s State, e Event) (State, []Invocation) {
	switch e.Kind {
	case HandshakeReconnectSuccess:
		return enterReceiving(s, mergeStoredCursor(s.Cursor, e.Cursor))
	case HandshakeReconnectFailure:
		next := State{Kind: HandshakeReconnecting, Input: s.Input, Cursor: s.Cursor, Attempts: s.Attempts + 1, Reason: e.Reason}
		return next, []Invocation{{Kind: InvokeHandshakeReconnect, Input: next.Input, Attempts: next.Attempts, Reason: e.Reason}}
	case HandshakeReconnectGiveUp:
		next := State{Kind: HandshakeFailed, Input: s.Input, Cursor: s.Cursor, Reason: e.Reason}
		return next, []Invocation{emitStatus(StatusConnectionError, e.Reason)}
	default:
		return s, nil
	}
}

func transitionFromReceiving(s State, e Event) (State, []Invocation) {
	switch e.Kind {
	case ReceiveSuccess:
		next := State{Kind: Receiving, Input: s.Input, Cursor: &e.Cursor, connectedEmitted: true}
		return next, []Invocation{emitMessages(e.Cursor, e.Messages)}
	case ReceiveFailure:
		next := State{Kind: ReceiveReconnecting, Input: s.Input, Cursor: s.Cursor, Attempts: 1, Reason: e.Reason, connectedEmitted: s.connectedEmitted}
		return next, []Invocation{{Kind: InvokeReceiveReconnect, Input: next.Input, Cursor: derefCursor(next.Cursor), Attempts: 1, Reason: e.Reason}}
	default:
		return s, nil
	}
}

func transitionFromReceiveReconnecting(s State, e Event) (State, []Invocation) {
	switch e.Kind {
	case ReceiveReconnectSuccess:
		next := State{Kind: Receiving, Input: s.Input, Cursor: &e.Cursor, connectedEmitted: true}
		return next, []Invocation{emitMessages(e.Cursor, e.Messages)}
	case ReceiveReconnectFailure:
		next := State{Kind: ReceiveReconnecting, Input: s.Input, Cursor: s.Cursor, Attempts: s.Attempts + 1, Reason: e.Reason, connectedEmitted: s.connectedEmitted}
		return next, []Invocation{{Kind: InvokeReceiveReconnect, Input: next.Input, Cursor: derefCursor(next.Cursor), Attempts: next.Attempts, Reason: e.Reason}}
	case ReceiveReconnectGiveUp:
		next := State{Kind: ReceiveFailed, Input: s.Input, Cursor: s.Cursor, Reason: e.Reason}
		// spec.md §4.2 names EmitStatus(Disconnected) here while §7's
		// error-handling section states both give-up paths converge on
		// ConnectionError; we follow §7 since it is the more specific
		// authority on user-visible failure status (see DESIGN.md).
		return next, []Invocation{emitStatus(StatusConnectionError, e.Reason)}
	default:
		return s, nil
	}
}

// enterReceiving builds the common "we now have a usable cursor, move to
// Receiving" transition shared by handshake success and handshake-reconnect
// success. Connected is emitted only the first time a connection is
// established; a reconnect that lands back in Receiving after having
// already emitted Connected for this connection does not re-emit it.
func enterReceiving(s State, c cursor.Cursor) (State, []Invocation) {
	next := State{Kind: Receiving, Input: s.Input, Cursor: &c, connectedEmitted: true}
	invocations := []Invocation{{Kind: InvokeReceive, Input: next.Input, Cursor: c}}
	if !s.connectedEmitted {
		invocations = append([]Invocation{emitStatus(StatusConnected, nil)}, invocations...)
	}
	return next, invocations
}

// mergeStoredCursor implements the handshake cursor merge rule shared by
// HandshakeSuccess and HandshakeReconnectSuccess: the stored timetoken
// always wins when a stored cursor exists at all, and the stored cursor's
// region wins unless it was never set, in which case the server's region
// fills the gap.
func mergeStoredCursor(stored *cursor.Cursor, server cursor.Cursor) cursor.Cursor {
	if stored == nil {
		return server
	}
	if stored.Region == 0 {
		return cursor.FromTimetokenRegion(stored.Timetoken, server.Region)
	}
	return *stored
}

func transitionToUnsubscribed(s State) (State, []Invocation) {
	invocations := cancelCurrentEffect(s)
	invocations = append(invocations, emitStatus(StatusDisconnected, nil))
	return State{Kind: Unsubscribed, Input: subscriptioninput.Empty}, invocations
}

func transitionToStopped(s State) (State, []Invocation) {
	invocations := cancelCurrentEffect(s)
	var next State
	switch s.Kind {
	case Handshaking, HandshakeReconnecting:
		next = State{Kind: HandshakeStopped, Input: s.Input, Cursor: s.Cursor}
	case Receiving, ReceiveReconnecting:
		next = State{Kind: ReceiveStopped, Input: s.Input, Cursor: s.Cursor}
	default:
		return s, nil
	}
	invocations = append(invocations, emitStatus(StatusDisconnected, nil))
	return next, invocations
}

func transitionToReconnect(s State) (State, []Invocation) {
	switch s.Kind {
	case HandshakeStopped, HandshakeFailed, ReceiveStopped, ReceiveFailed:
		next := State{Kind: Handshaking, Input: s.Input, Cursor: s.Cursor}
		return next, []Invocation{{Kind: InvokeHandshake, Input: next.Input}}
	default:
		return s, nil
	}
}

// restartHandshake cancels whatever effect is currently in flight and
// begins a fresh handshake with a (possibly) new input and cursor. Used by
// both live SubscriptionChanged and SubscriptionRestored events.
func restartHandshake(s State, input subscriptioninput.Input, cursorPtr *cursor.Cursor) (State, []Invocation) {
	if s.Kind == Unsubscribed {
		next := State{Kind: Handshaking, Input: input, Cursor: cursorPtr}
		return next, []Invocation{{Kind: InvokeHandshake, Input: next.Input}}
	}
	invocations := cancelCurrentEffect(s)
	next := State{Kind: Handshaking, Input: input, Cursor: cursorPtr}
	invocations = append(invocations, Invocation{Kind: InvokeHandshake, Input: next.Input})
	return next, invocations
}

func cancelCurrentEffect(s State) []Invocation {
	switch s.Kind {
	case Handshaking, HandshakeReconnecting:
		return []Invocation{{Kind: InvokeCancelHandshake}}
	case Receiving, ReceiveReconnecting:
		return []Invocation{{Kind: InvokeCancelReceive}}
	default:
		return nil
	}
}

func derefCursor(c *cursor.Cursor) cursor.Cursor {
	if c == nil {
		return cursor.Zero
	}
	return *c
}
