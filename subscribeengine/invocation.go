package subscribeengine

import (
	"github.com/pubnub/go/v7/cursor"
	"github.com/pubnub/go/v7/subscriptioninput"
	"github.com/pubnub/go/v7/wire"
)

// InvocationKind enumerates the effects the engine can ask the dispatcher
// to run, per spec.md §4.2 and §4.4.
type InvocationKind int

const (
	InvokeHandshake InvocationKind = iota
	InvokeHandshakeReconnect
	InvokeCancelHandshake
	InvokeReceive
	InvokeReceiveReconnect
	InvokeCancelReceive
	InvokeEmitStatus
	InvokeEmitMessages
)

// Status is the connectivity status reported through InvokeEmitStatus.
type Status int

const (
	StatusConnected Status = iota
	StatusDisconnected
	StatusConnectionError
)

// Invocation is one effect the dispatcher must run or cancel. Only the
// fields relevant to Kind are populated.
type Invocation struct {
	Kind     InvocationKind
	Input    subscriptioninput.Input
	Cursor   cursor.Cursor
	Attempts int
	Reason   error
	Status   Status
	Messages []wire.Update
}

// Managed reports whether this invocation names a long-running effect the
// dispatcher must track for cancellation (spec.md §4.4).
func (inv Invocation) Managed() bool {
	switch inv.Kind {
	case InvokeHandshake, InvokeHandshakeReconnect, InvokeReceive, InvokeReceiveReconnect:
		return true
	default:
		return false
	}
}

// EffectKind groups invocations that compete for the same live-effect slot:
// any handshake variant shares "handshake", any receive variant shares
// "receive". A later Cancel* invocation targets this same key.
func (inv Invocation) EffectKind() string {
	switch inv.Kind {
	case InvokeHandshake, InvokeHandshakeReconnect, InvokeCancelHandshake:
		return "handshake"
	case InvokeReceive, InvokeReceiveReconnect, InvokeCancelReceive:
		return "receive"
	default:
		return ""
	}
}

// CancelTarget reports the effect kind this invocation cancels, if it is a
// cancelling invocation at all.
func (inv Invocation) CancelTarget() (string, bool) {
	switch inv.Kind {
	case InvokeCancelHandshake:
		return "handshake", true
	case InvokeCancelReceive:
		return "receive", true
	default:
		return "", false
	}
}

func emitStatus(s Status, reason error) Invocation {
	return Invocation{Kind: InvokeEmitStatus, Status: s, Reason: reason}
}

func emitMessages(c cursor.Cursor, messages []wire.Update) Invocation {
	return Invocation{Kind: InvokeEmitMessages, Cursor: c, Messages: messages}
}
