package presenceengine

import "github.com/pubnub/go/v7/subscriptioninput"

// InvocationKind enumerates the effects the presence engine can ask the
// dispatcher to run or cancel, per spec.md §4.3.
type InvocationKind int

const (
	InvokeHeartbeat InvocationKind = iota
	InvokeDelayedHeartbeat
	InvokeCancelDelayedHeartbeat
	InvokeLeave
	InvokeWait
	InvokeCancelWait
)

// Invocation is one effect the dispatcher must run or cancel.
type Invocation struct {
	Kind     InvocationKind
	Input    subscriptioninput.Input
	Attempts int
	Reason   error
}

// Managed reports whether this invocation names a long-running effect the
// dispatcher must track for cancellation (spec.md §4.4): DelayedHeartbeat
// and Wait are managed, the immediate Heartbeat and Leave calls are not.
func (inv Invocation) Managed() bool {
	switch inv.Kind {
	case InvokeDelayedHeartbeat, InvokeWait:
		return true
	default:
		return false
	}
}

// EffectKind groups invocations that compete for the same live-effect slot.
func (inv Invocation) EffectKind() string {
	switch inv.Kind {
	case InvokeHeartbeat, InvokeDelayedHeartbeat, InvokeCancelDelayedHeartbeat:
		return "heartbeat"
	case InvokeWait, InvokeCancelWait:
		return "wait"
	case InvokeLeave:
		return "leave"
	default:
		return ""
	}
}

// CancelTarget reports the effect kind this invocation cancels, if it is a
// cancelling invocation at all.
func (inv Invocation) CancelTarget() (string, bool) {
	switch inv.Kind {
	case InvokeCancelDelayedHeartbeat:
		return "heartbeat", true
	case InvokeCancelWait:
		return "wait", true
	default:
		return "", false
	}
}
