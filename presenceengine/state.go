// Package presenceengine implements the state machine that announces a
// user's presence (heartbeat/leave) on the current set of subscribed
// channels and groups, per spec.md §4.3. Like subscribeengine, it is a
// pure function from (state, event) to (state, []Invocation); the
// dispatcher package executes the invocations it returns.
package presenceengine

import "github.com/pubnub/go/v7/subscriptioninput"

// Kind enumerates the six presence states from spec.md §4.3.
type Kind int

const (
	Inactive Kind = iota
	Heartbeating
	HeartbeatCooldown
	HeartbeatReconnecting
	HeartbeatFailed
	HeartbeatStopped
)

func (k Kind) String() string {
	switch k {
	case Inactive:
		return "Inactive"
	case Heartbeating:
		return "Heartbeating"
	case HeartbeatCooldown:
		return "HeartbeatCooldown"
	case HeartbeatReconnecting:
		return "HeartbeatReconnecting"
	case HeartbeatFailed:
		return "HeartbeatFailed"
	case HeartbeatStopped:
		return "HeartbeatStopped"
	default:
		return "Unknown"
	}
}

// State is a value-typed snapshot of the presence engine.
type State struct {
	Kind     Kind
	Input    subscriptioninput.Input
	Attempts int
	Reason   error
}

// Initial is the engine's starting state: nothing announced yet.
func Initial() State {
	return State{Kind: Inactive, Input: subscriptioninput.Empty}
}
