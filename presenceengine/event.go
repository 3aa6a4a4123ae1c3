package presenceengine

import "github.com/pubnub/go/v7/subscriptioninput"

// EventKind enumerates every event the presence engine accepts.
type EventKind int

const (
	Joined EventKind = iota
	Left
	LeftAll
	HeartbeatSuccess
	HeartbeatFailure
	HeartbeatGiveUp
	TimesUp
	Reconnect
	Disconnect
)

// Event is the tagged union driving Transition. InputDelta carries the
// channel/group delta for Joined/Left; it is ignored for other kinds.
type Event struct {
	Kind       EventKind
	InputDelta subscriptioninput.Input
	Reason     error
}
