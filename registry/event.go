package registry

import (
	"github.com/pubnub/go/v7/cursor"
	"github.com/pubnub/go/v7/wire"
)

// EventKind discriminates the six typed streams an Emitter exposes.
type EventKind int

const (
	EventMessage EventKind = iota
	EventSignal
	EventMessageAction
	EventFile
	EventAppContext
	EventPresence
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventSignal:
		return "signal"
	case EventMessageAction:
		return "message_action"
	case EventFile:
		return "file"
	case EventAppContext:
		return "app_context"
	case EventPresence:
		return "presence"
	default:
		return "unknown"
	}
}

// Event is one decoded subscribe update handed to a listener, carrying
// enough of wire.Update to let a caller act on it without reaching back
// into the wire package.
type Event struct {
	Kind            EventKind
	Channel         string
	Subscription    string
	Cursor          cursor.Cursor
	Payload         interface{}
	UserMeta        interface{}
	Issuer          string
	// DecryptionError is set when a cryptor_module was configured and
	// failed to decrypt Payload; per spec.md §7 the stream is not
	// interrupted by one bad message, the failure travels with the event.
	DecryptionError error
}

// fromUpdate classifies a wire.Update into a registry Event, per spec.md
// §4.5/§4.6. A channel name ending in the presence suffix is always a
// presence event regardless of its "e" discriminant — that is how the
// network actually distinguishes presence traffic from the same subscribe
// stream as ordinary messages (there is no one reserved "e" value for it).
func fromUpdate(c cursor.Cursor, u wire.Update, presenceSuffix func(string) bool) Event {
	kind := EventMessage
	switch {
	case presenceSuffix(u.Channel):
		kind = EventPresence
	case wire.UpdateKind(u.Kind) == wire.UpdateSignal:
		kind = EventSignal
	case wire.UpdateKind(u.Kind) == wire.UpdateAppContext:
		kind = EventAppContext
	case wire.UpdateKind(u.Kind) == wire.UpdateMessageAction:
		kind = EventMessageAction
	case wire.UpdateKind(u.Kind) == wire.UpdateFile:
		kind = EventFile
	case wire.UpdateKind(u.Kind) == wire.UpdatePublish:
		kind = EventMessage
	default:
		// Unrecognized "e" value (wire.Unknown): still delivered, just on
		// the message/all streams rather than dropped, so a
		// forward-compatible server addition never silently vanishes.
		kind = EventMessage
	}

	return Event{
		Kind:         kind,
		Channel:      u.Channel,
		Subscription: u.Subscription,
		Cursor:       c,
		Payload:      u.Payload,
		UserMeta:     u.UserMeta,
		Issuer:       u.Issuer,
	}
}
