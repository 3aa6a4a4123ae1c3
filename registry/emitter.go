package registry

// Emitter is the per-subscription fan-out target: six typed streams plus a
// combined "all" stream, per spec.md §4.5. invalidate() is called once when
// the owning Subscription is unsubscribed.
type Emitter struct {
	messages       *Stream[Event]
	signals        *Stream[Event]
	messageActions *Stream[Event]
	files          *Stream[Event]
	appContext     *Stream[Event]
	presence       *Stream[Event]
	all            *Stream[Event]
}

// newEmitter builds an Emitter with the default bounded-FIFO capacity.
func newEmitter() *Emitter {
	return &Emitter{
		messages:       newStream[Event](0),
		signals:        newStream[Event](0),
		messageActions: newStream[Event](0),
		files:          newStream[Event](0),
		appContext:     newStream[Event](0),
		presence:       newStream[Event](0),
		all:            newStream[Event](0),
	}
}

// Messages returns the message-only stream.
func (e *Emitter) Messages() *Stream[Event] { return e.messages }

// Signals returns the signal-only stream.
func (e *Emitter) Signals() *Stream[Event] { return e.signals }

// MessageActions returns the message-action-only stream.
func (e *Emitter) MessageActions() *Stream[Event] { return e.messageActions }

// Files returns the file-event-only stream.
func (e *Emitter) Files() *Stream[Event] { return e.files }

// AppContext returns the app-context (channel/user metadata) stream.
func (e *Emitter) AppContext() *Stream[Event] { return e.appContext }

// Presence returns the presence-event-only stream.
func (e *Emitter) Presence() *Stream[Event] { return e.presence }

// All returns the combined stream carrying every event kind.
func (e *Emitter) All() *Stream[Event] { return e.all }

// push delivers ev to its matching typed stream and to the combined stream.
func (e *Emitter) push(ev Event) {
	switch ev.Kind {
	case EventMessage:
		e.messages.push(ev)
	case EventSignal:
		e.signals.push(ev)
	case EventMessageAction:
		e.messageActions.push(ev)
	case EventFile:
		e.files.push(ev)
	case EventAppContext:
		e.appContext.push(ev)
	case EventPresence:
		e.presence.push(ev)
	}
	e.all.push(ev)
}

// invalidate closes every stream, waking any parked reader exactly once.
func (e *Emitter) invalidate() {
	e.messages.invalidate()
	e.signals.invalidate()
	e.messageActions.invalidate()
	e.files.invalidate()
	e.appContext.invalidate()
	e.presence.invalidate()
	e.all.invalidate()
}
