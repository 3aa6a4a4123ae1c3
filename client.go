package pubnub

import (
	"context"
	"sync"

	"github.com/pubnub/go/v7/dispatcher"
	"github.com/pubnub/go/v7/pnlog"
	"github.com/pubnub/go/v7/presenceengine"
	"github.com/pubnub/go/v7/registry"
	"github.com/pubnub/go/v7/subscribeengine"
)

// Status is the connectivity status surfaced to StatusListener callbacks,
// mirroring subscribeengine.Status.
type Status int

const (
	StatusConnected Status = iota
	StatusDisconnected
	StatusConnectionError
)

func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	case StatusConnectionError:
		return "connection_error"
	default:
		return "unknown"
	}
}

// StatusEvent is delivered to every registered StatusListener whenever the
// Subscribe Event Engine issues EmitStatus (spec.md §4.2).
type StatusEvent struct {
	Status Status
	Reason error
}

// StatusListener receives connectivity status changes.
type StatusListener func(StatusEvent)

// PubNub is the client handle: entity constructors, one-shot calls, and the
// Subscribe/Presence event engines driving the real-time stream, per
// spec.md §2.
type PubNub struct {
	config *Config
	logger *pnlog.Logger
	reg    *registry.Registry

	subMu       sync.Mutex
	subState    subscribeengine.State
	subEvents   chan subscribeengine.Event
	subDispatch *dispatcher.Dispatcher[subscribeengine.Invocation, subscribeengine.Event]

	presMu       sync.Mutex
	presState    presenceengine.State
	presEvents   chan presenceengine.Event
	presDispatch *dispatcher.Dispatcher[presenceengine.Invocation, presenceengine.Event]

	listenersMu sync.Mutex
	listeners   []StatusListener

	stateMu sync.RWMutex
	state   map[string]interface{}

	closeOnce sync.Once
	done      chan struct{}
}

// NewPubNub builds a client from config, wiring the Registry and the two
// event engines and starting their driving goroutines. The caller owns
// config; NewPubNub does not mutate it after construction.
func NewPubNub(config *Config) (*PubNub, error) {
	if config == nil {
		return nil, configError("config is required")
	}
	if config.SubscribeKey == "" {
		return nil, configError("subscribe key is required")
	}
	config.applyDefaults()

	p := &PubNub{
		config:     config,
		logger:     config.Logger,
		subState:   subscribeengine.Initial(),
		subEvents:  make(chan subscribeengine.Event, 64),
		presState:  presenceengine.Initial(),
		presEvents: make(chan presenceengine.Event, 64),
		state:      make(map[string]interface{}),
		done:       make(chan struct{}),
	}

	p.reg = registry.New(registry.Sink{
		PostSubscribe: p.postSubscribeEvent,
		PostPresence:  p.postPresenceEvent,
	}, config.CryptoModule)

	p.subDispatch = dispatcher.New(p.resolveSubscribeInvocation, config.Runtime, p.postSubscribeEvent)
	p.presDispatch = dispatcher.New(p.resolvePresenceInvocation, config.Runtime, p.postPresenceEvent)

	config.Runtime.Spawn(p.runSubscribeLoop)
	config.Runtime.Spawn(p.runPresenceLoop)

	return p, nil
}

func (p *PubNub) runSubscribeLoop() {
	for {
		select {
		case <-p.done:
			p.subDispatch.Terminate()
			return
		case ev := <-p.subEvents:
			p.subMu.Lock()
			next, invocations := subscribeengine.Transition(p.subState, ev)
			p.subState = next
			p.subMu.Unlock()
			for _, inv := range invocations {
				p.subDispatch.Dispatch(inv)
			}
		}
	}
}

func (p *PubNub) runPresenceLoop() {
	for {
		select {
		case <-p.done:
			p.presDispatch.Terminate()
			return
		case ev := <-p.presEvents:
			p.presMu.Lock()
			next, invocations := presenceengine.Transition(p.presState, ev)
			p.presState = next
			p.presMu.Unlock()
			for _, inv := range invocations {
				p.presDispatch.Dispatch(inv)
			}
		}
	}
}

// postSubscribeEvent feeds ev onto the subscribe engine's single-writer
// event channel; it is used both as the dispatcher's post-effect emit
// callback and as the direct-emit hook long-running effects call from
// inside their own poll loop (see effects_subscribe.go).
func (p *PubNub) postSubscribeEvent(ev subscribeengine.Event) {
	select {
	case p.subEvents <- ev:
	case <-p.done:
	}
}

func (p *PubNub) postPresenceEvent(ev presenceengine.Event) {
	select {
	case p.presEvents <- ev:
	case <-p.done:
	}
}

// Channel builds a Channel entity, validating any trailing wildcard pattern.
func (p *PubNub) Channel(name string) (*registry.Entity, error) { return p.reg.Channel(name) }

// ChannelGroup builds a ChannelGroup entity.
func (p *PubNub) ChannelGroup(name string) *registry.Entity { return p.reg.ChannelGroup(name) }

// ChannelMetadata builds a ChannelMetadata entity.
func (p *PubNub) ChannelMetadata(id string) *registry.Entity { return p.reg.ChannelMetadata(id) }

// UserMetadata builds a UserMetadata entity.
func (p *PubNub) UserMetadata(id string) *registry.Entity { return p.reg.UserMetadata(id) }

// NewSubscriptionSet builds an empty SubscriptionSet bound to this client.
func (p *PubNub) NewSubscriptionSet() *registry.SubscriptionSet { return p.reg.NewSubscriptionSet() }

// AddListener registers a StatusListener and returns a function that
// removes it.
func (p *PubNub) AddListener(l StatusListener) func() {
	p.listenersMu.Lock()
	p.listeners = append(p.listeners, l)
	idx := len(p.listeners) - 1
	p.listenersMu.Unlock()

	return func() {
		p.listenersMu.Lock()
		defer p.listenersMu.Unlock()
		if idx < len(p.listeners) {
			p.listeners[idx] = nil
		}
	}
}

func (p *PubNub) notifyListeners(ev StatusEvent) {
	p.listenersMu.Lock()
	listeners := append([]StatusListener(nil), p.listeners...)
	p.listenersMu.Unlock()
	for _, l := range listeners {
		if l != nil {
			l(ev)
		}
	}
}

// Disconnect stops the subscribe and presence engines without forgetting
// the current Subscription Input, per spec.md §4.2's Disconnect transition.
func (p *PubNub) Disconnect() {
	p.postSubscribeEvent(subscribeengine.Event{Kind: subscribeengine.Disconnect})
	p.postPresenceEvent(presenceengine.Event{Kind: presenceengine.Disconnect})
}

// Reconnect resumes the subscribe and presence engines from a *Stopped or
// *Failed state, preserving whatever cursor was last stored.
func (p *PubNub) Reconnect() {
	p.postSubscribeEvent(subscribeengine.Event{Kind: subscribeengine.Reconnect})
	p.postPresenceEvent(presenceengine.Event{Kind: presenceengine.Reconnect})
}

// UnsubscribeAll returns both engines to their initial, inactive state. It
// does not unsubscribe the Registry's subscriptions: their emitters stay
// open and their entities remain part of the aggregate input the next time
// it is recomputed.
func (p *PubNub) UnsubscribeAll() {
	p.postSubscribeEvent(subscribeengine.Event{Kind: subscribeengine.UnsubscribeAll})
	p.postPresenceEvent(presenceengine.Event{Kind: presenceengine.LeftAll})
}

// Close stops the driving goroutines and cancels any outstanding managed
// effect. The client must not be used afterward.
func (p *PubNub) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// SetState replaces the locally cached per-channel presence state used on
// the next heartbeat and pushes it to the network immediately via the
// set-state endpoint (spec.md §4.7 supplemented feature).
func (p *PubNub) SetState(ctx context.Context, channels []string, value interface{}) error {
	p.stateMu.Lock()
	for _, ch := range channels {
		p.state[ch] = value
	}
	p.stateMu.Unlock()
	return p.setStateRemote(ctx, channels, value)
}

// stateFor returns the cached per-channel state for the given channels, or
// nil when there is none to attach; wire.HeartbeatRequest renders it as the
// heartbeat call's JSON "state" query value.
func (p *PubNub) stateFor(channels []string) map[string]interface{} {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	if len(p.state) == 0 {
		return nil
	}
	perChannel := make(map[string]interface{}, len(channels))
	for _, ch := range channels {
		if v, ok := p.state[ch]; ok {
			perChannel[ch] = v
		}
	}
	if len(perChannel) == 0 {
		return nil
	}
	return perChannel
}
