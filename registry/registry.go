package registry

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pubnub/go/v7/cursor"
	"github.com/pubnub/go/v7/pncrypto"
	"github.com/pubnub/go/v7/presenceengine"
	"github.com/pubnub/go/v7/subscribeengine"
	"github.com/pubnub/go/v7/subscriptioninput"
	"github.com/pubnub/go/v7/wire"
)

// Sink is how the Registry hands its recomputed state to the two engines.
// The root pubnub package supplies these as closures that push onto each
// engine's single-writer event channel (spec.md §4.5 step 2).
type Sink struct {
	PostSubscribe func(subscribeengine.Event)
	PostPresence  func(presenceengine.Event)
}

// Registry owns the live Subscriptions and Subscription Sets, entity
// bookkeeping, and event fan-out, per spec.md §4.5. Grounded on
// original_source/pubnub-core/src/subscription/registry.rs's name-keyed
// listener map, generalized from a single HashMap<String, MVec<T>> to four
// entity kinds and a richer recomputation step.
type Registry struct {
	sink   Sink
	crypto *pncrypto.Module

	mu     sync.RWMutex
	counts map[entityKey]*entityCount
	subs   map[string]*Subscription
}

// New builds a Registry that posts its recomputed state through sink.
// crypto may be nil (no cryptor_module configured).
func New(sink Sink, crypto *pncrypto.Module) *Registry {
	return &Registry{
		sink:   sink,
		crypto: crypto,
		counts: make(map[entityKey]*entityCount),
		subs:   make(map[string]*Subscription),
	}
}

func (r *Registry) countFor(kind EntityKind, id string) *entityCount {
	key := entityKey{kind: kind, id: id}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counts[key]
	if !ok {
		c = &entityCount{}
		r.counts[key] = c
	}
	return c
}

// Channel builds a Channel entity, validating any trailing wildcard
// pattern per spec.md §4.7.
func (r *Registry) Channel(name string) (*Entity, error) {
	if !validWildcard(name) {
		return nil, fmt.Errorf("registry: %q is not a valid channel name or wildcard pattern", name)
	}
	return &Entity{kind: EntityChannel, id: name, registry: r}, nil
}

// ChannelGroup builds a ChannelGroup entity.
func (r *Registry) ChannelGroup(name string) *Entity {
	return &Entity{kind: EntityChannelGroup, id: name, registry: r}
}

// ChannelMetadata builds a ChannelMetadata entity.
func (r *Registry) ChannelMetadata(id string) *Entity {
	return &Entity{kind: EntityChannelMetadata, id: id, registry: r}
}

// UserMetadata builds a UserMetadata entity.
func (r *Registry) UserMetadata(id string) *Entity {
	return &Entity{kind: EntityUserMetadata, id: id, registry: r}
}

func (r *Registry) newSubscription(kind EntityKind, id string, opts Options) *Subscription {
	return &Subscription{
		id:       newSubscriptionID(),
		registry: r,
		kind:     kind,
		entityID: id,
		opts:     opts,
		emitter:  newEmitter(),
	}
}

func (r *Registry) activate(s *Subscription) {
	r.mu.Lock()
	r.subs[s.id] = s
	r.mu.Unlock()

	r.countFor(s.kind, s.entityID).retain()
	r.postSubscribeEngine(s.cursorAt)

	if delta := deltaFor(s); !delta.IsEmpty() {
		r.sink.PostPresence(presenceengine.Event{Kind: presenceengine.Joined, InputDelta: delta})
	}
}

func (r *Registry) deactivate(s *Subscription) {
	r.mu.Lock()
	delete(r.subs, s.id)
	r.mu.Unlock()

	r.countFor(s.kind, s.entityID).release()

	if delta := deltaFor(s); !delta.IsEmpty() {
		r.sink.PostPresence(presenceengine.Event{Kind: presenceengine.Left, InputDelta: delta})
	}
	r.postSubscribeEngine(nil)
}

func deltaFor(s *Subscription) subscriptioninput.Input {
	switch s.kind {
	case EntityChannel:
		return subscriptioninput.New([]string{s.entityID}, nil)
	case EntityChannelGroup:
		return subscriptioninput.New(nil, []string{s.entityID})
	default:
		return subscriptioninput.Empty
	}
}

func (r *Registry) postSubscribeEngine(restoreCursor *cursor.Cursor) {
	input := r.recomputeInput()
	if restoreCursor != nil {
		r.sink.PostSubscribe(subscribeengine.Event{
			Kind:   subscribeengine.SubscriptionRestored,
			Input:  input,
			Cursor: *restoreCursor,
		})
		return
	}
	r.sink.PostSubscribe(subscribeengine.Event{Kind: subscribeengine.SubscriptionChanged, Input: input})
}

// recomputeInput rebuilds the aggregate Subscription Input as the union of
// names for entities whose subscriptions_count > 0 — by construction every
// Subscription in r.subs is active and therefore already retaining its
// entity, so iterating r.subs directly satisfies that invariant (spec.md
// §8). The "-pnpres" synthesis happens here, at the Registry level only,
// per the canonical rule spec.md §9 resolves (never at the entity level).
func (r *Registry) recomputeInput() subscriptioninput.Input {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var channels, groups []string
	for _, s := range r.subs {
		switch s.kind {
		case EntityChannel:
			channels = append(channels, s.entityID)
			if s.opts.ReceivePresenceEvents {
				channels = append(channels, s.entityID+subscriptioninput.PresenceSuffix)
			}
		case EntityChannelGroup:
			groups = append(groups, s.entityID)
		case EntityChannelMetadata, EntityUserMetadata:
			channels = append(channels, s.entityID)
		}
	}
	return subscriptioninput.New(channels, groups)
}

// Dispatch implements the EmitMessages handling side of spec.md §4.5: every
// decoded update is matched against every live subscription and pushed to
// the matching Emitters.
func (r *Registry) Dispatch(c cursor.Cursor, updates []wire.Update) {
	r.mu.RLock()
	subs := make([]*Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		subs = append(subs, s)
	}
	r.mu.RUnlock()

	for _, u := range updates {
		ev := fromUpdate(c, u, isPresenceChannel)
		r.decrypt(&ev)
		for _, s := range subs {
			if matches(s, u) {
				s.emitter.push(ev)
			}
		}
	}
}

func isPresenceChannel(channel string) bool {
	return strings.HasSuffix(channel, subscriptioninput.PresenceSuffix)
}

// matches implements the per-kind routing rules of spec.md §4.5.
func matches(s *Subscription, u wire.Update) bool {
	switch s.kind {
	case EntityChannel:
		return u.Channel == s.entityID || u.Channel == s.entityID+subscriptioninput.PresenceSuffix
	case EntityChannelGroup:
		return u.Subscription == s.entityID
	case EntityChannelMetadata, EntityUserMetadata:
		return u.Channel == s.entityID
	default:
		return false
	}
}

// decrypt applies the configured cryptor_module to message/signal/file
// payloads. A bad or undecryptable payload attaches DecryptionError to the
// event rather than interrupting the stream, per spec.md §7.
func (r *Registry) decrypt(ev *Event) {
	if r.crypto == nil {
		return
	}
	switch ev.Kind {
	case EventMessage, EventSignal, EventFile:
	default:
		return
	}
	raw, ok := ev.Payload.(string)
	if !ok {
		return
	}
	encrypted, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		ev.DecryptionError = err
		return
	}
	plain, err := r.crypto.Decrypt(encrypted)
	if err != nil {
		ev.DecryptionError = err
		return
	}
	var decoded interface{}
	if err := json.Unmarshal(plain, &decoded); err != nil {
		ev.Payload = string(plain)
		return
	}
	ev.Payload = decoded
}
