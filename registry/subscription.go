package registry

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pubnub/go/v7/cursor"
)

// Options carries the per-subscription flags spec.md §3 names (currently
// just presence). It is a value type so two Subscriptions can compare or
// copy their options freely.
type Options struct {
	ReceivePresenceEvents bool
}

// Subscription is a user-visible handle bound to one entity plus Options,
// per spec.md §3. It owns an Emitter and, once activated, participates in
// the Registry's aggregate Subscription Input.
type Subscription struct {
	id       string
	registry *Registry
	kind     EntityKind
	entityID string
	opts     Options
	emitter  *Emitter

	mu       sync.Mutex
	active   bool
	cursorAt *cursor.Cursor
}

// ID returns this subscription's unique id.
func (s *Subscription) ID() string { return s.id }

// Emitter returns the typed event streams this subscription feeds.
func (s *Subscription) Emitter() *Emitter { return s.emitter }

// Subscribe activates the subscription, retaining its entity's count and
// triggering Registry recomputation. A nil at means "no specific cursor" —
// SubscriptionChanged is posted rather than SubscriptionRestored.
func (s *Subscription) Subscribe(at *cursor.Cursor) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.cursorAt = at
	s.mu.Unlock()
	s.registry.activate(s)
}

// Unsubscribe deactivates the subscription: releases its entity's count,
// invalidates its Emitter, and triggers Registry recomputation. It is the
// Go stand-in for the source's "drop the last clone" trigger — idempotent,
// safe to call from any goroutine and more than once.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()
	s.registry.deactivate(s)
	s.emitter.invalidate()
}

// SubscriptionSet is a union of Subscriptions: subscribing/unsubscribing
// the set subscribes/unsubscribes every member, per spec.md §3.
type SubscriptionSet struct {
	registry *Registry
	mu       sync.Mutex
	members  map[string]*Subscription
}

// NewSubscriptionSet builds an empty set bound to the same Registry the
// member Subscriptions will come from.
func (r *Registry) NewSubscriptionSet() *SubscriptionSet {
	return &SubscriptionSet{registry: r, members: make(map[string]*Subscription)}
}

// Add adds sub to the set ("+=" in spec.md §3).
func (set *SubscriptionSet) Add(sub *Subscription) {
	set.mu.Lock()
	defer set.mu.Unlock()
	set.members[sub.id] = sub
}

// Remove removes sub from the set ("-=" in spec.md §3); it does not
// unsubscribe sub, only detaches it from this set.
func (set *SubscriptionSet) Remove(sub *Subscription) {
	set.mu.Lock()
	defer set.mu.Unlock()
	delete(set.members, sub.id)
}

// CloneEmpty returns a new, empty SubscriptionSet bound to the same Registry.
func (set *SubscriptionSet) CloneEmpty() *SubscriptionSet {
	return set.registry.NewSubscriptionSet()
}

// Members returns the current member Subscriptions.
func (set *SubscriptionSet) Members() []*Subscription {
	set.mu.Lock()
	defer set.mu.Unlock()
	out := make([]*Subscription, 0, len(set.members))
	for _, sub := range set.members {
		out = append(out, sub)
	}
	return out
}

// Subscribe activates every member subscription.
func (set *SubscriptionSet) Subscribe(at *cursor.Cursor) {
	for _, sub := range set.Members() {
		sub.Subscribe(at)
	}
}

// Unsubscribe deactivates every member subscription.
func (set *SubscriptionSet) Unsubscribe() {
	for _, sub := range set.Members() {
		sub.Unsubscribe()
	}
}

func newSubscriptionID() string { return uuid.NewString() }
