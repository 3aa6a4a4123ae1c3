// Package dispatcher implements the Effect Dispatcher (spec.md §4.4): it
// takes the invocations either engine produces, resolves each to a runnable
// Effect, tracks the long-running ("managed") ones in a live-effects table
// keyed by kind, and feeds whatever events the effect produces back to the
// engine that asked for it. It is generic over the invocation and event
// types so both the Subscribe and Presence engines share one
// implementation, mirroring `internal/grpc_bridge.go`'s id-keyed
// subscriber map generalized from one concrete channel type to any effect
// kind.
package dispatcher

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pubnub/go/v7/pnruntime"
)

// Invocation is anything an engine can hand the dispatcher. Managed
// invocations are tracked for cancellation; EffectKind groups invocations
// that share a cancellation slot (e.g. every handshake variant shares
// "handshake"); CancelTarget identifies a Cancel* invocation and names the
// kind it targets.
type Invocation interface {
	Managed() bool
	EffectKind() string
	CancelTarget() (kind string, ok bool)
}

// Effect is the unit of work an invocation resolves to. It must observe
// ctx and return promptly (with no events) once ctx is cancelled — per
// spec.md §4.4 step 5, a cancelled effect resolves to an empty event list,
// never a failure event.
type Effect[E any] func(ctx context.Context) []E

// Resolver maps an invocation to the effect that carries it out. A nil
// return means the invocation needs no effect (e.g. one already fully
// handled by the caller before reaching the dispatcher).
type Resolver[I Invocation, E any] func(inv I) Effect[E]

type liveEffect struct {
	id     string
	cancel context.CancelFunc
}

// Dispatcher runs effect invocations produced by one engine. It is
// single-writer with respect to invocation handling (spec.md §5): callers
// must call Dispatch from one goroutine at a time, though the effects
// themselves run concurrently on the runtime.
type Dispatcher[I Invocation, E any] struct {
	resolve Resolver[I, E]
	runtime pnruntime.Runtime
	emit    func(E)

	mu   sync.Mutex
	live map[string]*liveEffect
}

// New constructs a Dispatcher. emit is called once per event an effect
// produces, and must not block for long — it is invoked from the effect's
// own goroutine.
func New[I Invocation, E any](resolve Resolver[I, E], runtime pnruntime.Runtime, emit func(E)) *Dispatcher[I, E] {
	if runtime == nil {
		runtime = pnruntime.Goroutine{}
	}
	return &Dispatcher[I, E]{
		resolve: resolve,
		runtime: runtime,
		emit:    emit,
		live:    make(map[string]*liveEffect),
	}
}

// Dispatch handles a single invocation: cancelling a live managed effect,
// or resolving and running a new one.
func (d *Dispatcher[I, E]) Dispatch(inv I) {
	if kind, ok := inv.CancelTarget(); ok {
		d.cancel(kind)
		return
	}

	effect := d.resolve(inv)
	if effect == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	managed := inv.Managed()
	id := uuid.NewString()
	if managed {
		d.register(inv.EffectKind(), id, cancel)
	}

	d.runtime.Spawn(func() {
		events := effect(ctx)
		if managed {
			d.unregister(inv.EffectKind(), id)
		}
		if ctx.Err() != nil {
			// Cancelled: resolve to no events, per spec.md §4.4 step 5.
			return
		}
		for _, ev := range events {
			d.emit(ev)
		}
	})
}

// Terminate cancels every live managed effect and drains the live-effects
// table, implementing the dispatcher's TerminateEventEngine invocation
// (spec.md §4.4 step 6).
func (d *Dispatcher[I, E]) Terminate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for kind, le := range d.live {
		le.cancel()
		delete(d.live, kind)
	}
}

func (d *Dispatcher[I, E]) register(kind, id string, cancel context.CancelFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.live[kind] = &liveEffect{id: id, cancel: cancel}
}

// unregister removes the live-effect entry only if it still belongs to the
// effect that is finishing — a superseding effect of the same kind may
// already have replaced it (e.g. a cancelled handshake racing a brand new
// one started right after).
func (d *Dispatcher[I, E]) unregister(kind, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if le, ok := d.live[kind]; ok && le.id == id {
		delete(d.live, kind)
	}
}

func (d *Dispatcher[I, E]) cancel(kind string) {
	d.mu.Lock()
	le, ok := d.live[kind]
	if ok {
		delete(d.live, kind)
	}
	d.mu.Unlock()
	if ok {
		le.cancel()
	}
}
