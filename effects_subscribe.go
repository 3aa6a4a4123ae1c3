package pubnub

import (
	"context"

	"github.com/pubnub/go/v7/cursor"
	"github.com/pubnub/go/v7/dispatcher"
	"github.com/pubnub/go/v7/pnlog"
	"github.com/pubnub/go/v7/retrypolicy"
	"github.com/pubnub/go/v7/subscribeengine"
	"github.com/pubnub/go/v7/subscriptioninput"
)

// resolveSubscribeInvocation is the dispatcher.Resolver for the Subscribe
// Event Engine (spec.md §4.2/§4.4). Handshake/HandshakeReconnect are
// one-shot: each invocation makes exactly one request and reports success
// or failure. Receive/ReceiveReconnect are different: the engine's
// ReceiveSuccess/ReceiveReconnectSuccess transitions do not re-issue a new
// Receive invocation (see subscribeengine/engine.go), so the effect itself
// must keep polling and emitting ReceiveSuccess events directly through the
// captured postSubscribeEvent closure for as long as the long-poll stays
// healthy; returning from the Effect function only ends the managed
// effect's lifetime in the dispatcher's live-effects table.
func (p *PubNub) resolveSubscribeInvocation(inv subscribeengine.Invocation) dispatcher.Effect[subscribeengine.Event] {
	switch inv.Kind {
	case subscribeengine.InvokeHandshake:
		return p.handshakeEffect(inv)
	case subscribeengine.InvokeHandshakeReconnect:
		return p.handshakeReconnectEffect(inv)
	case subscribeengine.InvokeReceive:
		return p.receiveEffect(inv)
	case subscribeengine.InvokeReceiveReconnect:
		return p.receiveReconnectEffect(inv)
	case subscribeengine.InvokeEmitStatus:
		// Run inline on the engine loop rather than as a spawned effect:
		// §5 guarantees Connected is delivered before the first
		// EmitMessages of that connection, and inline execution preserves
		// the engine's invocation order exactly.
		p.notifyListeners(StatusEvent{Status: Status(inv.Status), Reason: inv.Reason})
		return nil
	case subscribeengine.InvokeEmitMessages:
		p.reg.Dispatch(inv.Cursor, inv.Messages)
		return nil
	default:
		// InvokeCancelHandshake/InvokeCancelReceive are intercepted by the
		// dispatcher via CancelTarget before resolve is ever called.
		return nil
	}
}

func (p *PubNub) handshakeEffect(inv subscribeengine.Invocation) func(context.Context) []subscribeengine.Event {
	return func(ctx context.Context) []subscribeengine.Event {
		resp, err := p.doSubscribeRequest(ctx, inv.Input, cursor.Zero)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			p.postSubscribeEvent(subscribeengine.Event{Kind: subscribeengine.HandshakeFailure, Reason: err})
			return nil
		}
		c := cursor.FromTimetokenRegion(resp.Cursor.Timetoken, resp.Cursor.Region)
		p.postSubscribeEvent(subscribeengine.Event{Kind: subscribeengine.HandshakeSuccess, Cursor: c})
		return nil
	}
}

func (p *PubNub) handshakeReconnectEffect(inv subscribeengine.Invocation) func(context.Context) []subscribeengine.Event {
	return func(ctx context.Context) []subscribeengine.Event {
		if !p.awaitRetry(ctx, retrypolicy.EndpointSubscribe, inv.Attempts, inv.Reason) {
			if ctx.Err() != nil {
				return nil
			}
			p.postSubscribeEvent(subscribeengine.Event{Kind: subscribeengine.HandshakeReconnectGiveUp, Reason: inv.Reason})
			return nil
		}
		resp, err := p.doSubscribeRequest(ctx, inv.Input, cursor.Zero)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			p.postSubscribeEvent(subscribeengine.Event{Kind: subscribeengine.HandshakeReconnectFailure, Reason: err})
			return nil
		}
		c := cursor.FromTimetokenRegion(resp.Cursor.Timetoken, resp.Cursor.Region)
		p.postSubscribeEvent(subscribeengine.Event{Kind: subscribeengine.HandshakeReconnectSuccess, Cursor: c})
		return nil
	}
}

func (p *PubNub) receiveEffect(inv subscribeengine.Invocation) func(context.Context) []subscribeengine.Event {
	return func(ctx context.Context) []subscribeengine.Event {
		p.subscribeLoop(ctx, inv.Input, inv.Cursor)
		return nil
	}
}

func (p *PubNub) receiveReconnectEffect(inv subscribeengine.Invocation) func(context.Context) []subscribeengine.Event {
	return func(ctx context.Context) []subscribeengine.Event {
		if !p.awaitRetry(ctx, retrypolicy.EndpointSubscribe, inv.Attempts, inv.Reason) {
			if ctx.Err() != nil {
				return nil
			}
			p.postSubscribeEvent(subscribeengine.Event{Kind: subscribeengine.ReceiveReconnectGiveUp, Reason: inv.Reason})
			return nil
		}
		resp, err := p.doSubscribeRequest(ctx, inv.Input, inv.Cursor)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			p.postSubscribeEvent(subscribeengine.Event{Kind: subscribeengine.ReceiveReconnectFailure, Reason: err})
			return nil
		}
		c := cursor.FromTimetokenRegion(resp.Cursor.Timetoken, resp.Cursor.Region)
		p.postSubscribeEvent(subscribeengine.Event{Kind: subscribeengine.ReceiveReconnectSuccess, Cursor: c, Messages: resp.Messages})
		// The reconnect succeeded: from the engine's point of view we are
		// back in Receiving, so this same managed effect now continues as
		// an ordinary receive loop rather than waiting to be re-invoked.
		p.subscribeLoop(ctx, inv.Input, c)
		return nil
	}
}

// subscribeLoop repeatedly long-polls starting at cur, posting
// ReceiveSuccess after each successful cycle and ReceiveFailure (then
// returning) on the first error. It powers both InvokeReceive and the
// continuation after a successful InvokeReceiveReconnect.
func (p *PubNub) subscribeLoop(ctx context.Context, input subscriptioninput.Input, cur cursor.Cursor) {
	for {
		resp, err := p.doSubscribeRequest(ctx, input, cur)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			p.postSubscribeEvent(subscribeengine.Event{Kind: subscribeengine.ReceiveFailure, Reason: err})
			return
		}
		next := cursor.FromTimetokenRegion(resp.Cursor.Timetoken, resp.Cursor.Region)
		if cur.After(next) {
			// Timetokens are non-decreasing within one receive session; a
			// regression means the server handed us a stale cursor.
			p.logger.Warn("subscribe cursor moved backwards",
				pnlog.String("from", cur.Timetoken), pnlog.String("to", next.Timetoken))
		}
		cur = next
		p.postSubscribeEvent(subscribeengine.Event{Kind: subscribeengine.ReceiveSuccess, Cursor: cur, Messages: resp.Messages})
	}
}

// awaitRetry consults the configured retry policy and sleeps for the
// resulting delay, returning false if the policy says to give up or the
// sleep was cancelled.
func (p *PubNub) awaitRetry(ctx context.Context, endpoint retrypolicy.Endpoint, attempt int, reason error) bool {
	delay, ok := p.config.RetryPolicy.RetryDelay(endpoint, attempt, outcomeFromErr(reason))
	if !ok {
		return false
	}
	if err := p.config.Runtime.Sleep(ctx, delay); err != nil {
		return false
	}
	return true
}
