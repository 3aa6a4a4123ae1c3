package pubnub

import (
	"context"
	"time"

	"github.com/pubnub/go/v7/dispatcher"
	"github.com/pubnub/go/v7/pnlog"
	"github.com/pubnub/go/v7/presenceengine"
	"github.com/pubnub/go/v7/retrypolicy"
)

// resolvePresenceInvocation is the dispatcher.Resolver for the Presence
// Event Engine (spec.md §4.3). Unlike Receive, every presence effect is
// one-shot per invocation: the engine re-issues a fresh InvokeHeartbeat or
// InvokeWait itself on every TimesUp/HeartbeatSuccess, so none of these
// need to loop internally.
func (p *PubNub) resolvePresenceInvocation(inv presenceengine.Invocation) dispatcher.Effect[presenceengine.Event] {
	switch inv.Kind {
	case presenceengine.InvokeHeartbeat:
		return p.heartbeatEffect(inv)
	case presenceengine.InvokeDelayedHeartbeat:
		return p.delayedHeartbeatEffect(inv)
	case presenceengine.InvokeLeave:
		return p.leaveEffect(inv)
	case presenceengine.InvokeWait:
		return p.waitEffect(inv)
	default:
		// InvokeCancelDelayedHeartbeat/InvokeCancelWait are intercepted by
		// the dispatcher via CancelTarget before resolve is ever called.
		return nil
	}
}

func (p *PubNub) heartbeatEffect(inv presenceengine.Invocation) func(context.Context) []presenceengine.Event {
	return func(ctx context.Context) []presenceengine.Event {
		err := p.doHeartbeatRequest(ctx, inv.Input)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			p.postPresenceEvent(presenceengine.Event{Kind: presenceengine.HeartbeatFailure, Reason: err})
			return nil
		}
		p.postPresenceEvent(presenceengine.Event{Kind: presenceengine.HeartbeatSuccess})
		return nil
	}
}

func (p *PubNub) delayedHeartbeatEffect(inv presenceengine.Invocation) func(context.Context) []presenceengine.Event {
	return func(ctx context.Context) []presenceengine.Event {
		if !p.awaitRetry(ctx, retrypolicy.EndpointHeartbeat, inv.Attempts, inv.Reason) {
			if ctx.Err() != nil {
				return nil
			}
			p.postPresenceEvent(presenceengine.Event{Kind: presenceengine.HeartbeatGiveUp, Reason: inv.Reason})
			return nil
		}
		err := p.doHeartbeatRequest(ctx, inv.Input)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			p.postPresenceEvent(presenceengine.Event{Kind: presenceengine.HeartbeatFailure, Reason: err})
			return nil
		}
		p.postPresenceEvent(presenceengine.Event{Kind: presenceengine.HeartbeatSuccess})
		return nil
	}
}

// leaveEffect fires the leave call and swallows its result: the presence
// engine has no Leave*/Success/Failure event to report it to (spec.md
// §4.3's invocation list), so a failed leave is only worth logging.
func (p *PubNub) leaveEffect(inv presenceengine.Invocation) func(context.Context) []presenceengine.Event {
	return func(ctx context.Context) []presenceengine.Event {
		if err := p.doLeaveRequest(ctx, inv.Input); err != nil && ctx.Err() == nil {
			p.logger.Warn("presence leave failed", pnlog.Error(err))
		}
		return nil
	}
}

func (p *PubNub) waitEffect(inv presenceengine.Invocation) func(context.Context) []presenceengine.Event {
	return func(ctx context.Context) []presenceengine.Event {
		cooldown := time.Duration(p.config.HeartbeatInterval) * time.Second
		if err := p.config.Runtime.Sleep(ctx, cooldown); err != nil {
			return nil
		}
		p.postPresenceEvent(presenceengine.Event{Kind: presenceengine.TimesUp})
		return nil
	}
}
