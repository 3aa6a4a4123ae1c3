package presenceengine

import "github.com/pubnub/go/v7/subscriptioninput"

// Transition is the presence engine's entire behavior. Like
// subscribeengine.Transition, it never blocks and never touches the
// network.
func Transition(s State, e Event) (State, []Invocation) {
	switch e.Kind {
	case LeftAll:
		if s.Kind == Inactive {
			return s, nil
		}
		return transitionToInactive(s)
	case Joined:
		return transitionOnJoined(s, e)
	case Left:
		return transitionOnLeft(s, e)
	case Disconnect:
		return transitionToStopped(s)
	case Reconnect:
		return transitionToReconnect(s)
	}

	switch s.Kind {
	case Heartbeating:
		return transitionFromHeartbeating(s, e)
	case HeartbeatCooldown:
		return transitionFromCooldown(s, e)
	case HeartbeatReconnecting:
		return transitionFromReconnecting(s, e)
	default:
		return s, nil
	}
}

func transitionOnJoined(s State, e Event) (State, []Invocation) {
	merged := s.Input.Union(e.InputDelta)
	if s.Kind == Inactive {
		next := State{Kind: Heartbeating, Input: merged}
		return next, []Invocation{{Kind: InvokeHeartbeat, Input: next.Input}}
	}
	// Active: merge the delta and restart the heartbeat immediately,
	// cancelling whatever cooldown/backoff was pending (spec.md §4.3:
	// "issue Heartbeat{new_input} immediately (reset cooldown)").
	invocations := cancelCurrentEffect(s)
	next := State{Kind: Heartbeating, Input: merged}
	invocations = append(invocations, Invocation{Kind: InvokeHeartbeat, Input: next.Input})
	return next, invocations
}

func transitionOnLeft(s State, e Event) (State, []Invocation) {
	remaining := s.Input.Difference(e.InputDelta)
	invocations := []Invocation{{Kind: InvokeLeave, Input: e.InputDelta}}
	if remaining.IsEmpty() {
		// The Leave for the departing delta was already issued above; going
		// Inactive only needs the pending Wait/DelayedHeartbeat cancelled.
		invocations = append(invocations, cancelCurrentEffect(s)...)
		return State{Kind: Inactive, Input: subscriptioninput.Empty}, invocations
	}
	cancel := cancelCurrentEffect(s)
	invocations = append(invocations, cancel...)
	next := State{Kind: Heartbeating, Input: remaining}
	invocations = append(invocations, Invocation{Kind: InvokeHeartbeat, Input: next.Input})
	return next, invocations
}

func transitionFromHeartbeating(s State, e Event) (State, []Invocation) {
	switch e.Kind {
	case HeartbeatSuccess:
		next := State{Kind: HeartbeatCooldown, Input: s.Input}
		return next, []Invocation{{Kind: InvokeWait, Input: next.Input}}
	case HeartbeatFailure:
		next := State{Kind: HeartbeatReconnecting, Input: s.Input, Attempts: 1, Reason: e.Reason}
		return next, []Invocation{{Kind: InvokeDelayedHeartbeat, Input: next.Input, Attempts: 1, Reason: e.Reason}}
	default:
		return s, nil
	}
}

func transitionFromCooldown(s State, e Event) (State, []Invocation) {
	switch e.Kind {
	case TimesUp:
		next := State{Kind: Heartbeating, Input: s.Input}
		return next, []Invocation{{Kind: InvokeHeartbeat, Input: next.Input}}
	default:
		return s, nil
	}
}

func transitionFromReconnecting(s State, e Event) (State, []Invocation) {
	switch e.Kind {
	case HeartbeatSuccess:
		next := State{Kind: HeartbeatCooldown, Input: s.Input}
		return next, []Invocation{{Kind: InvokeWait, Input: next.Input}}
	case HeartbeatFailure:
		next := State{Kind: HeartbeatReconnecting, Input: s.Input, Attempts: s.Attempts + 1, Reason: e.Reason}
		return next, []Invocation{{Kind: InvokeDelayedHeartbeat, Input: next.Input, Attempts: next.Attempts, Reason: e.Reason}}
	case HeartbeatGiveUp:
		next := State{Kind: HeartbeatFailed, Input: s.Input, Reason: e.Reason}
		return next, nil
	default:
		return s, nil
	}
}

func transitionToInactive(s State) (State, []Invocation) {
	invocations := cancelCurrentEffect(s)
	invocations = append(invocations, Invocation{Kind: InvokeLeave, Input: s.Input})
	return State{Kind: Inactive, Input: subscriptioninput.Empty}, invocations
}

func transitionToStopped(s State) (State, []Invocation) {
	if s.Kind == Inactive {
		return s, nil
	}
	invocations := cancelCurrentEffect(s)
	next := State{Kind: HeartbeatStopped, Input: s.Input}
	return next, invocations
}

func transitionToReconnect(s State) (State, []Invocation) {
	switch s.Kind {
	case HeartbeatStopped, HeartbeatFailed:
		next := State{Kind: Heartbeating, Input: s.Input}
		return next, []Invocation{{Kind: InvokeHeartbeat, Input: next.Input}}
	default:
		return s, nil
	}
}

func cancelCurrentEffect(s State) []Invocation {
	switch s.Kind {
	case HeartbeatCooldown:
		return []Invocation{{Kind: InvokeCancelWait}}
	case HeartbeatReconnecting:
		return []Invocation{{Kind: InvokeCancelDelayedHeartbeat}}
	default:
		return nil
	}
}
