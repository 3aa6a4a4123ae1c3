package subscribeengine

import (
	"errors"
	"testing"

	"github.com/pubnub/go/v7/cursor"
	"github.com/pubnub/go/v7/subscriptioninput"
	"github.com/pubnub/go/v7/wire"
)

func mustKind(t *testing.T, s State, k Kind) {
	t.Helper()
	if s.Kind != k {
		t.Fatalf("expected state %s, got %s", k, s.Kind)
	}
}

func invocationKinds(invocations []Invocation) []InvocationKind {
	kinds := make([]InvocationKind, len(invocations))
	for i, inv := range invocations {
		kinds[i] = inv.Kind
	}
	return kinds
}

// Scenario 1: happy-path subscribe, spec.md §8.
func TestHappyPathSubscribe(t *testing.T) {
	s := Initial()
	input := subscriptioninput.New([]string{"test"}, nil)

	s, invocations := Transition(s, Event{Kind: SubscriptionChanged, Input: input})
	mustKind(t, s, Handshaking)
	if len(invocations) != 1 || invocations[0].Kind != InvokeHandshake {
		t.Fatalf("expected a single Handshake invocation, got %v", invocationKinds(invocations))
	}

	srvCursor := cursor.FromTimetokenRegion("15", 1)
	s, invocations = Transition(s, Event{Kind: HandshakeSuccess, Cursor: srvCursor})
	mustKind(t, s, Receiving)
	if got := invocationKinds(invocations); len(got) != 2 || got[0] != InvokeEmitStatus || got[1] != InvokeReceive {
		t.Fatalf("expected [EmitStatus, Receive], got %v", got)
	}
	if invocations[0].Status != StatusConnected {
		t.Fatalf("expected Connected status, got %v", invocations[0].Status)
	}

	firstMessages := []wire.Update{{Kind: int(wire.UpdatePublish), Channel: "test", Payload: "hi"}}
	s, invocations = Transition(s, Event{Kind: ReceiveSuccess, Cursor: cursor.FromTimetokenRegion("15", 1), Messages: firstMessages})
	mustKind(t, s, Receiving)
	if len(invocations) != 1 || invocations[0].Kind != InvokeEmitMessages {
		t.Fatalf("expected a single EmitMessages invocation, got %v", invocationKinds(invocations))
	}
	if invocations[0].Messages[0].Payload != "hi" {
		t.Fatalf("expected payload hi, got %v", invocations[0].Messages[0].Payload)
	}

	s, invocations = Transition(s, Event{Kind: ReceiveSuccess, Cursor: cursor.FromTimetokenRegion("16", 1), Messages: nil})
	mustKind(t, s, Receiving)
	if len(invocations) != 1 || invocations[0].Kind != InvokeEmitMessages || len(invocations[0].Messages) != 0 {
		t.Fatalf("expected a single empty EmitMessages invocation, got %v", invocations)
	}
	if s.Cursor == nil || s.Cursor.Timetoken != "16" {
		t.Fatalf("expected cursor to advance to 16, got %v", s.Cursor)
	}
}

// Scenario 2: handshake failure with linear retry, spec.md §8.
func TestHandshakeFailureWithLinearRetry(t *testing.T) {
	s := Initial()
	input := subscriptioninput.New([]string{"test"}, nil)
	s, _ = Transition(s, Event{Kind: SubscriptionChanged, Input: input})

	failReason := errors.New("server error 500")

	s, invocations := Transition(s, Event{Kind: HandshakeFailure, Reason: failReason})
	mustKind(t, s, HandshakeReconnecting)
	if s.Attempts != 1 {
		t.Fatalf("expected attempts=1, got %d", s.Attempts)
	}
	if len(invocations) != 1 || invocations[0].Kind != InvokeHandshakeReconnect || invocations[0].Attempts != 1 {
		t.Fatalf("expected HandshakeReconnect(attempts=1), got %v", invocations)
	}

	s, invocations = Transition(s, Event{Kind: HandshakeReconnectFailure, Reason: failReason})
	mustKind(t, s, HandshakeReconnecting)
	if s.Attempts != 2 {
		t.Fatalf("expected attempts=2, got %d", s.Attempts)
	}
	if invocations[0].Attempts != 2 {
		t.Fatalf("expected HandshakeReconnect(attempts=2), got %v", invocations)
	}

	srvCursor := cursor.FromTimetokenRegion("20", 1)
	s, invocations = Transition(s, Event{Kind: HandshakeReconnectSuccess, Cursor: srvCursor})
	mustKind(t, s, Receiving)
	if got := invocationKinds(invocations); len(got) != 2 || got[0] != InvokeEmitStatus || got[1] != InvokeReceive {
		t.Fatalf("expected [EmitStatus, Receive] on recovery, got %v", got)
	}
}

// Scenario 3: give-up after exhausting retries, spec.md §8.
func TestHandshakeGiveUp(t *testing.T) {
	s := Initial()
	input := subscriptioninput.New([]string{"test"}, nil)
	s, _ = Transition(s, Event{Kind: SubscriptionChanged, Input: input})

	failReason := errors.New("server error 500")
	s, _ = Transition(s, Event{Kind: HandshakeFailure, Reason: failReason})
	s, _ = Transition(s, Event{Kind: HandshakeReconnectFailure, Reason: failReason})
	if s.Attempts != 2 {
		t.Fatalf("expected attempts=2 before give-up, got %d", s.Attempts)
	}

	s, invocations := Transition(s, Event{Kind: HandshakeReconnectGiveUp, Reason: failReason})
	mustKind(t, s, HandshakeFailed)
	if len(invocations) != 1 || invocations[0].Kind != InvokeEmitStatus || invocations[0].Status != StatusConnectionError {
		t.Fatalf("expected EmitStatus(ConnectionError), got %v", invocations)
	}
}

// Scenario 4: subscription change during receive resumes at the preserved
// cursor rather than zero, spec.md §8.
func TestSubscriptionChangeDuringReceivePreservesCursor(t *testing.T) {
	s := State{Kind: Receiving, Input: subscriptioninput.New([]string{"a"}, nil), Cursor: ptrCursor(cursor.FromTimetoken("100")), connectedEmitted: true}

	newInput := subscriptioninput.New([]string{"a", "b"}, nil)
	s, invocations := Transition(s, Event{Kind: SubscriptionChanged, Input: newInput})
	mustKind(t, s, Handshaking)
	if s.Cursor == nil || s.Cursor.Timetoken != "100" {
		t.Fatalf("expected cursor to be preserved at 100, got %v", s.Cursor)
	}
	if got := invocationKinds(invocations); len(got) != 2 || got[0] != InvokeCancelReceive || got[1] != InvokeHandshake {
		t.Fatalf("expected [CancelReceive, Handshake], got %v", got)
	}
}

// Scenario 5: unsubscribe_all cancels an in-flight receive, spec.md §8.
func TestUnsubscribeAllCancelsInFlightReceive(t *testing.T) {
	s := State{Kind: Receiving, Input: subscriptioninput.New([]string{"a"}, nil), Cursor: ptrCursor(cursor.FromTimetoken("100")), connectedEmitted: true}

	s, invocations := Transition(s, Event{Kind: UnsubscribeAll})
	mustKind(t, s, Unsubscribed)
	if got := invocationKinds(invocations); len(got) != 2 || got[0] != InvokeCancelReceive || got[1] != InvokeEmitStatus {
		t.Fatalf("expected [CancelReceive, EmitStatus], got %v", got)
	}
	if invocations[1].Status != StatusDisconnected {
		t.Fatalf("expected Disconnected status, got %v", invocations[1].Status)
	}
}

func TestSubscriptionChangedNoOpWhenInputUnchanged(t *testing.T) {
	input := subscriptioninput.New([]string{"a"}, nil)
	s := State{Kind: Receiving, Input: input, Cursor: ptrCursor(cursor.FromTimetoken("1")), connectedEmitted: true}

	next, invocations := Transition(s, Event{Kind: SubscriptionChanged, Input: input})
	if len(invocations) != 0 {
		t.Fatalf("expected no invocations for unchanged input, got %v", invocations)
	}
	if next.Kind != Receiving {
		t.Fatalf("expected state to remain Receiving, got %s", next.Kind)
	}
}

func TestReconnectReturnsToHandshakingFromFailed(t *testing.T) {
	s := State{Kind: HandshakeFailed, Input: subscriptioninput.New([]string{"a"}, nil), Cursor: ptrCursor(cursor.FromTimetoken("5"))}
	next, invocations := Transition(s, Event{Kind: Reconnect})
	mustKind(t, next, Handshaking)
	if next.Cursor == nil || next.Cursor.Timetoken != "5" {
		t.Fatalf("expected preserved cursor 5, got %v", next.Cursor)
	}
	if len(invocations) != 1 || invocations[0].Kind != InvokeHandshake {
		t.Fatalf("expected single Handshake invocation, got %v", invocations)
	}
}

func TestReceiveGiveUpEntersFailedWithConnectionError(t *testing.T) {
	s := State{Kind: ReceiveReconnecting, Input: subscriptioninput.New([]string{"a"}, nil), Cursor: ptrCursor(cursor.FromTimetoken("5")), Attempts: 2, connectedEmitted: true}
	next, invocations := Transition(s, Event{Kind: ReceiveReconnectGiveUp, Reason: errors.New("gone")})
	mustKind(t, next, ReceiveFailed)
	if len(invocations) != 1 || invocations[0].Status != StatusConnectionError {
		t.Fatalf("expected ConnectionError status, got %v", invocations)
	}
}

// The re-handshake after a subscription change must resume from the
// preserved cursor, not the fresh one the server hands back (spec.md §4.2:
// cursor = stored_cursor.unwrap_or(srv_cursor)).
func TestHandshakeSuccessPrefersStoredCursor(t *testing.T) {
	s := State{Kind: Handshaking, Input: subscriptioninput.New([]string{"a", "b"}, nil), Cursor: ptrCursor(cursor.FromTimetoken("100"))}

	s, invocations := Transition(s, Event{Kind: HandshakeSuccess, Cursor: cursor.FromTimetokenRegion("999", 7)})
	mustKind(t, s, Receiving)
	if s.Cursor == nil || s.Cursor.Timetoken != "100" {
		t.Fatalf("expected stored timetoken 100 to win, got %v", s.Cursor)
	}
	if s.Cursor.Region != 7 {
		t.Fatalf("expected server region 7 to fill the unset region, got %d", s.Cursor.Region)
	}
	receive := invocations[len(invocations)-1]
	if receive.Kind != InvokeReceive || receive.Cursor.Timetoken != "100" {
		t.Fatalf("expected Receive at stored cursor 100, got %v", receive)
	}
}

func ptrCursor(c cursor.Cursor) *cursor.Cursor { return &c }
