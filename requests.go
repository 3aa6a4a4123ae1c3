package pubnub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pubnub/go/v7/cursor"
	"github.com/pubnub/go/v7/retrypolicy"
	"github.com/pubnub/go/v7/subscriptioninput"
	"github.com/pubnub/go/v7/transport"
	"github.com/pubnub/go/v7/wire"
)

// transportCallError wraps a transport-level failure or a non-2xx response
// with the detail retrypolicy.Outcome needs to judge it (status code,
// Retry-After), so every call site builds an Outcome the same way instead
// of re-deriving it from a bare error.
type transportCallError struct {
	statusCode    int
	retryAfter    time.Duration
	hasRetryAfter bool
	err           error
}

func (e *transportCallError) Error() string { return e.err.Error() }
func (e *transportCallError) Unwrap() error { return e.err }

func outcomeFromErr(err error) retrypolicy.Outcome {
	var tce *transportCallError
	if errors.As(err, &tce) {
		return retrypolicy.Outcome{
			StatusCode:    tce.statusCode,
			RetryAfter:    tce.retryAfter,
			HasRetryAfter: tce.hasRetryAfter,
			Err:           err,
		}
	}
	return retrypolicy.Outcome{Err: err}
}

func parseRetryAfter(h http.Header) (time.Duration, bool) {
	raw := strings.TrimSpace(h.Get("Retry-After"))
	if raw == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

func channelPathSegment(channels []string) string {
	if len(channels) == 0 {
		return "-"
	}
	return strings.Join(channels, ",")
}

// baseQuery seeds every outgoing request with the client identification
// fields original_source/pubnub-core/src/data/request.rs always attaches.
func (p *PubNub) baseQuery() url.Values {
	q := url.Values{}
	q.Set("uuid", p.config.UserID)
	q.Set("pnsdk", p.config.pnsdk())
	if p.config.AuthToken != "" {
		q.Set("auth", p.config.AuthToken)
	}
	return q
}

// sendJSON executes one request and, on a 2xx response, deserializes the
// body into target (when non-nil). Both transport errors and non-2xx
// responses come back wrapped in a *transportCallError.
func (p *PubNub) sendJSON(ctx context.Context, method, path string, query url.Values, timeout time.Duration, target interface{}) error {
	req := transport.Request{
		Method:  method,
		URL:     p.config.Origin + path,
		Query:   query,
		Timeout: timeout,
	}
	resp, err := p.config.Transport.Send(ctx, req)
	if err != nil {
		return &transportCallError{err: newError(ErrTransport, "request failed", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryAfter, hasRetryAfter := parseRetryAfter(resp.Header)
		apiErr := newError(ErrAPI, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
		apiErr.StatusCode = resp.StatusCode
		return &transportCallError{
			statusCode:    resp.StatusCode,
			retryAfter:    retryAfter,
			hasRetryAfter: hasRetryAfter,
			err:           apiErr,
		}
	}
	if target != nil {
		if err := p.config.Deserializer.Deserialize(resp.Body, target); err != nil {
			return newError(ErrDeserialization, "decode response", err)
		}
	}
	return nil
}

// doSubscribeRequest performs one subscribe long-poll cycle per spec.md
// §4.6, returning the decoded cursor and updates.
func (p *PubNub) doSubscribeRequest(ctx context.Context, input subscriptioninput.Input, cur cursor.Cursor) (wire.SubscribeResponse, error) {
	query := cur.ToQuery()
	req := wire.SubscribeRequest{
		SubscribeKey:     p.config.SubscribeKey,
		Channels:         input.Channels(),
		ChannelGroups:    input.Groups(),
		Timetoken:        query.Timetoken,
		Region:           query.Region,
		HeartbeatSeconds: p.config.HeartbeatValue,
		FilterExpr:       p.config.FilterExpression,
	}
	q := req.Query()
	mergeQuery(q, p.baseQuery())

	var resp wire.SubscribeResponse
	if err := p.sendJSON(ctx, http.MethodGet, req.Path(), q, p.config.SubscribeRequestTimeout, &resp); err != nil {
		return wire.SubscribeResponse{}, err
	}
	return resp, nil
}

// doHeartbeatRequest performs one presence heartbeat call per spec.md §4.6,
// attaching per-channel state for the channels named in input.
func (p *PubNub) doHeartbeatRequest(ctx context.Context, input subscriptioninput.Input) error {
	channels := input.Channels()
	req := wire.HeartbeatRequest{
		SubscribeKey:     p.config.SubscribeKey,
		Channels:         channels,
		ChannelGroups:    input.Groups(),
		HeartbeatSeconds: p.config.HeartbeatValue,
		State:            p.stateFor(channels),
	}
	q := req.Query()
	mergeQuery(q, p.baseQuery())
	return p.sendJSON(ctx, http.MethodGet, req.Path(), q, p.config.RequestTimeout, nil)
}

// doLeaveRequest performs one presence leave call per spec.md §4.6.
func (p *PubNub) doLeaveRequest(ctx context.Context, input subscriptioninput.Input) error {
	req := wire.LeaveRequest{
		SubscribeKey:  p.config.SubscribeKey,
		Channels:      input.Channels(),
		ChannelGroups: input.Groups(),
	}
	q := req.Query()
	mergeQuery(q, p.baseQuery())
	return p.sendJSON(ctx, http.MethodGet, req.Path(), q, p.config.RequestTimeout, nil)
}
