package pubnub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pubnub/go/v7/pncrypto"
	"github.com/pubnub/go/v7/registry"
	"github.com/pubnub/go/v7/transport"
)

// scriptedTransport serves the subscribe/presence wire contract from canned
// bodies keyed on the request, standing in for the network in end-to-end
// tests. The final long-poll blocks until its context is cancelled, like a
// real subscribe call with nothing to deliver.
type scriptedTransport struct {
	mu       sync.Mutex
	requests []transport.Request
}

func okResponse(body string) transport.Response {
	return transport.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: []byte(body)}
}

func (f *scriptedTransport) Send(ctx context.Context, req transport.Request) (transport.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	switch {
	case strings.Contains(req.URL, "/heartbeat"), strings.Contains(req.URL, "/leave"):
		return okResponse(`{"status":200}`), nil
	case strings.Contains(req.URL, "/v2/subscribe/"):
		switch req.Query.Get("tt") {
		case "0":
			return okResponse(`{"t":{"t":"15","r":1},"m":[]}`), nil
		case "15":
			return okResponse(`{"t":{"t":"16","r":1},"m":[{"e":0,"c":"test","d":"hi","p":{"t":"16","r":1},"k":"demo"}]}`), nil
		default:
			<-ctx.Done()
			return transport.Response{}, ctx.Err()
		}
	default:
		return okResponse(`{}`), nil
	}
}

func (f *scriptedTransport) sent() []transport.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transport.Request(nil), f.requests...)
}

// Scenario 1 + scenario 5 from spec.md §8, end to end: subscribe to "test",
// observe Connected then the delivered message, then unsubscribe everything
// and observe a Disconnected status.
func TestSubscribeDeliversMessagesEndToEnd(t *testing.T) {
	ft := &scriptedTransport{}
	cfg := NewConfig("demo", WithUserID("user-1"), WithTransport(ft))
	p, err := NewPubNub(cfg)
	if err != nil {
		t.Fatalf("NewPubNub: %v", err)
	}
	defer p.Close()

	statuses := make(chan StatusEvent, 8)
	p.AddListener(func(ev StatusEvent) { statuses <- ev })

	ch, err := p.Channel("test")
	if err != nil {
		t.Fatalf("Channel: %v", err)
	}
	sub := ch.Subscribe(registry.Options{})
	sub.Subscribe(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	select {
	case ev := <-statuses:
		if ev.Status != StatusConnected {
			t.Fatalf("expected first status Connected, got %v", ev.Status)
		}
	case <-ctx.Done():
		t.Fatal("never saw Connected status")
	}

	msg, ok := sub.Emitter().Messages().Next(ctx)
	if !ok {
		t.Fatal("message stream closed before delivering anything")
	}
	if msg.Channel != "test" || msg.Payload != "hi" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.Cursor.Timetoken != "16" {
		t.Fatalf("expected message cursor 16, got %q", msg.Cursor.Timetoken)
	}

	p.UnsubscribeAll()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-statuses:
			if ev.Status == StatusDisconnected {
				return
			}
		case <-deadline:
			t.Fatal("never saw Disconnected status after UnsubscribeAll")
		}
	}
}

func TestSubscribeRequestCarriesIdentification(t *testing.T) {
	ft := &scriptedTransport{}
	cfg := NewConfig("demo", WithUserID("user-1"), WithAuthToken("tok"), WithTransport(ft))
	p, err := NewPubNub(cfg)
	if err != nil {
		t.Fatalf("NewPubNub: %v", err)
	}
	defer p.Close()

	ch, _ := p.Channel("test")
	sub := ch.Subscribe(registry.Options{})
	sub.Subscribe(nil)

	deadline := time.After(5 * time.Second)
	for {
		var subscribeReq *transport.Request
		for _, req := range ft.sent() {
			if strings.Contains(req.URL, "/v2/subscribe/demo/test/0") {
				r := req
				subscribeReq = &r
				break
			}
		}
		if subscribeReq != nil {
			if got := subscribeReq.Query.Get("uuid"); got != "user-1" {
				t.Fatalf("uuid not attached, got %q", got)
			}
			if got := subscribeReq.Query.Get("pnsdk"); !strings.HasPrefix(got, "PubNub-Go/") {
				t.Fatalf("pnsdk not attached, got %q", got)
			}
			if got := subscribeReq.Query.Get("auth"); got != "tok" {
				t.Fatalf("auth token not attached, got %q", got)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("no subscribe request observed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// captureTransport records one request and replies with a fixed body.
type captureTransport struct {
	mu   sync.Mutex
	last transport.Request
	body string
}

func (c *captureTransport) Send(ctx context.Context, req transport.Request) (transport.Response, error) {
	c.mu.Lock()
	c.last = req
	c.mu.Unlock()
	return okResponse(c.body), nil
}

func TestPublishEncryptsPayload(t *testing.T) {
	primary, err := pncrypto.NewAESCBCCryptor("cipher-key")
	if err != nil {
		t.Fatalf("NewAESCBCCryptor: %v", err)
	}
	module, err := pncrypto.NewModule(primary)
	if err != nil {
		t.Fatalf("NewModule: %v", err)
	}

	ct := &captureTransport{body: `[1,"Sent","17000000000000000"]`}
	cfg := NewConfig("demo",
		WithUserID("user-1"),
		WithPublishKey("pub"),
		WithCryptoModule(module),
		WithTransport(ct))
	p, err := NewPubNub(cfg)
	if err != nil {
		t.Fatalf("NewPubNub: %v", err)
	}
	defer p.Close()

	tt, err := p.Publish(context.Background(), "room", map[string]string{"text": "secret"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if tt != "17000000000000000" {
		t.Fatalf("unexpected timetoken %q", tt)
	}

	ct.mu.Lock()
	sentURL := ct.last.URL
	ct.mu.Unlock()
	segments := strings.Split(sentURL, "/")
	escaped := segments[len(segments)-1]
	rawBody, err := url.PathUnescape(escaped)
	if err != nil {
		t.Fatalf("unescape payload segment: %v", err)
	}
	var b64 string
	if err := json.Unmarshal([]byte(rawBody), &b64); err != nil {
		t.Fatalf("encrypted payload must be a JSON string, got %q: %v", rawBody, err)
	}
	envelope, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("decode base64 envelope: %v", err)
	}
	plain, err := module.Decrypt(envelope)
	if err != nil {
		t.Fatalf("decrypt published payload: %v", err)
	}
	var decoded map[string]string
	if err := json.Unmarshal(plain, &decoded); err != nil {
		t.Fatalf("decode plaintext: %v", err)
	}
	if decoded["text"] != "secret" {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestPublishRequiresPublishKey(t *testing.T) {
	cfg := NewConfig("demo", WithUserID("u"), WithTransport(&captureTransport{body: `[1,"Sent","1"]`}))
	p, err := NewPubNub(cfg)
	if err != nil {
		t.Fatalf("NewPubNub: %v", err)
	}
	defer p.Close()

	_, err = p.Publish(context.Background(), "room", "hello")
	var pnErr *Error
	if !errors.As(err, &pnErr) || pnErr.Kind != ErrConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewPubNubRequiresSubscribeKey(t *testing.T) {
	if _, err := NewPubNub(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := NewPubNub(&Config{}); err == nil {
		t.Fatal("expected error for missing subscribe key")
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig("sub")
	if cfg.HeartbeatValue != 300 {
		t.Fatalf("default heartbeat value: %d", cfg.HeartbeatValue)
	}
	if cfg.HeartbeatInterval != 149 {
		t.Fatalf("default heartbeat interval: %d", cfg.HeartbeatInterval)
	}
	if cfg.SubscribeRequestTimeout != 310*time.Second {
		t.Fatalf("default subscribe timeout: %v", cfg.SubscribeRequestTimeout)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("default request timeout: %v", cfg.RequestTimeout)
	}
	if cfg.UserID == "" {
		t.Fatal("expected a generated user id")
	}
	if cfg.Transport == nil || cfg.Deserializer == nil || cfg.Runtime == nil || cfg.Logger == nil {
		t.Fatal("expected every collaborator default to be filled in")
	}
}

// errorTransport fails every call with the given status.
type errorTransport struct {
	status     int
	retryAfter string
}

func (e *errorTransport) Send(ctx context.Context, req transport.Request) (transport.Response, error) {
	h := http.Header{}
	if e.retryAfter != "" {
		h.Set("Retry-After", e.retryAfter)
	}
	return transport.Response{StatusCode: e.status, Header: h, Body: []byte(`{}`)}, nil
}

func TestServerErrorSurfacesStatusForRetryPolicy(t *testing.T) {
	cfg := NewConfig("demo", WithUserID("u"), WithTransport(&errorTransport{status: 500}))
	p, err := NewPubNub(cfg)
	if err != nil {
		t.Fatalf("NewPubNub: %v", err)
	}
	defer p.Close()

	_, err = p.HereNow(context.Background(), []string{"a"}, nil)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	outcome := outcomeFromErr(err)
	if outcome.StatusCode != 500 {
		t.Fatalf("expected status 500 in outcome, got %d", outcome.StatusCode)
	}
	var pnErr *Error
	if !errors.As(err, &pnErr) || pnErr.Kind != ErrAPI {
		t.Fatalf("expected API error kind, got %v", err)
	}
}

func TestRetryAfterHeaderReachesOutcome(t *testing.T) {
	cfg := NewConfig("demo", WithUserID("u"), WithTransport(&errorTransport{status: 429, retryAfter: "7"}))
	p, err := NewPubNub(cfg)
	if err != nil {
		t.Fatalf("NewPubNub: %v", err)
	}
	defer p.Close()

	_, err = p.HereNow(context.Background(), []string{"a"}, nil)
	outcome := outcomeFromErr(err)
	if !outcome.HasRetryAfter || outcome.RetryAfter != 7*time.Second {
		t.Fatalf("expected Retry-After 7s in outcome, got %+v", outcome)
	}
}

func TestParseRetryAfter(t *testing.T) {
	h := http.Header{}
	if _, ok := parseRetryAfter(h); ok {
		t.Fatal("absent header must not parse")
	}
	h.Set("Retry-After", "12")
	if d, ok := parseRetryAfter(h); !ok || d != 12*time.Second {
		t.Fatalf("expected 12s, got %v %v", d, ok)
	}
	h.Set("Retry-After", "-1")
	if _, ok := parseRetryAfter(h); ok {
		t.Fatal("negative header must not parse")
	}
	h.Set("Retry-After", "soon")
	if _, ok := parseRetryAfter(h); ok {
		t.Fatal("non-numeric header must not parse")
	}
}
