// Package transport defines the pluggable I/O boundary the engines and
// one-shot calls use to execute requests, per spec.md §6. The default
// implementation wraps net/http — the HTTP client choice itself is
// explicitly out of scope for this module (spec.md §1 Non-goals); callers
// may substitute their own Transport entirely.
package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Request is a transport-agnostic description of one call.
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Headers map[string]string
	Timeout time.Duration
}

// Response is what a Transport hands back for a completed round trip.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport executes one request and returns its response or an error. The
// context governs cancellation — managed effects cancel an outstanding
// long-poll by cancelling this context (spec.md §5).
type Transport interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// Deserializer parses a wire payload into a typed value. It is
// parameterized over the destination type via a pointer target, mirroring
// encoding/json.Unmarshal's shape so swapping implementations (e.g. for a
// faster JSON library) never touches call sites.
type Deserializer interface {
	Deserialize(data []byte, target interface{}) error
}

// HTTPTransport is the default Transport, built on *http.Client.
type HTTPTransport struct {
	Client *http.Client
}

// NewHTTPTransport constructs a transport with sane defaults if client is nil.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{Client: client}
}

// Send executes the request and buffers the response body.
func (t *HTTPTransport) Send(ctx context.Context, req Request) (Response, error) {
	callCtx := ctx
	var cancel context.CancelFunc
	if req.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	fullURL := req.URL
	if len(req.Query) > 0 {
		fullURL = fullURL + "?" + req.Query.Encode()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(callCtx, method, fullURL, nil)
	if err != nil {
		return Response{}, err
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	httpResp, err := t.Client.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, err
	}

	return Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: body}, nil
}
