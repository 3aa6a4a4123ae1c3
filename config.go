package pubnub

import (
	"time"

	"github.com/google/uuid"
	"github.com/pubnub/go/v7/pncrypto"
	"github.com/pubnub/go/v7/pnlog"
	"github.com/pubnub/go/v7/pnruntime"
	"github.com/pubnub/go/v7/retrypolicy"
	"github.com/pubnub/go/v7/transport"
)

const (
	defaultOrigin                  = "https://ps.pndsn.com"
	defaultHeartbeatValue          = 300
	defaultRequestTimeout          = 10 * time.Second
	defaultSubscribeRequestTimeout = 310 * time.Second
	defaultPNSDKName               = "PubNub-Go"
	defaultPNSDKVersion            = "7.0.0"
)

// Config enumerates every option spec.md §6 names, matching the teacher's
// internal/config package's default-const-plus-override shape, adapted
// from env-var parsing (a standalone service) to functional options (an
// embedded library has no process environment of its own to read).
type Config struct {
	SubscribeKey string
	PublishKey   string
	SecretKey    string
	UserID       string
	AuthToken    string

	HeartbeatValue    int
	HeartbeatInterval int
	FilterExpression  string

	RetryPolicy             retrypolicy.Policy
	RequestTimeout          time.Duration
	SubscribeRequestTimeout time.Duration

	CryptoModule *pncrypto.Module

	Origin       string
	PNSDKName    string
	PNSDKVersion string

	Transport    transport.Transport
	Deserializer transport.Deserializer
	Runtime      pnruntime.Runtime
	Logger       *pnlog.Logger
}

// Option mutates a Config being built by NewConfig.
type Option func(*Config)

// WithPublishKey sets the publish key, required for Publish.
func WithPublishKey(key string) Option { return func(c *Config) { c.PublishKey = key } }

// WithSecretKey sets the secret key, required for Grant/Revoke.
func WithSecretKey(key string) Option { return func(c *Config) { c.SecretKey = key } }

// WithUserID sets the client's user id (the network's "uuid").
func WithUserID(id string) Option { return func(c *Config) { c.UserID = id } }

// WithAuthToken attaches a PAM token to every outgoing request.
func WithAuthToken(token string) Option { return func(c *Config) { c.AuthToken = token } }

// WithHeartbeat sets the heartbeat TTL in seconds; the interval defaults to
// value/2 - 1 unless overridden separately with WithHeartbeatInterval.
func WithHeartbeat(seconds int) Option {
	return func(c *Config) {
		c.HeartbeatValue = seconds
		c.HeartbeatInterval = seconds/2 - 1
	}
}

// WithHeartbeatInterval overrides the cooldown between heartbeats.
func WithHeartbeatInterval(seconds int) Option { return func(c *Config) { c.HeartbeatInterval = seconds } }

// WithFilterExpression attaches a server-side filter expression.
func WithFilterExpression(expr string) Option { return func(c *Config) { c.FilterExpression = expr } }

// WithRetryPolicy overrides the retry policy (default retrypolicy.None{}).
func WithRetryPolicy(policy retrypolicy.Policy) Option {
	return func(c *Config) { c.RetryPolicy = policy }
}

// WithRequestTimeout overrides the per-request timeout for non-subscribe calls.
func WithRequestTimeout(d time.Duration) Option { return func(c *Config) { c.RequestTimeout = d } }

// WithSubscribeRequestTimeout overrides the subscribe long-poll timeout.
func WithSubscribeRequestTimeout(d time.Duration) Option {
	return func(c *Config) { c.SubscribeRequestTimeout = d }
}

// WithCryptoModule attaches a cryptor_module applied to outgoing publish
// payloads and incoming message "d" fields.
func WithCryptoModule(m *pncrypto.Module) Option { return func(c *Config) { c.CryptoModule = m } }

// WithOrigin overrides the network origin (default defaultOrigin).
func WithOrigin(origin string) Option { return func(c *Config) { c.Origin = origin } }

// WithTransport overrides the Transport collaborator.
func WithTransport(t transport.Transport) Option { return func(c *Config) { c.Transport = t } }

// WithDeserializer overrides the Deserializer collaborator.
func WithDeserializer(d transport.Deserializer) Option {
	return func(c *Config) { c.Deserializer = d }
}

// WithRuntime overrides the Runtime collaborator.
func WithRuntime(r pnruntime.Runtime) Option { return func(c *Config) { c.Runtime = r } }

// WithLogger overrides the structured logger (default: discard).
func WithLogger(l *pnlog.Logger) Option { return func(c *Config) { c.Logger = l } }

// NewConfig builds a Config for subscribeKey with defaults applied,
// generating a random UserID if none was supplied via WithUserID.
func NewConfig(subscribeKey string, opts ...Option) *Config {
	c := &Config{
		SubscribeKey:            subscribeKey,
		HeartbeatValue:          defaultHeartbeatValue,
		HeartbeatInterval:       defaultHeartbeatValue/2 - 1,
		RetryPolicy:             retrypolicy.None{},
		RequestTimeout:          defaultRequestTimeout,
		SubscribeRequestTimeout: defaultSubscribeRequestTimeout,
		Origin:                  defaultOrigin,
		PNSDKName:               defaultPNSDKName,
		PNSDKVersion:            defaultPNSDKVersion,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.applyDefaults()
	return c
}

// applyDefaults fills in any collaborator the caller left unset. NewPubNub
// also calls this so a hand-built Config works the same as one from
// NewConfig.
func (c *Config) applyDefaults() {
	if c.UserID == "" {
		c.UserID = uuid.NewString()
	}
	if c.RetryPolicy == nil {
		c.RetryPolicy = retrypolicy.None{}
	}
	if c.Transport == nil {
		c.Transport = transport.NewHTTPTransport(nil)
	}
	if c.Deserializer == nil {
		c.Deserializer = transport.NewJSONDeserializer()
	}
	if c.Runtime == nil {
		c.Runtime = pnruntime.Goroutine{}
	}
	if c.Logger == nil {
		c.Logger = pnlog.New(nil, pnlog.ErrorLevel)
	}
}

// pnsdk is the pnsdk identification string attached to every request, per
// original_source/pubnub-core/src/data/uuid.rs's sibling data/request.rs.
func (c *Config) pnsdk() string { return c.PNSDKName + "/" + c.PNSDKVersion }
