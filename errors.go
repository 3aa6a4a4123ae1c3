// Package pubnub is the client SDK for a hosted publish/subscribe
// messaging network: publish, a multiplexed real-time subscribe stream,
// presence, per-user state, and PAM access tokens, per spec.md §1.
package pubnub

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the taxonomy from spec.md §7, by kind rather than by
// concrete type — every *Error carries exactly one of these.
type ErrorKind int

const (
	ErrTransport ErrorKind = iota
	ErrAPI
	ErrDeserialization
	ErrSerialization
	ErrCryptoInitialization
	ErrEncryption
	ErrDecryption
	ErrUnknownCryptor
	ErrEffectCanceled
	ErrConfiguration
	ErrSubscribeInitialization
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTransport:
		return "transport"
	case ErrAPI:
		return "api"
	case ErrDeserialization:
		return "deserialization"
	case ErrSerialization:
		return "serialization"
	case ErrCryptoInitialization:
		return "crypto_initialization"
	case ErrEncryption:
		return "encryption"
	case ErrDecryption:
		return "decryption"
	case ErrUnknownCryptor:
		return "unknown_cryptor"
	case ErrEffectCanceled:
		return "effect_canceled"
	case ErrConfiguration:
		return "configuration"
	case ErrSubscribeInitialization:
		return "subscribe_initialization"
	default:
		return "unknown"
	}
}

// Error is the SDK's error type, grounded on internal/auth/hmac.go's
// sentinel-error-plus-fmt.Errorf("%w: ...") idiom: a Kind for programmatic
// dispatch, an optional wrapped cause for errors.Is/errors.As, and
// API-specific detail fields populated only when Kind == ErrAPI.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error

	// API-specific detail, populated only when Kind == ErrAPI.
	StatusCode int
	Service    string
	Details    string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pubnub: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("pubnub: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// newError builds an *Error of the given kind wrapping cause.
func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// ErrEffectCanceledSentinel is the ErrEffectCanceled value that IsCanceled
// matches. No code path in this package returns it: managed effects observe
// cancellation through their context and resolve to zero events, and
// one-shot calls report a cancelled context as an ErrTransport *Error
// wrapping context.Canceled, which IsCanceled also recognises.
var ErrEffectCanceledSentinel = &Error{Kind: ErrEffectCanceled, Message: "effect canceled"}

// configError builds an ErrConfiguration *Error for a call that was
// attempted without a required configuration field (e.g. publish without a publish key, grant
// without a secret key).
func configError(message string) *Error { return newError(ErrConfiguration, message, nil) }

// IsCanceled reports whether err is (or wraps) the effect-cancellation sentinel.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrEffectCanceledSentinel) || errors.Is(err, context.Canceled)
}
