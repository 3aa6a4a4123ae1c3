// Package pam implements the permissions-and-access-manager token layer:
// grant/revoke request assembly and the offline token parser, per
// spec.md §3 (Token) and §6 (PAM token / CBOR map).
package pam

import (
	"encoding/base64"
	"errors"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Permission is a single bit in a resource's permission bitmask.
type Permission uint8

const (
	PermRead   Permission = 1 << 0
	PermWrite  Permission = 1 << 1
	PermManage Permission = 1 << 2
	PermDelete Permission = 1 << 3
	PermCreate Permission = 1 << 4
	PermGet    Permission = 1 << 5
	PermUpdate Permission = 1 << 6
	PermJoin   Permission = 1 << 7
)

// PermissionTree holds the per-identifier bitmasks for one of the token's
// two trees (resources or patterns). The wire format carries exactly three
// maps — chan, grp and uuid.
type PermissionTree struct {
	Channels map[string]uint8 `cbor:"chan,omitempty"`
	Groups   map[string]uint8 `cbor:"grp,omitempty"`
	Users    map[string]uint8 `cbor:"uuid,omitempty"`
}

// wireToken is the exact CBOR map shape on the wire (spec.md §6).
type wireToken struct {
	Version   int64          `cbor:"v"`
	Timestamp int64          `cbor:"t"`
	TTL       int64          `cbor:"ttl"`
	UUID      string         `cbor:"uuid,omitempty"`
	Resources PermissionTree `cbor:"res"`
	Patterns  PermissionTree `cbor:"pat"`
	Meta      map[string]any `cbor:"meta,omitempty"`
}

// Token is the structured, decoded view of an offline-parsed PAM token.
type Token struct {
	Version        int
	IssuedAt       time.Time
	TTL            time.Duration
	AuthorizedUUID string
	Resources      PermissionTree
	Patterns       PermissionTree
	Meta           map[string]any
}

// ErrMalformedToken is returned when the token fails to base64-decode or
// CBOR-decode.
var ErrMalformedToken = errors.New("pam: malformed token")

// ParseToken decodes an opaque grant-issued token string into its
// structured view, entirely offline (no network call).
func ParseToken(raw string) (*Token, error) {
	if raw == "" {
		return nil, ErrMalformedToken
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, ErrMalformedToken
	}

	var wire wireToken
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return nil, ErrMalformedToken
	}

	return &Token{
		Version:        int(wire.Version),
		IssuedAt:       time.Unix(wire.Timestamp, 0).UTC(),
		TTL:            time.Duration(wire.TTL) * time.Minute,
		AuthorizedUUID: wire.UUID,
		Resources:      wire.Resources,
		Patterns:       wire.Patterns,
		Meta:           wire.Meta,
	}, nil
}

// Encode serializes a Token back to its opaque wire string. It exists
// primarily to support the round-trip testable property in spec.md §8
// (re-serializing a parsed token's bitmasks yields the original values)
// and for tests that construct a token offline instead of minting one
// through a live grant call.
func Encode(t *Token) (string, error) {
	if t == nil {
		return "", errors.New("pam: nil token")
	}
	wire := wireToken{
		Version:   int64(t.Version),
		Timestamp: t.IssuedAt.Unix(),
		TTL:       int64(t.TTL / time.Minute),
		UUID:      t.AuthorizedUUID,
		Resources: t.Resources,
		Patterns:  t.Patterns,
		Meta:      t.Meta,
	}
	data, err := cbor.Marshal(wire)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// HasPermission reports whether the token's resource tree grants perm on
// the exact identifier named (it does not evaluate Patterns; callers that
// need pattern matching apply their own glob rules against t.Patterns).
func (t *Token) HasPermission(kind ResourceKind, identifier string, perm Permission) bool {
	return t.Resources.HasPermission(kind, identifier, perm)
}

// HasPermission reports whether the bitmask for identifier in tree grants perm.
func (p PermissionTree) HasPermission(kind ResourceKind, identifier string, perm Permission) bool {
	var set map[string]uint8
	switch kind {
	case ResourceChannel:
		set = p.Channels
	case ResourceGroup:
		set = p.Groups
	case ResourceUser:
		set = p.Users
	}
	mask, ok := set[identifier]
	return ok && uint8(perm)&mask == uint8(perm)
}

// ResourceKind names one of the three resource maps a permission tree carries.
type ResourceKind int

const (
	ResourceChannel ResourceKind = iota
	ResourceGroup
	ResourceUser
)
