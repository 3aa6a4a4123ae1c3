// Package pncrypto implements the payload envelope and the backward
// compatible ciphers used to encrypt/decrypt message bodies, per
// spec.md §3 (Encrypted Envelope) and §6 (Cryptor interface).
package pncrypto

import (
	"encoding/binary"
	"errors"
)

// sentinel marks the start of a modern (post-envelope) ciphertext. Legacy
// payloads never carry it, which is how a decoder tells the two apart.
var sentinel = [4]byte{'P', 'N', 'E', 'D'}

const currentVersion = 1

// LegacyIdentifier is the 4-byte cryptor id reserved for the headerless
// legacy format.
var LegacyIdentifier = [4]byte{0, 0, 0, 0}

// Envelope is the parsed form of an encrypted payload.
type Envelope struct {
	Identifier [4]byte
	Metadata   []byte
	Ciphertext []byte
	// Legacy is true when the payload carried no envelope header at all.
	Legacy bool
}

// ErrMalformedEnvelope is returned when the envelope header cannot be parsed.
var ErrMalformedEnvelope = errors.New("pncrypto: malformed envelope")

// ErrUnsupportedVersion is returned for a version byte of 0 or above 1 (the
// current version).
var ErrUnsupportedVersion = errors.New("pncrypto: unsupported envelope version")

// Encode serializes an Envelope to its wire form. Legacy envelopes
// (Identifier == LegacyIdentifier) are written with no header at all.
func Encode(identifier [4]byte, metadata, ciphertext []byte) []byte {
	if identifier == LegacyIdentifier {
		return append([]byte(nil), ciphertext...)
	}

	out := make([]byte, 0, 4+1+4+2+len(metadata)+len(ciphertext))
	out = append(out, sentinel[:]...)
	out = append(out, currentVersion)
	out = append(out, identifier[:]...)

	switch {
	case len(metadata) < 255:
		out = append(out, byte(len(metadata)))
	default:
		out = append(out, 255)
		var size [2]byte
		binary.BigEndian.PutUint16(size[:], uint16(len(metadata)))
		out = append(out, size[:]...)
	}
	out = append(out, metadata...)
	out = append(out, ciphertext...)
	return out
}

// Decode parses a wire payload into an Envelope. A payload with no sentinel
// prefix is treated as legacy: the whole payload is the ciphertext.
func Decode(data []byte) (Envelope, error) {
	if len(data) < 4 || [4]byte(data[:4]) != sentinel {
		return Envelope{Identifier: LegacyIdentifier, Ciphertext: data, Legacy: true}, nil
	}

	rest := data[4:]
	if len(rest) < 1 {
		return Envelope{}, ErrMalformedEnvelope
	}
	version := rest[0]
	if version == 0 || version > currentVersion {
		return Envelope{}, ErrUnsupportedVersion
	}
	rest = rest[1:]

	if len(rest) < 4 {
		return Envelope{}, ErrMalformedEnvelope
	}
	var identifier [4]byte
	copy(identifier[:], rest[:4])
	rest = rest[4:]

	if len(rest) < 1 {
		return Envelope{}, ErrMalformedEnvelope
	}
	metaLen := int(rest[0])
	rest = rest[1:]
	if metaLen == 255 {
		if len(rest) < 2 {
			return Envelope{}, ErrMalformedEnvelope
		}
		metaLen = int(binary.BigEndian.Uint16(rest[:2]))
		rest = rest[2:]
	}
	if len(rest) < metaLen {
		return Envelope{}, ErrMalformedEnvelope
	}
	metadata := rest[:metaLen]
	ciphertext := rest[metaLen:]

	return Envelope{Identifier: identifier, Metadata: metadata, Ciphertext: ciphertext}, nil
}
