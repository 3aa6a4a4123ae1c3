package pncrypto

import "fmt"

// Module is the cryptor_module collaborator from spec.md §6: it applies
// its primary cryptor to outgoing payloads and tries its primary cryptor
// then each fallback (in order) on incoming payloads, so a deployment can
// rotate from the legacy cipher to the modern one without breaking readers
// that still have old messages in flight.
type Module struct {
	primary   Cryptor
	fallbacks []Cryptor
}

// NewModule builds a CryptoModule whose primary cryptor is used for
// encryption and whose primary+fallbacks are tried, in order, for
// decryption.
func NewModule(primary Cryptor, fallbacks ...Cryptor) (*Module, error) {
	if primary == nil {
		return nil, fmt.Errorf("pncrypto: primary cryptor is required")
	}
	return &Module{primary: primary, fallbacks: fallbacks}, nil
}

// Encrypt frames plaintext using the primary cryptor and returns the wire
// envelope bytes.
func (m *Module) Encrypt(plaintext []byte) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("pncrypto: module is nil")
	}
	metadata, ciphertext, err := m.primary.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}
	return Encode(m.primary.Identifier(), metadata, ciphertext), nil
}

// Decrypt parses the wire envelope and tries the cryptor matching its
// identifier (for a modern envelope) or every configured cryptor in turn
// (for a legacy, headerless payload) until one succeeds.
func (m *Module) Decrypt(payload []byte) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("pncrypto: module is nil")
	}
	envelope, err := Decode(payload)
	if err != nil {
		return nil, err
	}

	if !envelope.Legacy {
		cryptor, ok := m.find(envelope.Identifier)
		if !ok {
			return nil, fmt.Errorf("pncrypto: unknown cryptor identifier %v", envelope.Identifier)
		}
		return cryptor.Decrypt(envelope.Metadata, envelope.Ciphertext)
	}

	// Legacy payload: no identifier to dispatch on, so try every
	// configured cryptor (primary first) until one decrypts cleanly.
	var lastErr error
	for _, cryptor := range m.all() {
		plain, err := cryptor.Decrypt(nil, envelope.Ciphertext)
		if err == nil {
			return plain, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("pncrypto: no cryptor configured")
	}
	return nil, lastErr
}

func (m *Module) find(identifier [4]byte) (Cryptor, bool) {
	for _, cryptor := range m.all() {
		if cryptor.Identifier() == identifier {
			return cryptor, true
		}
	}
	return nil, false
}

func (m *Module) all() []Cryptor {
	out := make([]Cryptor, 0, 1+len(m.fallbacks))
	out = append(out, m.primary)
	out = append(out, m.fallbacks...)
	return out
}
