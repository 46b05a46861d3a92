// Package transport provides [github.com/douzebis/yb/pkg/yblob.Device]
// implementations: an in-memory mock, a file-backed mock for
// crash/restart testing, and a fault-injecting wrapper. A real
// PC/SC-backed implementation is out of scope (spec.md §1) and not
// provided here.
package transport

import (
	"crypto/ecdh"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/douzebis/yb/pkg/yblob"
)

// Mock is an in-memory [yblob.Device], suitable for unit tests and as the
// default backend for `yb-shell` when no real reader is attached.
//
// Mock simulates a single PIV key slot holding one P-256 key pair
// generated at construction, a cardholder PIN, and a management key
// gating WriteObject. It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	objects map[yblob.ObjectID][]byte

	key     *ecdh.PrivateKey
	keySlot yblob.Slot

	pin                     string
	managementKey           [24]byte
	managementAuthenticated bool
}

// NewMock returns an empty Mock: no objects written yet (as if freshly
// provisioned but not yet formatted), with a fresh P-256 key pair in
// keySlot.
func NewMock(keySlot yblob.Slot, pin string, managementKey [24]byte) (*Mock, error) {
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate device key: %w", err)
	}

	return &Mock{
		objects:       make(map[yblob.ObjectID][]byte),
		key:           key,
		keySlot:       keySlot,
		pin:           pin,
		managementKey: managementKey,
	}, nil
}

// ReadObject returns a copy of the stored bytes for id, or an error
// wrapping [yblob.ErrTransport] if nothing has been written there yet.
func (m *Mock) ReadObject(id yblob.ObjectID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf, ok := m.objects[id]
	if !ok {
		return nil, fmt.Errorf("object %#x: not present: %w", uint32(id), yblob.ErrTransport)
	}

	out := make([]byte, len(buf))
	copy(out, buf)

	return out, nil
}

// WriteObject stores a copy of payload at id, requiring either a prior
// successful [Mock.AuthenticateManagement] or cred.ManagementKey to match
// the configured management key.
func (m *Mock) WriteObject(id yblob.ObjectID, payload []byte, cred yblob.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.managementAuthenticated {
		if cred.ManagementKey == nil || *cred.ManagementKey != m.managementKey {
			return fmt.Errorf("write object %#x: %w", uint32(id), yblob.ErrAuth)
		}
	}

	buf := make([]byte, len(payload))
	copy(buf, payload)
	m.objects[id] = buf

	return nil
}

// PublicKey returns the mock device's public key if slot matches the
// configured key slot.
func (m *Mock) PublicKey(slot yblob.Slot) (*ecdh.PublicKey, error) {
	if slot != m.keySlot {
		return nil, fmt.Errorf("no key in slot %#x: %w", byte(slot), yblob.ErrTransport)
	}

	return m.key.PublicKey(), nil
}

// ECDH performs the scalar multiplication against the mock device's
// private key.
func (m *Mock) ECDH(slot yblob.Slot, peer *ecdh.PublicKey) ([]byte, error) {
	if slot != m.keySlot {
		return nil, fmt.Errorf("no key in slot %#x: %w", byte(slot), yblob.ErrTransport)
	}

	secret, err := m.key.ECDH(peer)
	if err != nil {
		return nil, fmt.Errorf("device ECDH: %w", yblob.ErrCrypto)
	}

	return secret, nil
}

// VerifyPIN succeeds iff pin matches the configured PIN.
func (m *Mock) VerifyPIN(pin string) error {
	if pin != m.pin {
		return fmt.Errorf("verify PIN: %w", yblob.ErrAuth)
	}

	return nil
}

// AuthenticateManagement succeeds iff key matches the configured
// management key, and if so, exempts subsequent WriteObject calls in
// this session from needing cred.ManagementKey set.
func (m *Mock) AuthenticateManagement(key [24]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if key != m.managementKey {
		return fmt.Errorf("authenticate management: %w", yblob.ErrAuth)
	}

	m.managementAuthenticated = true

	return nil
}

// GenerateKey replaces the mock device's key pair in slot with a fresh
// one. The mock has no certificate store, so subjectDN is accepted only
// to satisfy [yblob.KeyGenerator]'s signature and is otherwise discarded;
// a real device would bind it into a self-signed certificate alongside
// the new key.
func (m *Mock) GenerateKey(slot yblob.Slot, subjectDN string) error {
	_ = subjectDN

	if slot != m.keySlot {
		return fmt.Errorf("no key slot %#x on this device: %w", byte(slot), yblob.ErrTransport)
	}

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate device key: %w", err)
	}

	m.mu.Lock()
	m.key = key
	m.mu.Unlock()

	return nil
}

// ListDevices enumerates connected devices (§6 "list-readers", from
// original_source/src/yb/yubikey_selector.py). The mock backends have no
// real PC/SC reader to enumerate, so this always reports a single fixed
// entry.
func ListDevices() ([]yblob.DeviceInfo, error) {
	return []yblob.DeviceInfo{{Name: "mock"}}, nil
}
