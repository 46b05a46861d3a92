package yblob

import (
	"crypto/ecdh"
	"crypto/rand"
	"fmt"
	"testing"
)

// fakeDevice is a minimal in-memory [Device] for pkg/yblob's own unit
// tests, kept separate from internal/transport.Mock so these tests never
// import a package that imports yblob itself (that would be a cycle,
// since these files live in package yblob, not yblob_test).
type fakeDevice struct {
	objects map[ObjectID][]byte
	key     *ecdh.PrivateKey
	keySlot Slot
	pin     string

	failWrites int // if > 0, the next N WriteObject calls fail
}

func newFakeDevice(t *testing.T) *fakeDevice {
	t.Helper()

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate fake device key: %v", err)
	}

	return &fakeDevice{
		objects: make(map[ObjectID][]byte),
		key:     key,
		keySlot: Slot(0x9d),
	}
}

func (d *fakeDevice) ReadObject(id ObjectID) ([]byte, error) {
	buf, ok := d.objects[id]
	if !ok {
		return nil, fmt.Errorf("object %#x not present: %w", uint32(id), ErrTransport)
	}

	out := make([]byte, len(buf))
	copy(out, buf)

	return out, nil
}

func (d *fakeDevice) WriteObject(id ObjectID, payload []byte, _ Credentials) error {
	if d.failWrites > 0 {
		d.failWrites--

		return fmt.Errorf("injected write failure: %w", ErrTransport)
	}

	buf := make([]byte, len(payload))
	copy(buf, payload)
	d.objects[id] = buf

	return nil
}

func (d *fakeDevice) PublicKey(slot Slot) (*ecdh.PublicKey, error) {
	if slot != d.keySlot {
		return nil, fmt.Errorf("no key in slot %#x: %w", byte(slot), ErrTransport)
	}

	return d.key.PublicKey(), nil
}

func (d *fakeDevice) ECDH(slot Slot, peer *ecdh.PublicKey) ([]byte, error) {
	if slot != d.keySlot {
		return nil, fmt.Errorf("no key in slot %#x: %w", byte(slot), ErrTransport)
	}

	secret, err := d.key.ECDH(peer)
	if err != nil {
		return nil, fmt.Errorf("device ECDH: %w", ErrCrypto)
	}

	return secret, nil
}

func (d *fakeDevice) VerifyPIN(pin string) error {
	if pin != d.pin {
		return fmt.Errorf("verify PIN: %w", ErrAuth)
	}

	return nil
}

func (d *fakeDevice) AuthenticateManagement(_ [24]byte) error { return nil }
