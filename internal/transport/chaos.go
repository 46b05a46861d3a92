package transport

import (
	"crypto/ecdh"
	"fmt"
	"sync"

	"github.com/douzebis/yb/pkg/yblob"
)

// Chaos wraps a [yblob.Device] and can be told to fail a future
// WriteObject call, optionally after partially applying it first, to
// exercise §4.2/§4.3's crash-safety ordering (testable properties S4,
// L3). Modeled on the teacher's pkg/fs.Chaos, narrowed to the one fault
// this spec's crash model cares about: an interrupted multi-object write
// sequence.
type Chaos struct {
	dev yblob.Device

	mu                 sync.Mutex
	writesUntilFailure int // negative disables fault injection
	truncate           bool
}

// NewChaos wraps dev with fault injection disabled.
func NewChaos(dev yblob.Device) *Chaos {
	return &Chaos{dev: dev, writesUntilFailure: -1}
}

// FailAfterWrites arms the Chaos wrapper to fail the (n+1)th WriteObject
// call from now. If truncate is true, the failing call first writes half
// of its payload through to the wrapped device before returning an
// error, simulating a transport drop mid-write; if false, nothing reaches
// the wrapped device for that call.
func (c *Chaos) FailAfterWrites(n int, truncate bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writesUntilFailure = n
	c.truncate = truncate
}

// Disable turns off fault injection.
func (c *Chaos) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writesUntilFailure = -1
}

func (c *Chaos) ReadObject(id yblob.ObjectID) ([]byte, error) {
	return c.dev.ReadObject(id)
}

func (c *Chaos) WriteObject(id yblob.ObjectID, payload []byte, cred yblob.Credentials) error {
	c.mu.Lock()

	fail := c.writesUntilFailure == 0
	if c.writesUntilFailure > 0 {
		c.writesUntilFailure--
	}

	truncate := c.truncate

	c.mu.Unlock()

	if !fail {
		return c.dev.WriteObject(id, payload, cred)
	}

	if truncate {
		torn := payload[:len(payload)/2]
		_ = c.dev.WriteObject(id, torn, cred)
	}

	return fmt.Errorf("write object %#x: simulated transport failure: %w", uint32(id), yblob.ErrTransport)
}

func (c *Chaos) PublicKey(slot yblob.Slot) (*ecdh.PublicKey, error) {
	return c.dev.PublicKey(slot)
}

func (c *Chaos) ECDH(slot yblob.Slot, peer *ecdh.PublicKey) ([]byte, error) {
	return c.dev.ECDH(slot, peer)
}

func (c *Chaos) VerifyPIN(pin string) error {
	return c.dev.VerifyPIN(pin)
}

func (c *Chaos) AuthenticateManagement(key [24]byte) error {
	return c.dev.AuthenticateManagement(key)
}
