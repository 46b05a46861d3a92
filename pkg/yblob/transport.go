package yblob

import "crypto/ecdh"

// ObjectID is the numeric identifier of one PIV data object on a device.
// Record index i lives at ObjectID(baseObjectID + i); see [Geometry.ObjectID].
type ObjectID uint32

// Slot is a PIV key container ID (for example 0x82) addressing an
// on-card asymmetric key.
type Slot byte

// Credentials carries the optional authorization a [Device.WriteObject]
// call may need: a management key, a PIN, or neither.
//
// Zero value means "no credentials supplied"; a device that requires
// authorization for a given write returns [ErrAuth] in that case.
type Credentials struct {
	// ManagementKey is the PIV management key (AES-192 or 3DES, 24
	// bytes), or nil if not supplied.
	ManagementKey *[24]byte

	// PIN is the cardholder PIN, or "" if not supplied.
	PIN string

	// ManagementKeyFromPIN, if set, derives the management key from PIN
	// by asking the device for its PIN-protected management-key metadata
	// object instead of taking ManagementKey directly.
	//
	// pkg/yblob never calls this itself; it exists so an
	// internal/transport.Device implementation that supports the feature
	// has somewhere to receive it from the caller. Deriving the
	// management key from the PIN is out of this module's scope (it
	// requires reading and decoding device-specific PIV metadata), so no
	// implementation sets this field today.
	ManagementKeyFromPIN func(pin string) (*[24]byte, error)
}

// Device is the downward interface the core needs from a connected
// security token (spec §6.1). Implementations live in
// github.com/douzebis/yb/internal/transport; the core never constructs
// one directly and never assumes anything about how it reaches the token
// (PC/SC, APDU framing, a PKCS#11 proxy, or an in-memory test double).
//
// Every method may block until the token replies or the transport fails;
// a failure is reported as an error wrapping [ErrTransport] or [ErrAuth].
type Device interface {
	// ReadObject returns the full contents of one PIV data object.
	ReadObject(id ObjectID) ([]byte, error)

	// WriteObject replaces the contents of one PIV data object.
	// write_object is the coarsest unit of progress: on return, either
	// the object equals payload, or it equals whatever was there before.
	WriteObject(id ObjectID, payload []byte, cred Credentials) error

	// PublicKey returns the public half of the P-256 key pair held in
	// slot. The private half never leaves the device.
	PublicKey(slot Slot) (*ecdh.PublicKey, error)

	// ECDH performs a P-256 scalar multiplication between the private
	// key in slot and peer, entirely on the device, and returns the
	// 32-byte shared secret. Used only during hybrid decryption.
	ECDH(slot Slot, peer *ecdh.PublicKey) ([]byte, error)

	// VerifyPIN authenticates the cardholder PIN against the device.
	VerifyPIN(pin string) error

	// AuthenticateManagement authenticates the PIV management key
	// against the device, required by some devices before WriteObject.
	AuthenticateManagement(key [24]byte) error
}

// KeyGenerator is an optional capability a [Device] may implement: generate
// a fresh on-device P-256 key pair in slot, binding it to subjectDN (a
// "/CN=.../O=..."-style RDN string; see internal/cli's subject parser) via
// whatever self-signed-certificate mechanism the device itself uses.
//
// `yb format --generate-key --subject=...` (§6.2) type-asserts its Device
// against KeyGenerator; a device that doesn't implement it reports
// [ErrTransport] for that flag combination instead of silently ignoring it.
type KeyGenerator interface {
	GenerateKey(slot Slot, subjectDN string) error
}

// DeviceInfo describes one connected device as returned by
// [github.com/douzebis/yb/internal/transport.ListDevices]; the core does
// not use it directly, but accepts it here so CLI code and the core share
// a single type.
type DeviceInfo struct {
	// Name is an implementation-defined human-readable identifier, for
	// example a PC/SC reader name.
	Name string
}
