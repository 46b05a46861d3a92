package yblob

import "errors"

// Sentinel errors returned by yblob operations.
//
// Callers should use [errors.Is] to check error types; most functions wrap
// a sentinel with additional context via fmt.Errorf("...: %w", sentinel).
var (
	// ErrNotFound indicates the named blob does not exist.
	ErrNotFound = errors.New("yblob: not found")

	// ErrStoreFull indicates there were not enough free records to
	// satisfy an allocation. The store is left unchanged on the device.
	ErrStoreFull = errors.New("yblob: store full")

	// ErrBadMagic indicates a record's yblob_magic field did not match.
	// The device is not formatted for yblob, or a record is corrupt
	// beyond what Sanitize can repair (a store-wide header mismatch is
	// always fatal, never sanitized).
	ErrBadMagic = errors.New("yblob: bad magic")

	// ErrBadGeometry indicates a record's object_count_in_store or
	// store_encryption_key_slot field disagreed with index 0, or with
	// the geometry the caller asked to load.
	ErrBadGeometry = errors.New("yblob: bad geometry")

	// ErrShortRecord indicates the bytes read back from a device object
	// were shorter than the declared field layout requires.
	ErrShortRecord = errors.New("yblob: short record")

	// ErrNameTooLong indicates a blob name was empty or exceeded 255
	// UTF-8 bytes.
	ErrNameTooLong = errors.New("yblob: name too long")

	// ErrCrypto indicates a malformed ephemeral point, a bad HKDF/AES
	// input size, or invalid PKCS#7 padding during hybrid decryption.
	ErrCrypto = errors.New("yblob: crypto error")

	// ErrTransport indicates a read_object/write_object call to the
	// device failed.
	ErrTransport = errors.New("yblob: transport error")

	// ErrAuth indicates a management key or PIN was required by the
	// device and was absent or incorrect.
	ErrAuth = errors.New("yblob: auth error")
)
