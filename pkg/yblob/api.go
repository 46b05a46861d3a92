package yblob

// Open loads a Store from dev and runs [Sanitize] on it, the sequence
// every user-facing operation performs before acting (§2's control-flow
// rule: load, then sanitize, then act).
//
// Most callers should use the top-level [StoreBlob], [FetchBlob],
// [RemoveBlob], [List], and [Fsck] functions instead, which additionally
// persist any repair Sanitize made. Open is exposed for callers that need
// to inspect or mutate a Store across several operations without reading
// it back from the device each time.
func Open(dev Device) (*Store, error) {
	s, err := Load(dev)
	if err != nil {
		return nil, err
	}

	Sanitize(s)

	return s, nil
}

// syncAfter flushes s and returns opErr if non-nil, else the sync error.
// A Sanitize repair found during Open must reach the device even when the
// requested operation itself fails or touches nothing, since it is the
// only chance to persist that repair before the caller moves on.
func syncAfter(s *Store, cred Credentials, opErr error) error {
	if syncErr := s.Sync(cred); syncErr != nil {
		return syncErr
	}

	return opErr
}

// StoreBlob opens dev, stores name, and persists the result, including
// any [Sanitize] repair made while opening (§4.3 "Store a blob").
func StoreBlob(dev Device, name string, payload []byte, mode EncryptionMode, cred Credentials) error {
	s, err := Open(dev)
	if err != nil {
		return err
	}

	return syncAfter(s, cred, s.StoreBlob(name, payload, mode, cred))
}

// FetchBlob opens dev and returns the payload stored under name (§4.3
// "Fetch a blob").
func FetchBlob(dev Device, name string, cred Credentials) ([]byte, error) {
	s, err := Open(dev)
	if err != nil {
		return nil, err
	}

	payload, fetchErr := s.FetchBlob(name, cred)
	if err := syncAfter(s, cred, fetchErr); err != nil {
		return nil, err
	}

	return payload, nil
}

// RemoveBlob opens dev and deletes the blob named name, if present (§4.3
// "Remove a blob").
func RemoveBlob(dev Device, name string, cred Credentials) (bool, error) {
	s, err := Open(dev)
	if err != nil {
		return false, err
	}

	removed, removeErr := s.RemoveBlob(name, cred)
	if err := syncAfter(s, cred, removeErr); err != nil {
		return false, err
	}

	return removed, nil
}

// List opens dev and returns every live blob (§6.2).
func List(dev Device, cred Credentials) ([]BlobInfo, error) {
	s, err := Open(dev)
	if err != nil {
		return nil, err
	}

	entries := s.List()

	if err := syncAfter(s, cred, nil); err != nil {
		return nil, err
	}

	return entries, nil
}

// Fsck opens dev without persisting any repair and returns the raw
// decoded state of every record, so that it can be used to diagnose a
// store Sanitize would otherwise silently repair (§6.2).
func Fsck(dev Device) ([]RecordDump, error) {
	s, err := Load(dev)
	if err != nil {
		return nil, err
	}

	return s.Fsck(), nil
}
