package transport

import (
	"bytes"
	"crypto/ecdh"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/natefinch/atomic"

	"github.com/douzebis/yb/pkg/yblob"
)

// MockFile is a [Mock] whose entire state is snapshotted to a local file
// after every mutation, so a `yb-shell <snapshot-file>` session can be
// resumed across restarts and so tests can exercise a device whose state
// genuinely survives a simulated process crash.
//
// Snapshot writes go through [atomic.WriteFile], so a crash mid-write
// never leaves a torn snapshot on disk: the file is either the old
// snapshot or the new one, never a mix (mirroring the teacher's use of
// the same package for crash-safe config/state writes).
type MockFile struct {
	*Mock

	path string
}

// mockFileSnapshot is the on-disk JSON form of a MockFile's state.
type mockFileSnapshot struct {
	KeySlot       yblob.Slot        `json:"key_slot"`
	PIN           string            `json:"pin"`
	ManagementKey [24]byte          `json:"management_key"`
	PrivateKey    []byte            `json:"private_key"`
	Objects       map[string][]byte `json:"objects"`
}

// NewMockFile opens the snapshot at path if it exists, or creates a fresh
// Mock and writes its initial snapshot there.
func NewMockFile(path string, keySlot yblob.Slot, pin string, managementKey [24]byte) (*MockFile, error) {
	snap, err := readSnapshot(path)

	switch {
	case err == nil:
		return restoreMockFile(path, snap)
	case os.IsNotExist(err):
		m, err := NewMock(keySlot, pin, managementKey)
		if err != nil {
			return nil, err
		}

		mf := &MockFile{Mock: m, path: path}

		if err := mf.save(); err != nil {
			return nil, err
		}

		return mf, nil
	default:
		return nil, err
	}
}

func readSnapshot(path string) (*mockFileSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snap mockFileSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	return &snap, nil
}

func restoreMockFile(path string, snap *mockFileSnapshot) (*MockFile, error) {
	priv, err := ecdh.P256().NewPrivateKey(snap.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("restore device key from %s: %w", path, err)
	}

	objects := make(map[yblob.ObjectID][]byte, len(snap.Objects))

	for k, v := range snap.Objects {
		id, err := strconv.ParseUint(k, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("decode object id %q in %s: %w", k, path, err)
		}

		objects[yblob.ObjectID(id)] = v
	}

	m := &Mock{
		objects:       objects,
		key:           priv,
		keySlot:       snap.KeySlot,
		pin:           snap.PIN,
		managementKey: snap.ManagementKey,
	}

	return &MockFile{Mock: m, path: path}, nil
}

func (mf *MockFile) save() error {
	mf.mu.Lock()

	snap := mockFileSnapshot{
		KeySlot:       mf.keySlot,
		PIN:           mf.pin,
		ManagementKey: mf.managementKey,
		PrivateKey:    mf.key.Bytes(),
		Objects:       make(map[string][]byte, len(mf.objects)),
	}

	for id, buf := range mf.objects {
		snap.Objects[strconv.FormatUint(uint64(id), 10)] = buf
	}

	mf.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return atomic.WriteFile(mf.path, bytes.NewReader(data))
}

// WriteObject delegates to [Mock.WriteObject], then persists a snapshot.
func (mf *MockFile) WriteObject(id yblob.ObjectID, payload []byte, cred yblob.Credentials) error {
	if err := mf.Mock.WriteObject(id, payload, cred); err != nil {
		return err
	}

	return mf.save()
}

// GenerateKey delegates to [Mock.GenerateKey], then persists a snapshot.
func (mf *MockFile) GenerateKey(slot yblob.Slot, subjectDN string) error {
	if err := mf.Mock.GenerateKey(slot, subjectDN); err != nil {
		return err
	}

	return mf.save()
}

// AuthenticateManagement delegates to [Mock.AuthenticateManagement].
//
// The authenticated flag is deliberately not part of the snapshot: a
// resumed session starts unauthenticated and needs a fresh
// AuthenticateManagement call, matching how a real token forgets PIV
// authentication state across a power cycle.
func (mf *MockFile) AuthenticateManagement(key [24]byte) error {
	return mf.Mock.AuthenticateManagement(key)
}
