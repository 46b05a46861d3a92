package yblob

import (
	"fmt"
	"sort"
	"time"
)

// EncryptionMode selects whether [Store.StoreBlob] wraps the payload in
// the hybrid-encryption envelope (§4.4) before chunking it.
type EncryptionMode int

const (
	// Plaintext stores the payload as given.
	Plaintext EncryptionMode = iota

	// Encrypted wraps the payload with [hybridEncrypt] against the
	// store's device-resident key before chunking it.
	Encrypted
)

// BlobInfo summarizes one stored blob, as returned by [Store.List]
// (§6.2).
type BlobInfo struct {
	Name       string
	Size       int // the user payload size (blob_unencrypted_size)
	Encrypted  bool
	ModTime    time.Time
	ChunkCount int
}

// StoreBlob writes a new blob named name, or replaces an existing one of
// the same name, per §4.3 "Store a blob"/"Update a blob of the same
// name".
//
// The caller is responsible for having loaded and [Sanitize]d the Store
// first (spec §2's control-flow rule); StoreBlob does not reload.
//
// On [ErrStoreFull], any indices reserved in memory during allocation are
// released and nothing is written to the device (§4.3 step 2).
func (s *Store) StoreBlob(name string, payload []byte, mode EncryptionMode, cred Credentials) error {
	if len(name) == 0 || len(name) > maxNameLen {
		return fmt.Errorf("name length %d out of range [1, %d]: %w", len(name), maxNameLen, ErrNameTooLong)
	}

	unencSize := len(payload)
	stored := payload
	encSlot := byte(0)

	if mode == Encrypted {
		pub, err := s.dev.PublicKey(Slot(s.geo.KeySlot))
		if err != nil {
			return fmt.Errorf("read device public key: %w", err)
		}

		env, err := hybridEncrypt(payload, pub)
		if err != nil {
			return err
		}

		stored = env
		encSlot = s.geo.KeySlot
	}

	indices, err := s.allocateChain(name, len(stored))
	if err != nil {
		return err
	}

	s.linkChain(indices, name, stored, unencSize, encSlot)

	// Tail first, head last: the head is what makes the chain
	// discoverable (§4.3 step 5, §5).
	return s.syncIndices(cred, reversed(indices))
}

// allocateChain allocates enough free records to hold payloadLen bytes of
// payload under the given head name, releasing the reservation in memory
// (never on the device) if the store runs out of room (§4.3 step 2).
func (s *Store) allocateChain(name string, payloadLen int) ([]int, error) {
	headCap := s.PayloadCapacity(name)
	bodyCap := s.PayloadCapacity("")

	if headCap <= 0 {
		return nil, fmt.Errorf("name %q leaves no room for payload in a %d-byte object: %w", name, s.geo.ObjectSize, ErrNameTooLong)
	}

	var indices []int

	covered := 0

	for covered < payloadLen || len(indices) == 0 {
		idx, err := s.allocateFreeIndex()
		if err != nil {
			s.releaseReserved(indices)

			return nil, err
		}

		indices = append(indices, idx)

		if len(indices) == 1 {
			covered += headCap
		} else {
			covered += bodyCap
		}
	}

	return indices, nil
}

// linkChain assigns ages, chain pointers, and blob-head fields to the
// reserved indices and commits them to the Store in memory (§4.3 steps
//3-4).
func (s *Store) linkChain(indices []int, name string, stored []byte, unencSize int, encSlot byte) {
	base := s.age + 1
	offset := 0

	for pos, idx := range indices {
		chunkCap := s.PayloadCapacity("")
		if pos == 0 {
			chunkCap = s.PayloadCapacity(name)
		}

		end := offset + chunkCap
		if end > len(stored) {
			end = len(stored)
		}

		chunk := append([]byte(nil), stored[offset:end]...)
		offset = end

		next := byte(idx) // tail self-pointer by default
		if pos < len(indices)-1 {
			next = byte(indices[pos+1])
		}

		rec := record{
			index:     idx,
			age:       base + uint32(pos),
			chunkPos:  byte(pos),
			nextIndex: next,
			payload:   chunk,
		}

		if pos == 0 {
			rec.modTime = uint32(time.Now().Unix())
			rec.blobSize = uint32(len(stored))
			rec.encSlot = encSlot
			rec.unenc = uint32(unencSize)
			rec.name = name
		}

		s.commit(rec)
	}
}

// findHead returns the index of the unique live head named name, or -1.
func (s *Store) findHead(name string) int {
	for i := range s.recs {
		if s.recs[i].isHead() && s.recs[i].name == name {
			return i
		}
	}

	return -1
}

// chainIndices returns the record indices of a chain starting at head, in
// head-to-tail order.
func (s *Store) chainIndices(head int) []int {
	n := len(s.recs)
	indices := make([]int, 0, n)
	cur := head

	for hop := 0; hop <= n; hop++ {
		indices = append(indices, cur)

		if s.recs[cur].isTail() {
			break
		}

		cur = int(s.recs[cur].nextIndex)
	}

	return indices
}

// chainPayload concatenates the chunk_payload bytes of a chain in
// head-to-tail order and truncates the result to blobSize (§4.3 "Fetch a
// blob" step 3).
func (s *Store) chainPayload(indices []int, blobSize uint32) []byte {
	buf := make([]byte, 0, blobSize)

	for _, idx := range indices {
		buf = append(buf, s.recs[idx].payload...)
	}

	if uint32(len(buf)) > blobSize {
		buf = buf[:blobSize]
	}

	return buf
}

// FetchBlob returns the stored payload for name, decrypting it first if
// it was stored encrypted (§4.3 "Fetch a blob").
//
// The caller is responsible for having loaded and [Sanitize]d the Store
// first.
func (s *Store) FetchBlob(name string, cred Credentials) ([]byte, error) {
	head := s.findHead(name)
	if head < 0 {
		return nil, fmt.Errorf("blob %q: %w", name, ErrNotFound)
	}

	rec := s.recs[head]
	raw := s.chainPayload(s.chainIndices(head), rec.blobSize)

	if rec.encSlot == 0 {
		return raw, nil
	}

	if cred.PIN != "" {
		if err := s.dev.VerifyPIN(cred.PIN); err != nil {
			return nil, fmt.Errorf("verify PIN: %w", err)
		}
	}

	return hybridDecrypt(raw, s.dev, Slot(rec.encSlot))
}

// RemoveBlob deletes the blob named name, if it exists (§4.3 "Remove a
// blob").
//
// Records are reset head first, then body, both in memory and on the
// device, so that an interruption partway through leaves only
// unreachable garbage for the next [Sanitize] to sweep, never a
// discoverable-but-truncated chain.
//
// The caller is responsible for having loaded and [Sanitize]d the Store
// first.
func (s *Store) RemoveBlob(name string, cred Credentials) (bool, error) {
	head := s.findHead(name)
	if head < 0 {
		return false, nil
	}

	indices := s.chainIndices(head)

	for _, idx := range indices {
		s.resetRecord(idx)
	}

	if err := s.syncIndices(cred, indices); err != nil {
		return false, err
	}

	return true, nil
}

// List returns every live blob, ordered by name (§6.2).
//
// The caller is responsible for having loaded and [Sanitize]d the Store
// first.
func (s *Store) List() []BlobInfo {
	var out []BlobInfo

	for i := range s.recs {
		if !s.recs[i].isHead() {
			continue
		}

		rec := &s.recs[i]
		out = append(out, BlobInfo{
			Name:       rec.name,
			Size:       int(rec.unenc),
			Encrypted:  rec.encSlot != 0,
			ModTime:    time.Unix(int64(rec.modTime), 0).UTC(),
			ChunkCount: len(s.chainIndices(i)),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// RecordDump is one record's full decoded state, as returned by
// [Store.Fsck] (§6.2 "full dump of all N records").
type RecordDump struct {
	Index     int
	Free      bool
	Age       uint32
	ChunkPos  byte
	NextIndex byte
	IsTail    bool
	ModTime   time.Time
	BlobSize  uint32
	EncSlot   byte
	UnencSize uint32
	Name      string
}

// Fsck returns the full decoded state of every record in the store, in
// index order, regardless of reachability (§6.2).
func (s *Store) Fsck() []RecordDump {
	out := make([]RecordDump, len(s.recs))

	for i := range s.recs {
		rec := &s.recs[i]

		out[i] = RecordDump{
			Index: i,
			Free:  rec.isFree(),
		}

		if rec.isFree() {
			continue
		}

		out[i].Age = rec.age
		out[i].ChunkPos = rec.chunkPos
		out[i].NextIndex = rec.nextIndex
		out[i].IsTail = rec.isTail()

		if rec.chunkPos == 0 {
			out[i].ModTime = time.Unix(int64(rec.modTime), 0).UTC()
			out[i].BlobSize = rec.blobSize
			out[i].EncSlot = rec.encSlot
			out[i].UnencSize = rec.unenc
			out[i].Name = rec.name
		}
	}

	return out
}

// reversed returns a new slice containing indices in reverse order.
func reversed(indices []int) []int {
	out := make([]int, len(indices))
	for i, v := range indices {
		out[len(indices)-1-i] = v
	}

	return out
}
