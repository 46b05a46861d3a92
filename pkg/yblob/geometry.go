package yblob

import "fmt"

// Field layout constants for the §3.1 record format.
//
// Offsets are bytes from the start of a decoded/encoded record. Sizes are
// the fixed byte width of each field; `blob_name` is the only
// variable-length field and always appears last, immediately before the
// NUL-padded chunk_payload.
const (
	// yblobMagic is the required value of the 4-byte, little-endian
	// yblob_magic field. Its absence means the device is not formatted
	// for this tool.
	yblobMagic uint32 = 0xF2ED5F0B

	offMagic          = 0  // [4]byte, LE u32
	offObjectCount    = 4  // byte
	offKeySlot        = 5  // byte
	offAge            = 6  // [3]byte, LE u24
	storeHeaderSize   = 9  // always present

	offChunkPos  = 9  // byte, present iff age != 0
	offNextIndex = 10 // byte, present iff age != 0
	chunkHeaderEnd = 11

	offModTime       = 11 // LE u32, present iff chunk_pos == 0
	offBlobSize      = 15 // [3]byte, LE u24
	offEncSlot       = 18 // byte
	offUnencSize     = 19 // [3]byte, LE u24
	offNameLen       = 22 // byte
	offName          = 23 // variable length, = name_utf8_len bytes

	// headOverhead is the number of bytes consumed by a head chunk's
	// header fields, not counting the name itself.
	headOverhead = offName

	// bodyOverhead is the number of bytes consumed by a body chunk's
	// header fields (store header + chunk header, no blob-head fields).
	bodyOverhead = chunkHeaderEnd

	// maxNameLen is the largest representable name_utf8_len (one byte).
	maxNameLen = 255

	// baseObjectID is the first PIV data object ID a Store occupies;
	// record index i lives at baseObjectID + i.
	baseObjectID = 0x5F0000
)

// Geometry describes the fixed shape of a Store: how many records it has,
// how large each record is, and which PIV slot holds its encryption key.
//
// Geometry is immutable once a Store is created or loaded; records keep a
// copy of it (not a pointer back to the Store) since it is a handful of
// small integers, matching the teacher's record-holds-geometry-by-value
// convention.
type Geometry struct {
	// ObjectSize is the fixed size in bytes of every record. Must be in
	// [10, 3052].
	ObjectSize int

	// Count is N, the number of records in the store.
	Count int

	// KeySlot is the PIV slot ID holding the store's ECC key, used for
	// hybrid encryption (store_encryption_key_slot).
	KeySlot byte
}

// Validate checks that the geometry's fields are within the ranges §3.1
// requires for a well-formed store.
func (g Geometry) Validate() error {
	if g.ObjectSize < minObjectSize || g.ObjectSize > maxObjectSize {
		return fmt.Errorf("object_size %d out of range [%d, %d]: %w", g.ObjectSize, minObjectSize, maxObjectSize, ErrBadGeometry)
	}

	if g.Count < minObjectCount || g.Count > maxObjectCount {
		return fmt.Errorf("object_count %d out of range [%d, %d]: %w", g.Count, minObjectCount, maxObjectCount, ErrBadGeometry)
	}

	if g.ObjectSize < headOverhead+1 {
		return fmt.Errorf("object_size %d too small to hold a single-byte-named head chunk (min %d): %w",
			g.ObjectSize, headOverhead+1, ErrBadGeometry)
	}

	return nil
}

// ObjectID returns the PIV data object ID for record index i.
func (g Geometry) ObjectID(i int) ObjectID {
	return ObjectID(baseObjectID + i)
}

// PayloadCapacity returns how many payload bytes fit in a chunk of the
// given kind, per §4.2.
//
// Pass name == "" for a body chunk. Pass the blob's name for the capacity
// of its head chunk, which must additionally carry the name bytes.
func (g Geometry) PayloadCapacity(name string) int {
	if name == "" {
		return g.ObjectSize - bodyOverhead
	}

	return g.ObjectSize - headOverhead - len(name)
}
