package yblob

import (
	"encoding/binary"
	"fmt"
)

// record is the decoded form of one fixed-size PIV data object (§3.1).
//
// A record with Age == 0 is free; none of its other fields are meaningful
// and no reader interprets Payload in that state (§3.4 invariant 2).
type record struct {
	index int // position within the store; not encoded, supplied by caller

	age uint32 // object_age, a LE u24 on the wire; 0 means free

	chunkPos  byte // chunk_pos_in_blob, valid iff age != 0
	nextIndex byte // next_chunk_index_in_store, valid iff age != 0

	modTime  uint32 // blob_modification_time, valid iff chunkPos == 0
	blobSize uint32 // blob_size, a LE u24 on the wire
	encSlot  byte   // blob_encryption_key_slot, 0 = plaintext
	unenc    uint32 // blob_unencrypted_size, a LE u24 on the wire
	name     string // blob_name, valid iff chunkPos == 0

	payload []byte // chunk_payload; decoded records carry the full capacity for their role, NUL padding included, while a record built for a new blob may carry fewer bytes, which encode pads with NULs
}

// isHead reports whether the record is the head of a blob chain.
func (r *record) isHead() bool { return r.age != 0 && r.chunkPos == 0 }

// isTail reports whether the record is the tail of its chain (the chain's
// unique self-pointing record).
func (r *record) isTail() bool { return r.age != 0 && int(r.nextIndex) == r.index }

// isFree reports whether the record is unallocated.
func (r *record) isFree() bool { return r.age == 0 }

// putU24 writes the low 24 bits of v to buf in little-endian order.
func putU24(buf []byte, v uint32) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
}

// u24 reads a little-endian 24-bit unsigned integer from buf.
func u24(buf []byte) uint32 {
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16
}

// encode serializes r to a geo.ObjectSize-byte slice per §3.1/§4.1.
//
// Padding bytes are always zero, so that encoding the same logical state
// twice yields bit-identical output (required for a deterministic on-card
// byte layout).
func (r *record) encode(geo Geometry) []byte {
	buf := make([]byte, geo.ObjectSize)

	binary.LittleEndian.PutUint32(buf[offMagic:], yblobMagic)
	buf[offObjectCount] = byte(geo.Count)
	buf[offKeySlot] = geo.KeySlot
	putU24(buf[offAge:], r.age)

	if r.age == 0 {
		// Free record: remaining fields and payload stay zero.
		return buf
	}

	buf[offChunkPos] = r.chunkPos
	buf[offNextIndex] = r.nextIndex

	payloadStart := bodyOverhead

	if r.chunkPos == 0 {
		binary.LittleEndian.PutUint32(buf[offModTime:], r.modTime)
		putU24(buf[offBlobSize:], r.blobSize)
		buf[offEncSlot] = r.encSlot
		putU24(buf[offUnencSize:], r.unenc)
		buf[offNameLen] = byte(len(r.name))
		copy(buf[offName:], r.name)

		payloadStart = offName + len(r.name)
	}

	copy(buf[payloadStart:], r.payload)

	return buf
}

// decodeRecord parses one geo.ObjectSize-byte object into a record at the
// given index.
//
// decodeRecord validates only what §4.1 calls structural: magic, N, and
// slot ID. A well-formed record whose age/chain fields are internally
// inconsistent decodes successfully; [Sanitize] is responsible for
// repairing such rot.
func decodeRecord(geo Geometry, index int, buf []byte) (record, error) {
	if len(buf) < storeHeaderSize {
		return record{}, fmt.Errorf("record %d: %d bytes, need at least %d: %w", index, len(buf), storeHeaderSize, ErrShortRecord)
	}

	magic := binary.LittleEndian.Uint32(buf[offMagic:])
	if magic != yblobMagic {
		return record{}, fmt.Errorf("record %d: magic 0x%08x, want 0x%08x: %w", index, magic, yblobMagic, ErrBadMagic)
	}

	if int(buf[offObjectCount]) != geo.Count {
		return record{}, fmt.Errorf("record %d: object_count_in_store %d, want %d: %w", index, buf[offObjectCount], geo.Count, ErrBadGeometry)
	}

	if buf[offKeySlot] != geo.KeySlot {
		return record{}, fmt.Errorf("record %d: store_encryption_key_slot 0x%02x, want 0x%02x: %w", index, buf[offKeySlot], geo.KeySlot, ErrBadGeometry)
	}

	r := record{index: index, age: u24(buf[offAge:])}

	if r.age == 0 {
		return r, nil
	}

	if len(buf) < chunkHeaderEnd {
		return record{}, fmt.Errorf("record %d: %d bytes, need at least %d for a chunk header: %w", index, len(buf), chunkHeaderEnd, ErrShortRecord)
	}

	r.chunkPos = buf[offChunkPos]
	r.nextIndex = buf[offNextIndex]

	payloadStart := bodyOverhead

	if r.chunkPos == 0 {
		if len(buf) < offName {
			return record{}, fmt.Errorf("record %d: %d bytes, need at least %d for a blob head: %w", index, len(buf), offName, ErrShortRecord)
		}

		r.modTime = binary.LittleEndian.Uint32(buf[offModTime:])
		r.blobSize = u24(buf[offBlobSize:])
		r.encSlot = buf[offEncSlot]
		r.unenc = u24(buf[offUnencSize:])

		nameLen := int(buf[offNameLen])
		payloadStart = offName + nameLen

		if len(buf) < payloadStart {
			return record{}, fmt.Errorf("record %d: %d bytes, need at least %d for a %d-byte name: %w", index, len(buf), payloadStart, nameLen, ErrShortRecord)
		}

		r.name = string(buf[offName:payloadStart])
	}

	if len(buf) < geo.ObjectSize {
		return record{}, fmt.Errorf("record %d: %d bytes, need %d: %w", index, len(buf), geo.ObjectSize, ErrShortRecord)
	}

	r.payload = buf[payloadStart:geo.ObjectSize]

	return r, nil
}

// reset clears a record back to the free state (§4.6: Head|Body -> Free).
func (r *record) reset() {
	idx := r.index
	*r = record{index: idx}
}
