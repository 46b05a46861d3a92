package yblob

import (
	"bytes"
	"errors"
	"testing"
)

func testGeo() Geometry {
	return Geometry{ObjectSize: 64, Count: 4, KeySlot: 0x9d}
}

func TestRecordEncodeDecode_Free(t *testing.T) {
	geo := testGeo()
	r := record{index: 2}

	buf := r.encode(geo)
	if got, want := len(buf), geo.ObjectSize; got != want {
		t.Fatalf("encoded length = %d, want %d", got, want)
	}

	got, err := decodeRecord(geo, 2, buf)
	if err != nil {
		t.Fatalf("decodeRecord: %v", err)
	}

	if !got.isFree() {
		t.Fatalf("decoded record should be free, got %+v", got)
	}
}

func TestRecordEncodeDecode_Head(t *testing.T) {
	geo := testGeo()
	r := record{
		index:     1,
		age:       5,
		chunkPos:  0,
		nextIndex: 1, // self-pointing tail
		modTime:   1700000000,
		blobSize:  4,
		encSlot:   0x9d,
		unenc:     4,
		name:      "config",
		payload:   []byte("abcd"),
	}

	buf := r.encode(geo)

	got, err := decodeRecord(geo, 1, buf)
	if err != nil {
		t.Fatalf("decodeRecord: %v", err)
	}

	if got.age != r.age || got.chunkPos != r.chunkPos || got.nextIndex != r.nextIndex {
		t.Fatalf("header mismatch: got %+v, want age/chunkPos/nextIndex matching %+v", got, r)
	}

	if got.name != r.name {
		t.Fatalf("name = %q, want %q", got.name, r.name)
	}

	// A decoded record carries its whole capacity: the payload followed by
	// NUL padding.
	wantPayload := make([]byte, geo.PayloadCapacity(r.name))
	copy(wantPayload, r.payload)

	if !bytes.Equal(got.payload, wantPayload) {
		t.Fatalf("payload = %q, want %q", got.payload, wantPayload)
	}

	if !got.isHead() || !got.isTail() {
		t.Fatalf("decoded record should be head and tail: %+v", got)
	}
}

func TestRecordEncode_PaddingIsZero(t *testing.T) {
	geo := testGeo()
	r := record{
		index:     0,
		age:       1,
		chunkPos:  0,
		nextIndex: 0,
		name:      "x",
		payload:   []byte{0xAA},
	}

	bufA := r.encode(geo)
	bufB := r.encode(geo)

	if !bytes.Equal(bufA, bufB) {
		t.Fatalf("encoding the same record twice produced different bytes")
	}

	// Everything past the payload the record actually set should be zero.
	tail := bufA[offName+len(r.name)+len(r.payload):]
	for i, b := range tail {
		if b != 0 {
			t.Fatalf("padding byte %d = %#x, want 0", i, b)
		}
	}
}

func TestDecodeRecord_BadMagic(t *testing.T) {
	geo := testGeo()
	buf := make([]byte, geo.ObjectSize)
	buf[geo.ObjectSize-1] = 1 // ensure not all-zero, still wrong magic regardless

	_, err := decodeRecord(geo, 0, buf)
	if err == nil {
		t.Fatal("expected an error for bad magic")
	}
}

func TestDecodeRecord_ShortBuffer(t *testing.T) {
	geo := testGeo()

	_, err := decodeRecord(geo, 0, make([]byte, 3))
	if err == nil {
		t.Fatal("expected an error for a too-short buffer")
	}
}

func TestDecodeRecord_TornPayloadReturnsShortRecord(t *testing.T) {
	geo := testGeo()
	r := record{
		index:     1,
		age:       5,
		chunkPos:  0,
		nextIndex: 1,
		name:      "config",
		payload:   bytes.Repeat([]byte{0xAA}, geo.ObjectSize-offName-len("config")),
	}

	full := r.encode(geo)

	// Simulate a torn write that landed only half the record: long enough
	// to pass the header/name checks, too short to hold the full payload.
	torn := full[:offName+len("config")+2]

	_, err := decodeRecord(geo, 1, torn)
	if !errors.Is(err, ErrShortRecord) {
		t.Fatalf("decodeRecord on a torn record = %v, want ErrShortRecord", err)
	}
}

func TestRecordReset(t *testing.T) {
	r := record{index: 3, age: 9, name: "foo", payload: []byte("bar")}
	r.reset()

	if !r.isFree() {
		t.Fatalf("reset record should be free, got %+v", r)
	}

	if r.index != 3 {
		t.Fatalf("reset should preserve index, got %d", r.index)
	}
}

func TestU24RoundTrip(t *testing.T) {
	buf := make([]byte, 3)
	putU24(buf, 0xABCDEF)

	if got, want := u24(buf), uint32(0xABCDEF); got != want {
		t.Fatalf("u24 round trip = %#x, want %#x", got, want)
	}
}
