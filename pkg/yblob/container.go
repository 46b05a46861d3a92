package yblob

import "fmt"

// Store owns the array of N records backing one device, plus its running
// age high-water mark (§3.2, §3.5).
//
// A Store is created by [Format] (all records free) or read back by
// [Load]. It exclusively owns its records in memory; the only thing a
// record borrows from the Store is a copy of its [Geometry], never a
// back-reference.
type Store struct {
	dev   Device
	geo   Geometry
	age   uint32 // store_age: max of all record ages
	recs  []record
	dirty []bool
}

// Geometry returns the store's geometry.
func (s *Store) Geometry() Geometry { return s.geo }

// Age returns the current store_age.
func (s *Store) Age() uint32 { return s.age }

// Load reads all N records from dev and returns the resulting Store,
// without running [Sanitize] (§4.2 load_from_device).
//
// Load reads index 0 first to learn object_size (the length of the bytes
// read back) and N (the byte at offset 4), then reads indices 1..N-1,
// validating each record's store-wide header against index 0.
//
// Callers performing a user-facing operation should call [Sanitize] on the
// result before doing anything else, per spec §2's control-flow rule.
func Load(dev Device) (*Store, error) {
	first, err := dev.ReadObject(ObjectID(baseObjectID))
	if err != nil {
		return nil, fmt.Errorf("read object 0: %w", err)
	}

	if len(first) < storeHeaderSize {
		return nil, fmt.Errorf("object 0: %d bytes, need at least %d: %w", len(first), storeHeaderSize, ErrShortRecord)
	}

	geo := Geometry{
		ObjectSize: len(first),
		Count:      int(first[offObjectCount]),
		KeySlot:    first[offKeySlot],
	}

	if err := geo.Validate(); err != nil {
		return nil, err
	}

	recs := make([]record, geo.Count)

	rec0, err := decodeRecord(geo, 0, first)
	if err != nil {
		return nil, err
	}

	recs[0] = rec0

	for i := 1; i < geo.Count; i++ {
		buf, err := dev.ReadObject(geo.ObjectID(i))
		if err != nil {
			return nil, fmt.Errorf("read object %d: %w", i, err)
		}

		rec, err := decodeRecord(geo, i, buf)
		if err != nil {
			return nil, err
		}

		recs[i] = rec
	}

	s := &Store{dev: dev, geo: geo, recs: recs, dirty: make([]bool, geo.Count)}

	for i := range recs {
		if recs[i].age > s.age {
			s.age = recs[i].age
		}
	}

	return s, nil
}

// Format writes a brand-new, all-free Store of the given geometry to dev,
// then returns a handle to it (§3.2: "the store is created by format").
func Format(dev Device, geo Geometry) (*Store, error) {
	if err := geo.Validate(); err != nil {
		return nil, err
	}

	recs := make([]record, geo.Count)
	dirty := make([]bool, geo.Count)

	for i := range recs {
		recs[i] = record{index: i}
		dirty[i] = true
	}

	s := &Store{dev: dev, geo: geo, recs: recs, dirty: dirty}

	if err := s.Sync(Credentials{}); err != nil {
		return nil, err
	}

	return s, nil
}

// allocateFreeIndex scans for the first free record (age == 0), bumps its
// age to the reservation sentinel 1, marks it dirty, and returns its
// index (§4.2).
//
// The reservation bump means a subsequent call within the same operation
// will not hand back the same index, even before the final age is
// assigned. Callers performing a multi-chunk allocation should assign
// final ages to every reserved index only after all of them have been
// claimed (§9 open question 1).
func (s *Store) allocateFreeIndex() (int, error) {
	for i := range s.recs {
		if s.recs[i].isFree() {
			s.recs[i].age = 1
			s.dirty[i] = true

			return i, nil
		}
	}

	return 0, ErrStoreFull
}

// releaseReserved reverts an in-memory-only reservation made by
// allocateFreeIndex, for the StoreFull rollback case in §4.3 step 2: "on
// StoreFull during allocation, release any indices already taken only in
// memory (do not write anything to the device)".
func (s *Store) releaseReserved(indices []int) {
	for _, i := range indices {
		s.recs[i].reset()
		s.dirty[i] = false
	}
}

// commit stores rec at its index, bumps store_age if needed, and marks
// the record dirty (§4.2).
func (s *Store) commit(rec record) {
	s.recs[rec.index] = rec
	s.dirty[rec.index] = true

	if rec.age > s.age {
		s.age = rec.age
	}
}

// resetRecord clears a record to the free state and marks it dirty
// (§4.6: Head|Body -> Free).
func (s *Store) resetRecord(index int) {
	s.recs[index].reset()
	s.dirty[index] = true
}

// Sync writes every dirty record back to dev, in increasing index order,
// then clears the dirty flags (§4.2, §5 "writes are issued in increasing
// record-index order").
//
// The blob engine controls which records are dirty and in what *logical*
// order they were staged; Sync itself always flushes in index order
// regardless of staging order, since index order is what the spec
// requires for every commit, independent of which operation produced it.
func (s *Store) Sync(cred Credentials) error {
	for i := range s.recs {
		if !s.dirty[i] {
			continue
		}

		buf := s.recs[i].encode(s.geo)

		if err := s.dev.WriteObject(s.geo.ObjectID(i), buf, cred); err != nil {
			return fmt.Errorf("write object %d: %w", i, err)
		}

		s.dirty[i] = false
	}

	return nil
}

// syncIndices writes only the given record indices, in the given order,
// then clears their dirty flags. Used by the blob engine to enforce the
// tail-first/head-last (store) or head-first/tail-last (remove) ordering
// required for crash safety (§4.3), while every other Store mutation still
// goes through the index-ordered [Store.Sync].
func (s *Store) syncIndices(cred Credentials, order []int) error {
	for _, i := range order {
		if !s.dirty[i] {
			continue
		}

		buf := s.recs[i].encode(s.geo)

		if err := s.dev.WriteObject(s.geo.ObjectID(i), buf, cred); err != nil {
			return fmt.Errorf("write object %d: %w", i, err)
		}

		s.dirty[i] = false
	}

	return nil
}

// PayloadCapacity returns how many payload bytes fit in a chunk of the
// given kind; see [Geometry.PayloadCapacity].
func (s *Store) PayloadCapacity(name string) int {
	return s.geo.PayloadCapacity(name)
}
