package yblob

import "unicode/utf8"

// Sanitize restores the invariants of §3.4 on s, in place, in three
// sequential passes (§4.5). It performs no device I/O; it only resets
// records in memory and marks them dirty, exactly like any other
// in-memory mutation, so that a subsequent [Store.Sync] persists the
// repair.
//
// Sanitize is a pure function of the Store's in-memory state: calling it
// twice in a row is a no-op the second time (§8 L4).
//
// Callers must run Sanitize after every [Load] and before acting on the
// result (spec §2's control-flow rule); [Load] itself does not call it,
// so that tests can inspect a raw, unsanitized load when needed.
func Sanitize(s *Store) {
	sanitizeDropCorruptHeads(s)
	sanitizeResolveDuplicateNames(s)
	sanitizeSweepUnreachable(s)
}

// sanitizeDropCorruptHeads is pass 1: walk every head's chain, resetting
// the head (only) if the chain is structurally broken.
func sanitizeDropCorruptHeads(s *Store) {
	n := len(s.recs)

	for i := range s.recs {
		head := &s.recs[i]
		if !head.isHead() {
			continue
		}

		if !utf8.ValidString(head.name) {
			s.resetRecord(i)

			continue
		}

		if !chainIsWellFormed(s, i, n) {
			s.resetRecord(i)
		}
	}
}

// chainIsWellFormed walks the chain starting at head index i and checks,
// at every hop, that: the successor index is in range, the successor's
// age is exactly one more than the current record's age, and the
// successor's chunk_pos_in_blob equals its hop distance from the head
// (§3.4 invariants 3-4).
func chainIsWellFormed(s *Store, i, n int) bool {
	head := s.recs[i]
	cur := head

	for hop := 0; ; hop++ {
		if cur.isTail() {
			return true
		}

		if hop >= n {
			// Walked more hops than there are records without reaching a
			// self-pointer: the chain cannot be valid (§3.3 says the
			// chain length is bounded by N).
			return false
		}

		next := int(cur.nextIndex)
		if next < 0 || next >= n {
			return false
		}

		succ := s.recs[next]
		if succ.age == 0 {
			return false
		}

		if succ.age != head.age+uint32(hop)+1 {
			return false
		}

		if int(succ.chunkPos) != hop+1 {
			return false
		}

		cur = succ
	}
}

// sanitizeResolveDuplicateNames is pass 2: among heads that survived pass
// 1, group by name and keep only the one with the largest object_age
// (§3.4 invariant 5).
func sanitizeResolveDuplicateNames(s *Store) {
	bestByName := make(map[string]int)

	for i := range s.recs {
		if !s.recs[i].isHead() {
			continue
		}

		name := s.recs[i].name

		best, ok := bestByName[name]
		if !ok || s.recs[i].age > s.recs[best].age {
			bestByName[name] = i
		}
	}

	keep := make(map[int]bool, len(bestByName))
	for _, i := range bestByName {
		keep[i] = true
	}

	for i := range s.recs {
		if s.recs[i].isHead() && !keep[i] {
			s.resetRecord(i)
		}
	}
}

// sanitizeSweepUnreachable is pass 3: any non-free record not reachable
// by walking from a surviving head to its self-pointer is garbage and is
// reset (§3.4 invariant 6).
func sanitizeSweepUnreachable(s *Store) {
	n := len(s.recs)
	reachable := make([]bool, n)

	for i := range s.recs {
		if !s.recs[i].isHead() {
			continue
		}

		cur := i
		for hop := 0; hop <= n; hop++ {
			reachable[cur] = true

			if s.recs[cur].isTail() {
				break
			}

			cur = int(s.recs[cur].nextIndex)
		}
	}

	for i := range s.recs {
		if s.recs[i].age != 0 && !reachable[i] {
			s.resetRecord(i)
		}
	}
}
