package yblob

// Hardcoded implementation limits.
//
// These bound object_size and object_count_in_store to the ranges §3.1
// declares valid for any device's command-and-response buffer; they are
// not tunable, since a geometry outside them cannot round-trip through a
// PIV APDU regardless of which token enforces it.
const (
	// minObjectSize is the smallest object_size able to hold a store
	// header plus one head-chunk byte of payload (§3.1).
	minObjectSize = 10

	// maxObjectSize is the largest object_size a PIV data object APDU can
	// address without extended length encoding on the hosts this spec
	// targets (§3.1).
	maxObjectSize = 3052

	// minObjectCount and maxObjectCount bound N: object_count_in_store is
	// a single byte on the wire (§3.1), and at least one record is needed
	// to hold anything.
	minObjectCount = 1
	maxObjectCount = 255
)
