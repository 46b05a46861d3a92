// Package yblob turns a hardware security token's PIV application into a
// small, named blob store.
//
// A Store is backed by a fixed array of N equally-sized PIV data objects
// ("records") reachable through a [Device]. Blobs are split into one or
// more chunks, each chunk occupying one record, linked into a
// singly-linked chain. A [Sanitize] pass run after every load repairs the
// layout left by a partial write, a duplicate-name race, or a chunk
// orphaned by a crash mid-delete.
//
// # Basic usage
//
//	store, err := yblob.Load(dev)
//	if err != nil {
//	    // err may wrap ErrBadMagic/ErrBadGeometry/ErrShortRecord: the
//	    // device is not formatted for yblob, or is corrupt beyond repair.
//	}
//	yblob.Sanitize(store)
//
//	err = store.StoreBlob("config", payload, yblob.Plaintext, cred)
//	payload, err := store.FetchBlob("config", cred)
//	removed, err := store.RemoveBlob("config", cred)
//	entries := store.List()
//
// # Concurrency
//
// A [Store] is not safe for concurrent use. The system assumes exclusive,
// single-threaded control of one device for the duration of one operation
// (spec: one host, one token, one operation at a time); there is no
// cross-process coordination because there is only one process, ever.
//
// # Crash safety
//
// [Store.Sync] writes only dirty records, in increasing index order, and
// the blob engine chooses the record write order ([Store.StoreBlob] writes
// tail-to-head, [Store.RemoveBlob] writes head-to-tail) so that a transport
// failure partway through a sync leaves the device either in the
// pre-operation state or in a state [Sanitize] fully repairs on next load.
package yblob
