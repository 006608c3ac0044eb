// Package snapshot persists a bounded copy of a feed's list together with
// the filters it was fetched under, so the feed can be shown again
// without waiting on the network.
//
// Each Store owns exactly one KV key. The stored value is a small JSON
// frame:
//
//	{"format":1,"cipher":"aes-gcm","payload":"<base64>"}
//
// where payload is either the JSON record itself (cipher "") or the
// record sealed by a pkg/crypto/adaptive cipher with the KV key as
// additional data. The record carries schemaVersion, capturedAt, filters
// and the item tail.
//
// A stored record is only handed back by TryRestore when its schema is new
// enough and its filters equal the caller's; any other record is erased
// on sight. Peek and List only read, for inspection.
package snapshot
