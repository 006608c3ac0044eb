// Package storage provides the durable key/value capability used by the
// feed snapshot store.
//
// Three engines implement KVEngine:
//
//   - BadgerEngine (this package): embedded LSM store, the default
//   - memory.Store: sharded in-process map, for tests and ephemeral runs
//   - sqlitekv.Store: a single-table SQLite database
//
// All engines return ErrKeyNotFound for missing keys and are safe for
// concurrent use.
package storage
