// Package memory provides an in-process KV engine backed by a sharded map.
//
// Contents do not survive a restart. It is used by tests and by the
// "memory" storage engine for throwaway sessions.
package memory
