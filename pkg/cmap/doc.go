// Package cmap provides a sharded, concurrent-safe map keyed by strings.
//
// Keys are spread over a power-of-two number of shards by a seeded
// murmur3 hash; each shard carries its own RWMutex.
//
//	m := cmap.New[string, []byte]()
//	m.Set("feed/recommendations", payload)
//	val, ok := m.Get("feed/recommendations")
//
// Range and Keys lock one shard at a time, so they observe a consistent
// view of each shard but not of the whole map.
package cmap
