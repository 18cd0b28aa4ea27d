// Package array implements unbounded, append-only arrays on top of a key-value
// store whose values are limited in size (store.IStore).
//
// An Array splits its JSON encoded content across numbered shards. Each shard
// is a single store value that never exceeds Options.MaxShardSize bytes. New
// elements are appended to the current shard. When it would grow beyond the
// limit, or the store rejects the value, trailing elements are moved to the
// next shard, which then becomes the current one. Reading concatenates all
// shards in ascending index order.
//
// Key Components:
//
//   - Array: the sharded list. The shards are loaded lazily on first use and
//     kept in an in-memory cache afterward. Unload drops the cache, Clear
//     deletes the array from the store.
//
//   - Transformer: an optional pair of functions applied to every element
//     before it is encoded (OnWrite) and after it is decoded (OnRead), e.g.
//     to store a compact form of an element.
//
//   - Views: GetAll, Values, All, Has, Find, Filter, Map, ForEach, Some,
//     Every and Size never write to the store.
//
// Store layout (prefix "array", id "users"):
//
//	array:users0        ["alice","bob"]
//	array:users1        ["carol"]
//	array:index_users   1
//
// Example:
//
//	users, err := array.New[string](s, "users", nil)
//	if err != nil { ... }
//	if err := users.Add("alice"); err != nil { ... }
//	for user := range users.Values() {
//		fmt.Println(user)
//	}
//	if err := users.Err(); err != nil { ... }
//
// Malformed shard keys and undecodable shard values are logged (logger
// "array") and skipped. The package exports VictoriaMetrics counters per key
// prefix (darray_shard_writes_total, darray_shard_overflows_total,
// darray_loads_total, darray_invalid_keys_total).
package array
