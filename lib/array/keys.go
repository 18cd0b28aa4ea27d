package array

import (
	"strconv"
	"strings"
)

// shardKeyPrefix returns the common prefix of all shard keys: {prefix}:{id}
func shardKeyPrefix(prefix, id string) string {
	return prefix + ":" + id
}

// shardKey returns the key of a shard: {prefix}:{id}{index}
func shardKey(prefix, id string, index int) string {
	return shardKeyPrefix(prefix, id) + strconv.Itoa(index)
}

// indexKey returns the key holding the current shard index: {prefix}:index_{id}
func indexKey(prefix, id string) string {
	return prefix + ":index_" + id
}

// parseShardIndex extracts the shard index from a key returned by a prefix
// enumeration of shardKeyPrefix. The remainder must be a canonical
// non-negative decimal ("7", not "+7" or "07").
//
// There is no separator between id and index: shard 0 of an array "list1"
// and shard 10 of an array "list" share a key. Ids must not extend each
// other with digits.
func parseShardIndex(key, keyPrefix string) (int, bool) {
	suffix, ok := strings.CutPrefix(key, keyPrefix)
	if !ok || suffix == "" {
		return 0, false
	}
	index, err := strconv.Atoi(suffix)
	if err != nil || index < 0 || strconv.Itoa(index) != suffix {
		return 0, false
	}
	return index, true
}
