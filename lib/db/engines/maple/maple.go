package maple

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/dArray/lib/db"
	"github.com/ValentinKolb/dArray/lib/db/engines/maple/internal"
	"github.com/ValentinKolb/dArray/lib/db/util"
	"io"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Constants for database behavior and structure
const (
	magicNum     = "MAPLEDB\x00" // File format identifier
	mapleVersion = 4             // Database version (v4 stores the original keys)
)

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

// mapleImpl implements a high-performance database with sharded data
type mapleImpl struct {
	numShards int               // Number of shards
	seed      uint64            // Seed for hash function
	shards    []*internal.Shard // Array of shards
	currIndex atomic.Uint64     // Current logical timestamp
}

// DBOptions configures the mapleImpl behavior during initialization
type DBOptions struct {
	NumShards int // Number of shards (0 = auto)
}

// DefaultOptions returns the default mapleImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumShards: runtime.NumCPU(), // Auto-determine based on CPU count
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMapleDB creates a new MapleDB instance with the specified options (optional)
//
// Thread-safety: This function is not thread-safe and should only be called once
// during initialization.
func NewMapleDB(opts *DBOptions) db.KVDB {

	// Generate default options if not provided
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.NumShards <= 0 {
		opts.NumShards = runtime.NumCPU()
	}

	newDB := &mapleImpl{
		numShards: opts.NumShards,
		seed:      util.GenerateSeed(),
	}
	newDB.shards = newShards(opts.NumShards)
	newDB.currIndex.Store(0)

	return newDB
}

// newShards creates numShards empty shards
func newShards(numShards int) []*internal.Shard {
	hasher := createIdentityHasher()
	shards := make([]*internal.Shard, numShards)
	for i := 0; i < numShards; i++ {
		shards[i] = internal.NewShard(hasher)
	}
	return shards
}

// --------------------------------------------------------------------------
// Hash Helper Functions
// --------------------------------------------------------------------------

// StringToUint64 converts a string to a util.UintKey with hashing
// and applies the mapleImpl seed to ensure uniqueness between mapleImpl instances
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) StringToUint64(s string) util.UintKey {
	return util.HashString(s, maple.seed)
}

// createIdentityHasher creates a hash function that combines a key with a seed
func createIdentityHasher() func(util.UintKey, uint64) uint64 {
	return func(key util.UintKey, mapSeed uint64) uint64 {
		return uint64(key) ^ mapSeed
	}
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Set inserts or updates an entry with the given key, value, and writeIndex.
// If the key already exists, the old value is overwritten.
// Writes with a writeIndex lower than the stored one are ignored.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Set(key string, value []byte, writeIndex uint64) {

	// update the current index
	maple.SetWriteIdx(writeIndex)

	intKey := maple.StringToUint64(key)
	shard := internal.GetShard(intKey, maple.shards)

	// Copy value to prevent memory corruption
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	shard.Data.Compute(intKey, func(oldEntry internal.Entry, loaded bool) (internal.Entry, bool) {
		// stale writes are ignored
		if loaded && oldEntry.Matches(key) && writeIndex < oldEntry.Index {
			return oldEntry, false
		}
		return internal.Entry{
			Key:   key,
			Value: valueCopy,
			Index: writeIndex,
		}, false
	})
}

// Delete removes an entry with the specified key.
// The key and value are removed from the database immediately.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Delete(key string, writeIndex uint64) {

	// update the current index
	maple.SetWriteIdx(writeIndex)

	intKey := maple.StringToUint64(key)
	shard := internal.GetShard(intKey, maple.shards)

	shard.Data.Compute(intKey, func(oldEntry internal.Entry, loaded bool) (internal.Entry, bool) {
		// nothing to delete (returning true also prevents the entry from being created)
		if !loaded {
			return oldEntry, true
		}

		// keep entries of other keys and entries newer than this delete
		if !oldEntry.Matches(key) || writeIndex < oldEntry.Index {
			return oldEntry, false
		}

		// help the go gc
		oldEntry.Value = nil
		return oldEntry, true
	})
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves a value for a key.
// The returned value is a copy of the stored data and therefore safe to use and modify.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Get(key string) ([]byte, bool) {

	// Convert string to integer key
	intKey := maple.StringToUint64(key)
	shard := internal.GetShard(intKey, maple.shards)

	entry, ok := shard.Data.Load(intKey)
	if !ok || !entry.Matches(key) {
		return nil, false
	}

	data := make([]byte, len(entry.Value))
	copy(data, entry.Value)
	return data, true
}

// Has checks if a key exists in the database.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Has(key string) bool {
	intKey := maple.StringToUint64(key)
	shard := internal.GetShard(intKey, maple.shards)

	entry, ok := shard.Data.Load(intKey)
	return ok && entry.Matches(key)
}

// Keys returns all keys starting with prefix. The result is sorted to give
// callers (and tests) a stable order.
//
// Thread-safety: This method is thread-safe, but it is not a snapshot: keys
// written concurrently may or may not be part of the result.
func (maple *mapleImpl) Keys(prefix string) []string {
	keys := make([]string, 0)
	for _, shard := range maple.shards {
		shard.Data.Range(func(_ util.UintKey, entry internal.Entry) bool {
			if strings.HasPrefix(entry.Key, prefix) {
				keys = append(keys, entry.Key)
			}
			return true
		})
	}
	sort.Strings(keys)
	return keys
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// Save persists the database to the writer
// Concurrent reading and writing is allowed during Save operation
//
// Thread-safety: This function allows concurrent operations with all other functions
// except Load. It takes snapshots of the data without blocking modifications.
func (maple *mapleImpl) Save(w io.Writer) error {
	// Use a buffered writer for better performance
	bw := bufio.NewWriterSize(w, 1024*1024) // 1 MB buffer

	// Collect deep copies of all entries
	var entries []internal.Entry
	for _, shard := range maple.shards {
		shard.Data.Range(func(_ util.UintKey, entry internal.Entry) bool {
			valueCopy := make([]byte, len(entry.Value))
			copy(valueCopy, entry.Value)
			entries = append(entries, internal.Entry{
				Key:   entry.Key,
				Value: valueCopy,
				Index: entry.Index,
			})
			return true
		})
	}

	// Write file header
	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}

	// Write maple version
	if err := binary.Write(bw, binary.LittleEndian, uint8(mapleVersion)); err != nil {
		return err
	}

	// Write seed
	if err := binary.Write(bw, binary.LittleEndian, maple.seed); err != nil {
		return err
	}

	// Write total data entries count
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(entries))); err != nil {
		return err
	}

	// Write data entries
	for _, entry := range entries {

		// Write key length and key
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(entry.Key))); err != nil {
			return err
		}
		if _, err := bw.WriteString(entry.Key); err != nil {
			return err
		}

		// Write created index
		if err := binary.Write(bw, binary.LittleEndian, entry.Index); err != nil {
			return err
		}

		// Write value length and value bytes
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(entry.Value))); err != nil {
			return err
		}
		if _, err := bw.Write(entry.Value); err != nil {
			return err
		}
	}

	// Flush buffer to ensure all data is written
	return bw.Flush()
}

// Load restores a database from the reader. The current content is replaced.
//
// Thread-safety: This function is not thread-safe and should not be called concurrently
func (maple *mapleImpl) Load(r io.Reader) error {

	// Use a buffered reader for better performance
	br := bufio.NewReaderSize(r, 1024*1024) // 1 MB buffer

	// Read and verify magic number
	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return err
	}

	if string(magicBytes) != magicNum {
		return fmt.Errorf("invalid file format: magic number mismatch")
	}

	// Read and verify version
	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}

	if int(version) != mapleVersion {
		return fmt.Errorf("unsupported version: %d (expected %d)", version, mapleVersion)
	}

	// Read seed
	var seed uint64
	if err := binary.Read(br, binary.LittleEndian, &seed); err != nil {
		return err
	}

	// Read data entries count
	var dataCount uint64
	if err := binary.Read(br, binary.LittleEndian, &dataCount); err != nil {
		return err
	}

	// Recreate empty shards with the loaded seed
	shards := newShards(maple.numShards)

	// Track the highest index seen during load
	var maxIndex uint64 = 0

	for i := uint64(0); i < dataCount; i++ {
		// Read key
		var keyLen uint32
		if err := binary.Read(br, binary.LittleEndian, &keyLen); err != nil {
			return err
		}
		keyBytes := make([]byte, keyLen)
		if _, err := io.ReadFull(br, keyBytes); err != nil {
			return err
		}

		// Read created index
		var createdIndex uint64
		if err := binary.Read(br, binary.LittleEndian, &createdIndex); err != nil {
			return err
		}
		if createdIndex > maxIndex {
			maxIndex = createdIndex
		}

		// Read value
		var valueLen uint32
		if err := binary.Read(br, binary.LittleEndian, &valueLen); err != nil {
			return err
		}
		value := make([]byte, valueLen)
		if _, err := io.ReadFull(br, value); err != nil {
			return err
		}

		key := string(keyBytes)
		intKey := util.HashString(key, seed)
		internal.GetShard(intKey, shards).Data.Store(intKey, internal.Entry{
			Key:   key,
			Value: value,
			Index: createdIndex,
		})
	}

	// swap in the loaded state only after the whole stream was read
	maple.shards = shards
	maple.seed = seed
	maple.currIndex.Store(0)
	maple.SetWriteIdx(maxIndex)

	return nil
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the database
func (maple *mapleImpl) GetInfo() db.DatabaseInfo {
	sizeBytes := 0
	keyCount := 0
	shardSizes := make([]int, len(maple.shards))

	for i, shard := range maple.shards {
		shard.Data.Range(func(_ util.UintKey, entry internal.Entry) bool {
			sizeBytes += entry.SizeBytes()
			keyCount++
			return true
		})
		shardSizes[i] = shard.Data.Size()
	}

	minShard, maxShard := 0, 0
	if len(shardSizes) > 0 {
		minShard, maxShard = shardSizes[0], shardSizes[0]
		for _, s := range shardSizes[1:] {
			minShard = min(minShard, s)
			maxShard = max(maxShard, s)
		}
	}

	// Metadata for this specific database implementation
	meta := &struct {
		CurrentWriteIndex uint64 `json:"current_write_index"`
		ShardCount        int    `json:"shard_count"`
		MinShardSize      int    `json:"min_shard_size"`
		MaxShardSize      int    `json:"max_shard_size"`
	}{
		CurrentWriteIndex: maple.currIndex.Load(),
		ShardCount:        len(maple.shards),
		MinShardSize:      minShard,
		MaxShardSize:      maxShard,
	}

	return db.DatabaseInfo{
		SizeBytes: sizeBytes,
		KeyCount:  keyCount,
		DbType:    db.ImplMaple,
		SupportedFeatures: []db.Feature{
			db.FeatureSet, db.FeatureGet, db.FeatureDelete, db.FeatureHas,
			db.FeatureKeys, db.FeatureSave, db.FeatureLoad,
		},
		Metadata: meta,
	}
}

// SupportsFeature checks if this implementation supports a specific KVDB feature
func (maple *mapleImpl) SupportsFeature(feature db.Feature) bool {
	supportedFeatures := db.FeatureSet |
		db.FeatureGet |
		db.FeatureDelete |
		db.FeatureHas |
		db.FeatureKeys |
		db.FeatureSave |
		db.FeatureLoad
	return supportedFeatures&feature == feature
}

// Close is a no-op, maple holds no external resources
func (maple *mapleImpl) Close() error {
	return nil
}

// --------------------------------------------------------------------------
// Index and Timestamp Management
// --------------------------------------------------------------------------

// SetWriteIdx safely updates the current index
// It only updates if the new index is greater than the current one
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) SetWriteIdx(newIdx uint64) {
	for {
		currIdx := maple.currIndex.Load()
		if newIdx <= currIdx {
			return
		}
		if maple.currIndex.CompareAndSwap(currIdx, newIdx) {
			return
		}
	}
}

// WriteIdx returns the current index of the database
func (maple *mapleImpl) WriteIdx() uint64 {
	return maple.currIndex.Load()
}
