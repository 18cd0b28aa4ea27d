package testing

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/ValentinKolb/dArray/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory())
		})

		t.Run("Keys", func(t *testing.T) {
			testKeys(t, factory())
		})

		t.Run("StaleWrites", func(t *testing.T) {
			testStaleWrites(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("ConcurrentWriters", func(t *testing.T) {
			testConcurrentWriters(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	database.Set(testKey, testValue1, 1)

	result, exists := database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}

	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	database.Set(testKey, testValue2, 2)

	result, exists = database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}

	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	_, exists = database.Get("nonexistent-key")
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	// the returned value must be a copy
	retrievedValue, _ := database.Get(testKey)
	retrievedValue[0] = 'X'

	result, _ = database.Get(testKey)
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Modifying a returned value changed the stored value: %s", result)
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)
	requireFeature(t, database, db.FeatureDelete)

	testKey := "delete-test-key"
	testValue := []byte("delete-test-value")

	database.Set(testKey, testValue, 1)

	if _, exists := database.Get(testKey); !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}

	database.Delete(testKey, 10)

	if _, exists := database.Get(testKey); exists {
		t.Errorf("Expected key %s to not exist after Delete", testKey)
	}

	// deleting a missing key must not create it
	database.Delete("nonexistent-key", 11)
	if _, exists := database.Get("nonexistent-key"); exists {
		t.Errorf("Expected Delete of a missing key to be a no-op")
	}
}

func testHas(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureDelete)
	requireFeature(t, database, db.FeatureHas)

	testKey := "has-test-key"

	if database.Has(testKey) {
		t.Errorf("Expected Has to return false for nonexistent key")
	}

	database.Set(testKey, []byte("has-test-value"), 1)

	if !database.Has(testKey) {
		t.Errorf("Expected Has to return true after Set")
	}

	database.Delete(testKey, 2)

	if database.Has(testKey) {
		t.Errorf("Expected Has to return false after Delete")
	}
}

func testKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureDelete)
	requireFeature(t, database, db.FeatureKeys)

	// shard records of two arrays plus their index keys
	for i := 0; i < 5; i++ {
		database.Set(fmt.Sprintf("array:users%d", i), []byte("[]"), uint64(i+1))
		database.Set(fmt.Sprintf("array:orders%d", i), []byte("[]"), uint64(i+1))
	}
	database.Set("array:index_users", []byte("4"), 10)
	database.Set("array:index_orders", []byte("4"), 11)

	keys := database.Keys("array:users")
	sort.Strings(keys)
	expected := []string{"array:users0", "array:users1", "array:users2", "array:users3", "array:users4"}
	if fmt.Sprint(keys) != fmt.Sprint(expected) {
		t.Errorf("Expected keys %v, got %v", expected, keys)
	}

	if all := database.Keys(""); len(all) != 12 {
		t.Errorf("Expected 12 keys for the empty prefix, got %d", len(all))
	}

	database.Delete("array:users3", 20)
	if keys := database.Keys("array:users"); len(keys) != 4 {
		t.Errorf("Expected 4 keys after Delete, got %v", keys)
	}

	if keys := database.Keys("nothing:"); len(keys) != 0 {
		t.Errorf("Expected no keys for unknown prefix, got %v", keys)
	}
}

func testStaleWrites(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)

	database.Set("stale-key", []byte("new"), 10)
	database.Set("stale-key", []byte("old"), 5)

	value, ok := database.Get("stale-key")
	if !ok || !bytes.Equal(value, []byte("new")) {
		t.Errorf("Expected stale write to be ignored, got %s (found=%t)", value, ok)
	}

	if database.WriteIdx() != 10 {
		t.Errorf("Expected write index 10, got %d", database.WriteIdx())
	}

	database.SetWriteIdx(3)
	if database.WriteIdx() != 10 {
		t.Errorf("Expected write index to never decrease, got %d", database.WriteIdx())
	}
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	database := factory()
	database2 := factory()

	// close the databases after the test
	defer database.Close()
	defer database2.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)
	requireFeature(t, database, db.FeatureSave)
	requireFeature(t, database, db.FeatureLoad)

	numEntries := 1000
	originalKeys := make([]string, numEntries)
	originalValues := make([][]byte, numEntries)

	for i := 0; i < numEntries; i++ {
		key := fmt.Sprintf("save-load-test-key-%d", i)
		value := []byte(fmt.Sprintf("save-load-test-value-%d", i))
		originalKeys[i] = key
		originalValues[i] = value

		database.Set(key, value, uint64(i+1))
	}

	var buf bytes.Buffer
	if err := database.Save(&buf); err != nil {
		t.Fatalf("Unexpected error during Save: %v", err)
	}

	if err := database2.Load(&buf); err != nil {
		t.Fatalf("Unexpected error during Load: %v", err)
	}

	for i := 0; i < numEntries; i++ {
		actualValue, exists := database2.Get(originalKeys[i])
		if !exists {
			t.Errorf("Key %s not found after Load", originalKeys[i])
			continue
		}

		if !bytes.Equal(actualValue, originalValues[i]) {
			t.Errorf("Value mismatch for key %s: expected %s, got %s", originalKeys[i], originalValues[i], actualValue)
		}
	}

	if database2.SupportsFeature(db.FeatureKeys) {
		if keys := database2.Keys("save-load-test-key-"); len(keys) != numEntries {
			t.Errorf("Expected %d keys after Load, got %d", numEntries, len(keys))
		}
	}

	if database2.WriteIdx() != uint64(numEntries) {
		t.Errorf("Expected write index %d after Load, got %d", numEntries, database2.WriteIdx())
	}

	// corrupted input must be rejected
	if err := database2.Load(bytes.NewReader([]byte("garbage"))); err == nil {
		t.Errorf("Expected an error when loading garbage")
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)

	// empty key
	database.Set("", []byte("empty-key-value"), 1)
	if value, ok := database.Get(""); !ok || string(value) != "empty-key-value" {
		t.Errorf("Expected empty key to be stored, got %s (found=%t)", value, ok)
	}

	// empty value
	database.Set("empty-value", []byte{}, 2)
	if value, ok := database.Get("empty-value"); !ok || len(value) != 0 {
		t.Errorf("Expected empty value to be stored, got %v (found=%t)", value, ok)
	}

	// large value
	large := bytes.Repeat([]byte("x"), 1024*1024)
	database.Set("large-value", large, 3)
	if value, ok := database.Get("large-value"); !ok || !bytes.Equal(value, large) {
		t.Errorf("Expected large value to be stored (found=%t, len=%d)", ok, len(value))
	}

	// unicode keys
	database.Set("array:ключ0", []byte(`["ü"]`), 4)
	if value, ok := database.Get("array:ключ0"); !ok || string(value) != `["ü"]` {
		t.Errorf("Expected unicode key to be stored, got %s (found=%t)", value, ok)
	}
}

func testConcurrentWriters(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)
	requireFeature(t, database, db.FeatureKeys)

	numWorkers := 8
	keysPerWorker := 250

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < keysPerWorker; i++ {
				key := fmt.Sprintf("worker%d:%d", worker, i)
				database.Set(key, []byte(key), uint64(worker*keysPerWorker+i+1))
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < numWorkers; w++ {
		keys := database.Keys(fmt.Sprintf("worker%d:", w))
		if len(keys) != keysPerWorker {
			t.Errorf("Worker %d: expected %d keys, got %d", w, keysPerWorker, len(keys))
		}
		for _, key := range keys {
			if value, ok := database.Get(key); !ok || string(value) != key {
				t.Errorf("Expected %s to hold its own name, got %s (found=%t)", key, value, ok)
			}
		}
	}
}
