// Package snapshot writes and reads compressed snapshot files for any db.KVDB
// that supports db.FeatureSave and db.FeatureLoad.
//
// The engine's own Save stream is wrapped in a zstd frame. Files are replaced
// atomically through a temporary file and a rename.
//
// Example:
//
//	path := snapshot.Path("/var/lib/darray", "shard-100")
//	if err := snapshot.WriteFile(database, path); err != nil {
//		...
//	}
//	if err := snapshot.ReadFile(database, path); errors.Is(err, os.ErrNotExist) {
//		// first start, nothing to restore
//	}
package snapshot
