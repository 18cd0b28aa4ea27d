package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ValentinKolb/dArray/lib/db"
	"github.com/klauspost/compress/zstd"
)

// FileExt is the extension of snapshot files written by WriteFile
const FileExt = ".snap.zst"

// ErrUnsupported is returned for databases that cannot save or load their state
var ErrUnsupported = errors.New("snapshot: database does not support save/load")

// WriteFile saves the state of database as a zstd compressed file at path.
// The file is written to a temporary file in the same directory first and
// renamed afterwards, so path either holds the old or the new snapshot.
func WriteFile(database db.KVDB, path string) error {
	if !database.SupportsFeature(db.FeatureSave) {
		return ErrUnsupported
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("snapshot: failed to create temp file: %w", err)
	}
	// no-op once the rename succeeded
	defer os.Remove(tmp.Name())

	enc, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("snapshot: failed to create encoder: %w", err)
	}

	if err := database.Save(enc); err != nil {
		_ = enc.Close()
		_ = tmp.Close()
		return fmt.Errorf("snapshot: failed to save database: %w", err)
	}

	if err := enc.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("snapshot: failed to flush encoder: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("snapshot: failed to sync %s: %w", tmp.Name(), err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: failed to close %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("snapshot: failed to rename %s: %w", path, err)
	}
	return nil
}

// ReadFile restores the state of database from a file written by WriteFile.
// A missing file is reported with an error wrapping os.ErrNotExist.
func ReadFile(database db.KVDB, path string) error {
	if !database.SupportsFeature(db.FeatureLoad) {
		return ErrUnsupported
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("snapshot: failed to open %s: %w", path, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("snapshot: failed to create decoder: %w", err)
	}
	defer dec.Close()

	if err := database.Load(dec); err != nil {
		return fmt.Errorf("snapshot: failed to load %s: %w", path, err)
	}
	return nil
}

// Path returns the snapshot file path for a named database inside dir
func Path(dir, name string) string {
	return filepath.Join(dir, name+FileExt)
}
