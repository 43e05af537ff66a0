// Package store persists the state engine's committed account table,
// opening-proof array and pending pool across restarts, on top of a
// single bbolt key-value file — one rollup instance owns one such
// store, unlike a multi-chain node which keys storage by chain id.
package store

import (
	"fmt"
	"os"
	"path/filepath"
)

func dbDir(dataDir string) string {
	return filepath.Join(dataDir, "db")
}

func dbFilePath(dataDir string) string {
	return filepath.Join(dbDir(dataDir), "kv.db")
}

func manifestPath(dataDir string) string {
	return filepath.Join(dataDir, "MANIFEST.json")
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}
