package store

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const SchemaVersionV1 uint32 = 1

// Manifest is the crash-safe commit point: the bbolt file holds
// per-slot data, but (height, commit) is only trustworthy once the
// manifest naming that height has been fsynced.
type Manifest struct {
	SchemaVersion uint32 `json:"schema_version"`
	Height        uint32 `json:"height"`
	CommitHex     string `json:"commit"`
	NextSlot      uint32 `json:"next_slot"`
}

func readManifest(dataDir string) (*Manifest, error) {
	b, err := readManifestFile(manifestPath(dataDir))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("store: manifest json: %w", err)
	}
	return &m, nil
}

// readManifestFile reads path through os.DirFS rooted at its parent
// directory, rejecting a base name that could escape that directory
// (".." or an embedded separator), since manifestPath is built from an
// operator-supplied data directory.
func readManifestFile(path string) ([]byte, error) {
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return nil, fmt.Errorf("store: invalid file name: %q", name)
	}
	return fs.ReadFile(os.DirFS(dir), name)
}

// writeManifestAtomic writes MANIFEST.json as a crash-safe commit point:
// write temp -> fsync temp -> rename -> fsync dir.
func writeManifestAtomic(dataDir string, m *Manifest) error {
	if m == nil {
		return fmt.Errorf("store: manifest: nil")
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("store: manifest json: %w", err)
	}
	b = append(b, '\n')

	final := manifestPath(dataDir)
	tmp := final + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("store: manifest open tmp: %w", err)
	}
	_, werr := f.Write(b)
	serr := f.Sync()
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("store: manifest write tmp: %w", werr)
	}
	if serr != nil {
		return fmt.Errorf("store: manifest fsync tmp: %w", serr)
	}
	if cerr != nil {
		return fmt.Errorf("store: manifest close tmp: %w", cerr)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("store: manifest rename: %w", err)
	}

	d, err := os.Open(dataDir)
	if err != nil {
		return fmt.Errorf("store: manifest fsync dir open: %w", err)
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return fmt.Errorf("store: manifest fsync dir: %w", err)
	}
	return d.Close()
}
