// Package checkpoint reads and writes the JSON handoff files between
// pipeline stages. Files are pretty-printed arrays, fully replaced on each
// run; there is no append or versioning.
package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Write replaces the checkpoint at path with the given records. The file is
// written to a temp sibling and renamed so a crash mid-write never leaves a
// truncated checkpoint.
func Write[T any](path string, records []T) error {
	if records == nil {
		records = []T{}
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return eris.Wrapf(err, "checkpoint: marshal %s", path)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "checkpoint: create temp for %s", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrapf(err, "checkpoint: write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "checkpoint: close %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "checkpoint: rename %s", path)
	}
	return nil
}

// Read loads the checkpoint at path.
func Read[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "checkpoint: read %s", path)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrapf(err, "checkpoint: decode %s", path)
	}
	return records, nil
}
