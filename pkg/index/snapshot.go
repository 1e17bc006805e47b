package index

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/OFFIS-RIT/mango/pkg/common"
	"github.com/OFFIS-RIT/mango/pkg/logger"
)

// snapshot is the on-disk form of the index.
type snapshot struct {
	Dimension int
	Vectors   [][]float64
	Passages  []common.Passage
}

// load restores the index from its snapshot file. A missing file leaves the
// index empty. A corrupt or inconsistent file is logged and skipped so the
// index starts fresh instead of refusing to run.
func (idx *Index) load() {
	if idx.snapshotPath == "" {
		return
	}

	file, err := os.Open(idx.snapshotPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error("Failed to open index snapshot", "path", idx.snapshotPath, "err", err)
		}
		return
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		logger.Error("Failed to decode index snapshot", "path", idx.snapshotPath, "err", err)
		return
	}
	if len(snap.Vectors) != len(snap.Passages) {
		logger.Error("Index snapshot is inconsistent",
			"path", idx.snapshotPath,
			"vectors", len(snap.Vectors),
			"passages", len(snap.Passages),
		)
		return
	}

	if snap.Dimension > 0 {
		idx.dimension = snap.Dimension
	}
	idx.vectors = snap.Vectors
	idx.passages = snap.Passages

	logger.Info("Loaded index snapshot", "vectors", len(snap.Vectors), "dimension", idx.dimension)
}

// save persists the current state. Failures are logged, never returned; the
// in-memory state stays authoritative and the index keeps operating in
// memory-only mode until the next successful save. Callers hold the write
// lock.
func (idx *Index) save() {
	if idx.snapshotPath == "" {
		return
	}

	snap := snapshot{
		Dimension: idx.dimension,
		Vectors:   idx.vectors,
		Passages:  idx.passages,
	}
	if err := writeSnapshot(idx.snapshotPath, &snap); err != nil {
		logger.Error("Failed to save index snapshot", "path", idx.snapshotPath, "err", err)
	}
}

// writeSnapshot encodes to a temporary file and renames it into place so a
// crash mid-write never truncates the previous snapshot.
func writeSnapshot(path string, snap *snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(file).Encode(snap); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
