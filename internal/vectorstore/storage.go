// Package vectorstore persists a flat index together with the chunk texts it
// was built from.
package vectorstore

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tradecoach/internal/domain"
	"tradecoach/internal/vectorstore/flat"
)

// Artifacts names the pair of files holding a persisted index. chunks[i] in
// the chunk file corresponds to the i-th vector in the index file.
type Artifacts struct {
	IndexPath  string
	ChunksPath string
}

// Exist reports whether both files are present. A lone file is treated as
// absent so the caller rebuilds.
func (a Artifacts) Exist() bool {
	return fileExists(a.IndexPath) && fileExists(a.ChunksPath)
}

// Save writes both files. Each is written to a temporary file first and then
// renamed into place.
func (a Artifacts) Save(idx *flat.Index, chunks []string) error {
	if idx.Len() != len(chunks) {
		return fmt.Errorf("save artifacts: %d chunks for %d vectors", len(chunks), idx.Len())
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(chunks); err != nil {
		return fmt.Errorf("encode chunks: %w", err)
	}

	indexTmp, err := writeTemp(a.IndexPath, idx.Persist())
	if err != nil {
		return err
	}
	chunksTmp, err := writeTemp(a.ChunksPath, buf.Bytes())
	if err != nil {
		_ = os.Remove(indexTmp)
		return err
	}
	if err := os.Rename(indexTmp, a.IndexPath); err != nil {
		_ = os.Remove(indexTmp)
		_ = os.Remove(chunksTmp)
		return fmt.Errorf("install index: %w", err)
	}
	if err := os.Rename(chunksTmp, a.ChunksPath); err != nil {
		_ = os.Remove(chunksTmp)
		return fmt.Errorf("install chunks: %w", err)
	}
	return nil
}

// Load restores the index and chunk texts as a matched pair.
func (a Artifacts) Load() (*flat.Index, []string, error) {
	raw, err := os.ReadFile(a.IndexPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read index: %w", err)
	}
	idx, err := flat.Restore(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("restore %s: %w", a.IndexPath, err)
	}

	f, err := os.Open(a.ChunksPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read chunks: %w", err)
	}
	defer f.Close()
	var chunks []string
	if err := gob.NewDecoder(f).Decode(&chunks); err != nil {
		return nil, nil, fmt.Errorf("%w: decode %s: %v", domain.ErrCorruptIndex, a.ChunksPath, err)
	}
	if len(chunks) != idx.Len() {
		return nil, nil, fmt.Errorf("%w: %d chunks for %d vectors", domain.ErrCorruptIndex, len(chunks), idx.Len())
	}
	return idx, chunks, nil
}

// Remove deletes both files, ignoring ones that do not exist.
func (a Artifacts) Remove() error {
	for _, p := range []string{a.IndexPath, a.ChunksPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func writeTemp(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
