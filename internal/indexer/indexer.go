// Package indexer turns the corpus file into a searchable snapshot, restoring
// it from persisted artifacts when they exist.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"tradecoach/internal/chunker"
	"tradecoach/internal/domain"
	"tradecoach/internal/vectorstore"
	"tradecoach/internal/vectorstore/flat"
)

// Paths locates the corpus and the two persisted artifacts.
type Paths struct {
	Corpus string
	Index  string
	Chunks string
}

func (p Paths) artifacts() vectorstore.Artifacts {
	return vectorstore.Artifacts{IndexPath: p.Index, ChunksPath: p.Chunks}
}

// Snapshot is an immutable index together with its chunk texts. Chunks[i] is
// the text embedded at position i of Index. Embedder maps queries into the
// same vector space as Index.
type Snapshot struct {
	Index    *flat.Index
	Chunks   []string
	Embedder domain.Embedder
	Restored bool
}

// Builder chunks and embeds a corpus into a Snapshot.
type Builder struct {
	chunker  *chunker.WindowChunker
	embedder domain.Embedder
	logger   *slog.Logger
}

func NewBuilder(c *chunker.WindowChunker, e domain.Embedder, logger *slog.Logger) *Builder {
	return &Builder{chunker: c, embedder: e, logger: logger}
}

// LoadOrBuild reads the corpus, then restores the persisted pair if both
// files exist. Otherwise it builds a fresh snapshot and persists it. Nothing
// is written unless the whole build succeeds.
func (b *Builder) LoadOrBuild(ctx context.Context, paths Paths) (*Snapshot, error) {
	text, err := readCorpus(paths.Corpus)
	if err != nil {
		return nil, err
	}

	arts := paths.artifacts()
	if arts.Exist() {
		idx, chunks, err := arts.Load()
		if err != nil {
			return nil, err
		}
		emb, err := b.queryEmbedder(chunks)
		if err != nil {
			return nil, err
		}
		if d, ok := emb.(interface{ Dim() int }); ok && d.Dim() != idx.Dim() {
			return nil, fmt.Errorf("%w: %s embeds %d dims, index has %d", domain.ErrDimensionMismatch, emb.Name(), d.Dim(), idx.Dim())
		}
		b.logger.Info("restored index", "index", paths.Index, "chunks", len(chunks), "dim", idx.Dim())
		return &Snapshot{Index: idx, Chunks: chunks, Embedder: emb, Restored: true}, nil
	}

	snap, err := b.build(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := b.Persist(paths, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Build reads the corpus and builds a snapshot without touching the artifacts.
func (b *Builder) Build(ctx context.Context, corpusPath string) (*Snapshot, error) {
	text, err := readCorpus(corpusPath)
	if err != nil {
		return nil, err
	}
	return b.build(ctx, text)
}

// Persist writes the snapshot to the artifact paths.
func (b *Builder) Persist(paths Paths, snap *Snapshot) error {
	if err := paths.artifacts().Save(snap.Index, snap.Chunks); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	b.logger.Info("persisted index", "index", paths.Index, "chunks", paths.Chunks)
	return nil
}

func (b *Builder) build(ctx context.Context, text string) (*Snapshot, error) {
	start := time.Now()
	chunks, err := b.chunker.Chunk(text)
	if err != nil {
		return nil, fmt.Errorf("chunk corpus: %w", err)
	}
	b.logger.Debug("chunked corpus", "chunks", len(chunks), "size", b.chunker.Size(), "overlap", b.chunker.Overlap())

	emb, err := b.queryEmbedder(chunks)
	if err != nil {
		return nil, err
	}
	vectors := make([]domain.Vector, len(chunks))
	for i, c := range chunks {
		vec, err := emb.Embed(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d/%d: %w", i+1, len(chunks), err)
		}
		vectors[i] = vec
	}

	idx, err := flat.Build(vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	b.logger.Info("built index", "embedder", emb.Name(), "chunks", idx.Len(), "dim", idx.Dim(), "took", time.Since(start))
	return &Snapshot{Index: idx, Chunks: chunks, Embedder: emb}, nil
}

// queryEmbedder fits corpus-derived embedders to chunks; others are used as is.
func (b *Builder) queryEmbedder(chunks []string) (domain.Embedder, error) {
	f, ok := b.embedder.(domain.Fitter)
	if !ok {
		return b.embedder, nil
	}
	emb, err := f.Fit(chunks)
	if err != nil {
		return nil, fmt.Errorf("fit %s: %w", b.embedder.Name(), err)
	}
	return emb, nil
}

func readCorpus(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrCorpusMissing, path)
		}
		return "", fmt.Errorf("read corpus: %w", err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrCorpusEmpty, path)
	}
	return text, nil
}
