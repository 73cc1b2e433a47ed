package indexer

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecoach/internal/chunker"
	"tradecoach/internal/domain"
	"tradecoach/internal/embedding/hash"
	"tradecoach/internal/embedding/tfidf"
	"tradecoach/internal/logging"
)

type fakeEmbedder struct {
	mu     sync.Mutex
	calls  int
	failAt int // 1-based call number that fails; 0 never fails
	dimFor func(call int) int
}

func (f *fakeEmbedder) Name() string { return "fake" }

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.Vector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAt != 0 && f.calls == f.failAt {
		return nil, domain.ErrEmbeddingUnavailable
	}
	dim := 3
	if f.dimFor != nil {
		dim = f.dimFor(f.calls)
	}
	v := make(domain.Vector, dim)
	v[0] = float32(len(text))
	if dim > 1 {
		v[1] = float32(strings.Count(text, "a"))
	}
	return v, nil
}

func (f *fakeEmbedder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func setup(t *testing.T, corpus string) Paths {
	t.Helper()
	dir := t.TempDir()
	p := Paths{
		Corpus: filepath.Join(dir, "notes.txt"),
		Index:  filepath.Join(dir, "index.bin"),
		Chunks: filepath.Join(dir, "chunks.gob"),
	}
	require.NoError(t, os.WriteFile(p.Corpus, []byte(corpus), 0o644))
	return p
}

func newBuilder(t *testing.T, e domain.Embedder) *Builder {
	t.Helper()
	c, err := chunker.NewWindowChunker(10, 2)
	require.NoError(t, err)
	return NewBuilder(c, e, logging.Discard())
}

const corpus = "ACME Corp announced a new factory. Banana Ltd faced regulatory pressure."

func TestLoadOrBuild_BuildsAndPersists(t *testing.T) {
	paths := setup(t, corpus)
	emb := &fakeEmbedder{}

	snap, err := newBuilder(t, emb).LoadOrBuild(context.Background(), paths)
	require.NoError(t, err)
	assert.False(t, snap.Restored)
	assert.Equal(t, len(snap.Chunks), snap.Index.Len())
	assert.Equal(t, 3, snap.Index.Dim())
	assert.Same(t, emb, snap.Embedder)
	assert.Equal(t, len(snap.Chunks), emb.Calls())
	assert.FileExists(t, paths.Index)
	assert.FileExists(t, paths.Chunks)

	// chunk i starts at i*(size-overlap)
	runes := []rune(corpus)
	for i, c := range snap.Chunks {
		assert.True(t, strings.HasPrefix(string(runes[i*8:]), c))
	}
}

func TestLoadOrBuild_RestoresWithoutEmbedding(t *testing.T) {
	paths := setup(t, corpus)
	first, err := newBuilder(t, &fakeEmbedder{}).LoadOrBuild(context.Background(), paths)
	require.NoError(t, err)

	emb := &fakeEmbedder{failAt: 1}
	snap, err := newBuilder(t, emb).LoadOrBuild(context.Background(), paths)
	require.NoError(t, err)
	assert.True(t, snap.Restored)
	assert.Zero(t, emb.Calls())
	assert.Equal(t, first.Chunks, snap.Chunks)
	assert.Equal(t, first.Index.Persist(), snap.Index.Persist())
}

func TestLoadOrBuild_CorpusErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		dir := t.TempDir()
		_, err := newBuilder(t, &fakeEmbedder{}).LoadOrBuild(context.Background(), Paths{
			Corpus: filepath.Join(dir, "absent.txt"),
			Index:  filepath.Join(dir, "index.bin"),
			Chunks: filepath.Join(dir, "chunks.gob"),
		})
		assert.ErrorIs(t, err, domain.ErrCorpusMissing)
	})
	t.Run("blank", func(t *testing.T) {
		paths := setup(t, " \n\t\n")
		_, err := newBuilder(t, &fakeEmbedder{}).LoadOrBuild(context.Background(), paths)
		assert.ErrorIs(t, err, domain.ErrCorpusEmpty)
		assert.NoFileExists(t, paths.Index)
	})
	t.Run("read even when artifacts exist", func(t *testing.T) {
		paths := setup(t, corpus)
		_, err := newBuilder(t, &fakeEmbedder{}).LoadOrBuild(context.Background(), paths)
		require.NoError(t, err)
		require.NoError(t, os.Remove(paths.Corpus))

		_, err = newBuilder(t, &fakeEmbedder{}).LoadOrBuild(context.Background(), paths)
		assert.ErrorIs(t, err, domain.ErrCorpusMissing)
	})
}

func TestLoadOrBuild_EmbeddingFailureWritesNothing(t *testing.T) {
	paths := setup(t, corpus)
	_, err := newBuilder(t, &fakeEmbedder{failAt: 3}).LoadOrBuild(context.Background(), paths)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.NoFileExists(t, paths.Index)
	assert.NoFileExists(t, paths.Chunks)
}

func TestLoadOrBuild_DimensionMismatch(t *testing.T) {
	paths := setup(t, corpus)
	emb := &fakeEmbedder{dimFor: func(call int) int {
		if call == 2 {
			return 4
		}
		return 3
	}}
	_, err := newBuilder(t, emb).LoadOrBuild(context.Background(), paths)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.NoFileExists(t, paths.Index)
}

func TestLoadOrBuild_MismatchedPair(t *testing.T) {
	paths := setup(t, corpus)
	snap, err := newBuilder(t, &fakeEmbedder{}).LoadOrBuild(context.Background(), paths)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(snap.Chunks[:1]))
	require.NoError(t, os.WriteFile(paths.Chunks, buf.Bytes(), 0o644))

	_, err = newBuilder(t, &fakeEmbedder{}).LoadOrBuild(context.Background(), paths)
	assert.ErrorIs(t, err, domain.ErrCorruptIndex)
}

func TestLoadOrBuild_CorruptIndexFile(t *testing.T) {
	paths := setup(t, corpus)
	_, err := newBuilder(t, &fakeEmbedder{}).LoadOrBuild(context.Background(), paths)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(paths.Index, []byte("TCFL"), 0o644))

	_, err = newBuilder(t, &fakeEmbedder{}).LoadOrBuild(context.Background(), paths)
	assert.ErrorIs(t, err, domain.ErrCorruptIndex)
}

func TestHolder_RebuildSwapsOnSuccess(t *testing.T) {
	paths := setup(t, corpus)
	b := newBuilder(t, &fakeEmbedder{})
	initial, err := b.LoadOrBuild(context.Background(), paths)
	require.NoError(t, err)
	h := NewHolder(initial)

	require.NoError(t, os.WriteFile(paths.Corpus, []byte("short"), 0o644))
	snap, err := h.Rebuild(context.Background(), b, paths)
	require.NoError(t, err)
	assert.Same(t, snap, h.Current())
	assert.Equal(t, []string{"short"}, h.Current().Chunks)
}

func TestHolder_FailedRebuildKeepsPrevious(t *testing.T) {
	paths := setup(t, corpus)
	initial, err := newBuilder(t, &fakeEmbedder{}).LoadOrBuild(context.Background(), paths)
	require.NoError(t, err)
	h := NewHolder(initial)

	indexBefore, err := os.ReadFile(paths.Index)
	require.NoError(t, err)
	chunksBefore, err := os.ReadFile(paths.Chunks)
	require.NoError(t, err)

	_, err = h.Rebuild(context.Background(), newBuilder(t, &fakeEmbedder{failAt: 2}), paths)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
	assert.Same(t, initial, h.Current())

	indexAfter, err := os.ReadFile(paths.Index)
	require.NoError(t, err)
	chunksAfter, err := os.ReadFile(paths.Chunks)
	require.NoError(t, err)
	assert.Equal(t, indexBefore, indexAfter)
	assert.Equal(t, chunksBefore, chunksAfter)
}

func TestHolder_ConcurrentReadersSeeCompleteSnapshots(t *testing.T) {
	paths := setup(t, corpus)
	b := newBuilder(t, &fakeEmbedder{})
	initial, err := b.LoadOrBuild(context.Background(), paths)
	require.NoError(t, err)
	h := NewHolder(initial)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := h.Current()
				assert.Equal(t, len(snap.Chunks), snap.Index.Len())
			}
		}()
	}
	for i := 0; i < 3; i++ {
		_, err := h.Rebuild(context.Background(), b, paths)
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
}

func TestLoadOrBuild_FittedEmbedderFollowsSnapshot(t *testing.T) {
	paths := setup(t, corpus)
	built, err := newBuilder(t, tfidf.NewVectorizer()).LoadOrBuild(context.Background(), paths)
	require.NoError(t, err)
	require.NotNil(t, built.Embedder)
	assert.Equal(t, built.Index.Dim(), built.Embedder.(*tfidf.Model).Dim())

	restored, err := newBuilder(t, tfidf.NewVectorizer()).LoadOrBuild(context.Background(), paths)
	require.NoError(t, err)
	assert.True(t, restored.Restored)

	want, err := built.Embedder.Embed(context.Background(), "regulatory pressure")
	require.NoError(t, err)
	got, err := restored.Embedder.Embed(context.Background(), "regulatory pressure")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadOrBuild_RestoredDimensionMismatch(t *testing.T) {
	paths := setup(t, corpus)
	_, err := newBuilder(t, hash.NewEmbedder(16)).LoadOrBuild(context.Background(), paths)
	require.NoError(t, err)

	_, err = newBuilder(t, hash.NewEmbedder(32)).LoadOrBuild(context.Background(), paths)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}
