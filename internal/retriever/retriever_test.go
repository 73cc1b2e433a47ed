package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecoach/internal/domain"
	"tradecoach/internal/indexer"
	"tradecoach/internal/logging"
	"tradecoach/internal/vectorstore/flat"
)

type stubEmbedder struct {
	vec domain.Vector
	err error
}

func (s stubEmbedder) Name() string { return "stub" }

func (s stubEmbedder) Embed(context.Context, string) (domain.Vector, error) {
	return s.vec, s.err
}

func snapshot(t *testing.T, emb domain.Embedder) *indexer.Holder {
	t.Helper()
	idx, err := flat.Build([]domain.Vector{
		{0, 0}, {10, 0}, {1, 0}, {5, 5}, {2, 0}, {3, 0}, {4, 0},
	})
	require.NoError(t, err)
	return indexer.NewHolder(&indexer.Snapshot{
		Index:    idx,
		Chunks:   []string{"c0", "c1", "c2", "c3", "c4", "c5", "c6"},
		Embedder: emb,
	})
}

func TestRetrieve_OrderedByDistance(t *testing.T) {
	r := New(snapshot(t, stubEmbedder{vec: domain.Vector{0, 0}}), 0, logging.Discard())

	got, err := r.Retrieve(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"c0", "c2", "c4"}, got)
}

func TestRetrieve_DefaultTopK(t *testing.T) {
	r := New(snapshot(t, stubEmbedder{vec: domain.Vector{0, 0}}), 0, logging.Discard())

	got, err := r.Retrieve(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultTopK)
	assert.Equal(t, []string{"c0", "c2", "c4", "c5", "c6"}, got)
}

func TestRetrieve_KLargerThanIndex(t *testing.T) {
	r := New(snapshot(t, stubEmbedder{vec: domain.Vector{0, 0}}), 5, logging.Discard())

	got, err := r.Retrieve(context.Background(), "q", 100)
	require.NoError(t, err)
	assert.Len(t, got, 7)
}

func TestRetrieve_Failures(t *testing.T) {
	tests := []struct {
		name   string
		source SnapshotSource
		cause  error
	}{
		{
			name:   "embedding unavailable",
			source: snapshot(t, stubEmbedder{err: domain.ErrEmbeddingUnavailable}),
			cause:  domain.ErrEmbeddingUnavailable,
		},
		{
			name:   "dimension mismatch",
			source: snapshot(t, stubEmbedder{vec: domain.Vector{1, 2, 3}}),
			cause:  domain.ErrDimensionMismatch,
		},
		{
			name:   "no snapshot",
			source: indexer.NewHolder(nil),
			cause:  errNoSnapshot,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.source, 5, logging.Discard()).Retrieve(context.Background(), "q", 5)
			assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
			assert.True(t, errors.Is(err, tt.cause))
		})
	}
}

func TestFilterByEntity(t *testing.T) {
	chunks := []string{
		"Banana Ltd reported losses.",
		"acme corp opened a plant.",
		"Weather was mild.",
		"ACME faces regulatory review.",
	}
	tests := []struct {
		name   string
		chunks []string
		entity string
		want   []string
	}{
		{
			name:   "case-insensitive matches keep rank order",
			chunks: chunks,
			entity: "ACME",
			want:   []string{"acme corp opened a plant.", "ACME faces regulatory review."},
		},
		{
			name:   "no match falls back to first two",
			chunks: chunks,
			entity: "ZETA",
			want:   chunks[:2],
		},
		{
			name:   "fallback with a single chunk",
			chunks: chunks[2:3],
			entity: "ZETA",
			want:   []string{"Weather was mild."},
		},
		{
			name:   "empty input",
			chunks: nil,
			entity: "ACME",
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterByEntity(tt.chunks, tt.entity))
		})
	}
}

func TestFilterByEntity_DoesNotAliasInput(t *testing.T) {
	chunks := []string{"a", "b", "c"}
	out := FilterByEntity(chunks, "zzz")
	out[0] = "changed"
	assert.Equal(t, "a", chunks[0])
}

func TestNormalizeCompany(t *testing.T) {
	tests := map[string]string{
		"tcs.ns":          "TCS",
		"  infy.bo ":      "INFY",
		"Reliance":        "RELIANCE",
		"":                "",
		".ns":             "",
		"acme corp. ltd.": "ACME CORP",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeCompany(in), "input %q", in)
	}
}
