// Package retriever answers nearest-chunk queries against the current index
// snapshot.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tradecoach/internal/domain"
	"tradecoach/internal/indexer"
)

// DefaultTopK is used when a caller passes a non-positive k.
const DefaultTopK = 5

// fallbackChunks is how many top-ranked chunks FilterByEntity keeps when no
// chunk mentions the entity.
const fallbackChunks = 2

var errNoSnapshot = errors.New("no index loaded")

// SnapshotSource yields the snapshot to search. *indexer.Holder satisfies it.
type SnapshotSource interface {
	Current() *indexer.Snapshot
}

// Retriever embeds queries with the snapshot's own embedder so a query always
// lands in the vector space the index was built in.
type Retriever struct {
	source SnapshotSource
	topK   int
	logger *slog.Logger
}

func New(source SnapshotSource, topK int, logger *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{source: source, topK: topK, logger: logger}
}

// Retrieve returns the texts of the topK chunks nearest to query, nearest
// first. Any embedding or search failure wraps ErrRetrievalUnavailable.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = r.topK
	}
	snap := r.source.Current()
	if snap == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, errNoSnapshot)
	}

	vec, err := snap.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
	}
	hits, err := snap.Index.Search(vec, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
	}

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, snap.Chunks[h.Position])
	}
	r.logger.Debug("retrieved chunks", "query", query, "k", topK, "hits", len(out))
	return out, nil
}

// FilterByEntity keeps the chunks that mention entity, ignoring case. When
// none do, the first two chunks of the ranked input are returned instead.
func FilterByEntity(chunks []string, entity string) []string {
	needle := strings.ToLower(entity)
	var out []string
	for _, c := range chunks {
		if strings.Contains(strings.ToLower(c), needle) {
			out = append(out, c)
		}
	}
	if len(out) > 0 {
		return out
	}
	n := min(fallbackChunks, len(chunks))
	return append([]string{}, chunks[:n]...)
}

// NormalizeCompany reduces a company name or ticker to the upper-cased text
// before its first dot, e.g. "tcs.ns" -> "TCS".
func NormalizeCompany(name string) string {
	name, _, _ = strings.Cut(name, ".")
	return strings.ToUpper(strings.TrimSpace(name))
}
