package tfidf

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"tradecoach/internal/domain"
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// Vectorizer is an unfitted TF-IDF embedder. It cannot embed until Fit has
// produced a Model from the corpus chunks.
type Vectorizer struct {
	stopwords map[string]struct{}
}

func NewVectorizer() *Vectorizer {
	return &Vectorizer{stopwords: defaultStopwords()}
}

func (v *Vectorizer) Name() string { return "tfidf" }

func (v *Vectorizer) Embed(context.Context, string) (domain.Vector, error) {
	return nil, fmt.Errorf("%w: tfidf vectorizer not fitted", domain.ErrEmbeddingUnavailable)
}

// Fit builds the vocabulary and smoothed IDF weights from the chunks. The
// vocabulary is sorted, so fitting the same chunks always yields the same
// dimensions.
func (v *Vectorizer) Fit(chunks []string) (domain.Embedder, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("fit tfidf: %w", domain.ErrCorpusEmpty)
	}
	df := make(map[string]int)
	for _, text := range chunks {
		seen := make(map[string]struct{})
		for _, tok := range v.tokens(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return nil, fmt.Errorf("fit tfidf: %w: no indexable words", domain.ErrCorpusEmpty)
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	m := &Model{
		vectorizer: v,
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
	}
	n := float64(len(chunks))
	for i, term := range terms {
		m.vocabulary[term] = i
		m.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return m, nil
}

func (v *Vectorizer) tokens(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := v.stopwords[t]; !stop {
			out = append(out, t)
		}
	}
	return out
}

// Model is a fitted TF-IDF embedder. It is immutable and safe for concurrent use.
type Model struct {
	vectorizer *Vectorizer
	vocabulary map[string]int
	idf        []float64
}

func (m *Model) Name() string { return fmt.Sprintf("tfidf/%d", len(m.idf)) }

// Dim is the vocabulary size.
func (m *Model) Dim() int { return len(m.idf) }

// Embed returns the L2-normalized TF-IDF vector of text. Text without any
// known word embeds to the zero vector.
func (m *Model) Embed(ctx context.Context, text string) (domain.Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	weights := make([]float64, len(m.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range m.vectorizer.tokens(text) {
		if idx, ok := m.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	vec := make(domain.Vector, len(m.idf))
	if total == 0 {
		return vec, nil
	}
	norm := 0.0
	for idx, count := range tf {
		w := float64(count) / float64(total) * m.idf[idx]
		weights[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i, w := range weights {
		vec[i] = float32(w / norm)
	}
	return vec, nil
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too",
		"very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
