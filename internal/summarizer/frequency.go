// Package summarizer produces an extractive overview of the corpus without
// calling a model, so it works even when generation is down.
package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	wordPattern     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentencePattern = regexp.MustCompile(`[^.!?\n]+[.!?]?`)
)

// Term is a content word and how often it occurs.
type Term struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Overview is what the console header and the stats command show.
type Overview struct {
	Highlights []string `json:"highlights"`
	TopTerms   []Term   `json:"top_terms"`
}

// FrequencySummarizer ranks sentences by the normalized frequency of their
// content words.
type FrequencySummarizer struct {
	stopwords map[string]struct{}
}

func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{stopwords: defaultStopwords()}
}

// Overview picks up to maxSentences highlight sentences and the maxTerms most
// frequent content words from text.
func (s *FrequencySummarizer) Overview(text string, maxSentences, maxTerms int) Overview {
	freq := s.frequencies(text)
	return Overview{
		Highlights: s.highlights(text, freq, maxSentences),
		TopTerms:   topTerms(freq, maxTerms),
	}
}

// Summarize joins the highlight sentences of text in their original order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) string {
	return strings.Join(s.highlights(text, s.frequencies(text), maxSentences), " ")
}

func (s *FrequencySummarizer) highlights(text string, freq map[string]int, maxSentences int) []string {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	var sentences []string
	for _, m := range sentencePattern.FindAllString(text, -1) {
		if t := strings.TrimSpace(m); t != "" {
			sentences = append(sentences, t)
		}
	}
	if len(sentences) == 0 {
		return []string{}
	}

	peak := 0
	for _, c := range freq {
		peak = max(peak, c)
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, sent := range sentences {
		words := tokens(sent)
		total := 0.0
		for _, w := range words {
			total += float64(freq[w]) / float64(max(peak, 1))
		}
		if len(words) > 0 {
			total /= math.Sqrt(float64(len(words)))
		}
		ranked[i] = scored{i, total}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := min(maxSentences, len(ranked))
	picked := make([]int, n)
	for i := range picked {
		picked[i] = ranked[i].idx
	}
	sort.Ints(picked)
	out := make([]string, n)
	for i, idx := range picked {
		out[i] = sentences[idx]
	}
	return out
}

func (s *FrequencySummarizer) frequencies(text string) map[string]int {
	freq := map[string]int{}
	for _, w := range tokens(text) {
		if _, stop := s.stopwords[w]; stop || len([]rune(w)) < 2 {
			continue
		}
		freq[w]++
	}
	return freq
}

func topTerms(freq map[string]int, n int) []Term {
	terms := make([]Term, 0, len(freq))
	for w, c := range freq {
		terms = append(terms, Term{Word: w, Count: c})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Word < terms[j].Word
	})
	if n > 0 && n < len(terms) {
		terms = terms[:n]
	}
	return terms
}

func tokens(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that", "these",
		"those", "from", "up", "down", "over", "under", "than", "so", "such", "into", "about", "between",
		"through", "during", "before", "after", "out", "off", "own", "same", "too", "very", "can", "will",
		"just", "should", "now", "has", "have", "had", "not", "also", "which", "while", "their", "they",
		"we", "our", "he", "she", "his", "her", "said", "says", "more", "most", "other", "some",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
