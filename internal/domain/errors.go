package domain

import "errors"

// Startup failures. These stop the service from serving.
var (
	ErrCorpusMissing     = errors.New("corpus file missing")
	ErrCorpusEmpty       = errors.New("corpus is empty")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrCorruptIndex      = errors.New("corrupt index")
)

// External capability failures. Contained at the component boundary on
// request paths; fatal only while building an index.
var (
	ErrEmbeddingUnavailable  = errors.New("embedding unavailable")
	ErrRetrievalUnavailable  = errors.New("retrieval unavailable")
	ErrGenerationUnavailable = errors.New("generation unavailable")
)
