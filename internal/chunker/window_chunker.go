package chunker

import (
	"errors"
	"fmt"

	"tradecoach/internal/domain"
)

// ErrInvalidWindow is returned when overlap does not leave room for the window
// to advance.
var ErrInvalidWindow = errors.New("invalid chunk window")

// WindowChunker splits text into fixed-size character windows that overlap by
// a fixed number of characters.
type WindowChunker struct {
	size    int
	overlap int
}

// NewWindowChunker validates the window geometry. 0 <= overlap < size.
func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

// Size returns the window length in characters.
func (c *WindowChunker) Size() int { return c.size }

// Overlap returns the number of characters shared by consecutive windows.
func (c *WindowChunker) Overlap() int { return c.overlap }

// Chunk splits text using the chunker's window geometry.
func (c *WindowChunker) Chunk(text string) ([]string, error) {
	return Split(text, c.size, c.overlap)
}

// Split returns consecutive windows of size characters, each starting
// size-overlap characters after the previous one, for as long as the start
// offset is inside the text. The final window may be shorter than size.
// Offsets count runes, so multi-byte characters are never split.
func Split(text string, size, overlap int) ([]string, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	if len(text) == 0 {
		return nil, domain.ErrCorpusEmpty
	}
	runes := []rune(text)
	step := size - overlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks, nil
}

func validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidWindow, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidWindow, size, overlap)
	}
	return nil
}
