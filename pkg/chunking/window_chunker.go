package chunking

import (
	"strings"
)

// WindowChunker cuts text into fixed-size character windows that overlap by
// a fixed amount. Offsets count runes, not bytes.
type WindowChunker struct {
	maxChars  int
	overlap   int
	minLength int
}

func NewWindowChunker(opts ...Option) (*WindowChunker, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	return &WindowChunker{
		maxChars:  s.maxChars,
		overlap:   s.overlap,
		minLength: s.minLength,
	}, nil
}

func (c *WindowChunker) Chunk(text string) ([]string, error) {
	return windows([]rune(text), c.maxChars, c.overlap, c.minLength), nil
}

// ChunkText splits text with the default minimum chunk length.
func ChunkText(text string, maxChars, overlap int) ([]string, error) {
	c, err := NewWindowChunker(WithMaxChars(maxChars), WithOverlap(overlap))
	if err != nil {
		return nil, err
	}
	return c.Chunk(text)
}

func windows(runes []rune, maxChars, overlap, minLength int) []string {
	step := maxChars - overlap
	var chunks []string

	for start := 0; start < len(runes); start += step {
		end := min(start+maxChars, len(runes))
		chunk := strings.TrimSpace(string(runes[start:end]))
		if keep(chunk, minLength) {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func keep(chunk string, minLength int) bool {
	return len([]rune(chunk)) > minLength
}
