package chunking

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// RecursiveCharacterChunker prefers paragraph, line and word boundaries over
// hard cuts. Chunks obey the same size, overlap and minimum length rules as
// WindowChunker.
type RecursiveCharacterChunker struct {
	splitter  textsplitter.RecursiveCharacter
	minLength int
}

func NewRecursiveCharacterChunker(opts ...Option) (*RecursiveCharacterChunker, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.maxChars),
		textsplitter.WithChunkOverlap(s.overlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
	)
	return &RecursiveCharacterChunker{
		splitter:  splitter,
		minLength: s.minLength,
	}, nil
}

func (c *RecursiveCharacterChunker) Chunk(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	parts, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("err split text: %w", err)
	}

	var chunks []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if keep(trimmed, c.minLength) {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks, nil
}
