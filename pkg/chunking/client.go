package chunking

import (
	"errors"
	"fmt"
)

const (
	DefaultMaxChars  = 800
	DefaultOverlap   = 100
	DefaultMinLength = 50

	MethodWindow    = "window"
	MethodRecursive = "recursive"
)

var ErrInvalidConfiguration = errors.New("invalid chunking configuration")

type Client interface {
	Chunk(text string) ([]string, error)
}

type settings struct {
	maxChars  int
	overlap   int
	minLength int
}

type Option func(*settings)

func WithMaxChars(n int) Option {
	return func(s *settings) { s.maxChars = n }
}

func WithOverlap(n int) Option {
	return func(s *settings) { s.overlap = n }
}

// WithMinLength sets the length a trimmed chunk must exceed to be kept.
func WithMinLength(n int) Option {
	return func(s *settings) { s.minLength = n }
}

func newSettings(opts []Option) (settings, error) {
	s := settings{
		maxChars:  DefaultMaxChars,
		overlap:   DefaultOverlap,
		minLength: DefaultMinLength,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if err := s.validate(); err != nil {
		return settings{}, err
	}
	return s, nil
}

func (s settings) validate() error {
	if s.maxChars <= 0 {
		return fmt.Errorf("%w: max chars must be positive, got %d", ErrInvalidConfiguration, s.maxChars)
	}
	if s.overlap < 0 || s.overlap >= s.maxChars {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidConfiguration, s.maxChars, s.overlap)
	}
	if s.minLength < 0 {
		return fmt.Errorf("%w: min length must not be negative, got %d", ErrInvalidConfiguration, s.minLength)
	}
	return nil
}

// New returns the chunker registered under method.
func New(method string, opts ...Option) (Client, error) {
	switch method {
	case "", MethodWindow:
		return NewWindowChunker(opts...)
	case MethodRecursive:
		return NewRecursiveCharacterChunker(opts...)
	default:
		return nil, fmt.Errorf("%w: unsupported chunking method %q", ErrInvalidConfiguration, method)
	}
}

var (
	_ Client = (*WindowChunker)(nil)
	_ Client = (*RecursiveCharacterChunker)(nil)
)
