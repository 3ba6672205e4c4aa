package crawler

import (
	"time"
)

type CrawlerConfig struct {
	MaxArticles    int
	RequestTimeout time.Duration
	UserAgent      string
	ProxyURL       string
	SkipPatterns   []string
}

// DefaultConfig returns a default crawler configuration
func DefaultConfig() *CrawlerConfig {
	return &CrawlerConfig{
		MaxArticles:    60,
		RequestTimeout: 30 * time.Second,
		UserAgent:      "newsindex/1.0",
		SkipPatterns:   []string{"/video", "/videos", "/audio"},
	}
}
