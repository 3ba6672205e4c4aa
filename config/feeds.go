package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type Feeds struct {
	URLs         []string `yaml:"feeds"`
	SkipPatterns []string `yaml:"skip_patterns"`
}

func DefaultFeeds() *Feeds {
	return &Feeds{
		URLs: []string{
			"https://feeds.bbci.co.uk/news/in_pictures/rss.xml",
			"http://rss.cnn.com/rss/cnn_tech.rss",
			"https://feeds.bbci.co.uk/news/stories/rss.xml",
			"https://feeds.bbci.co.uk/news/have_your_say/rss.xml",
		},
		SkipPatterns: []string{"/video", "/videos", "/audio"},
	}
}

// LoadFeeds reads the feed list from a YAML file. A missing file yields the
// built-in defaults.
func LoadFeeds(path string) (*Feeds, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultFeeds(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("err read feeds file: %w", err)
	}

	var feeds Feeds
	if err := yaml.Unmarshal(data, &feeds); err != nil {
		return nil, fmt.Errorf("%w: feeds file %s: %v", ErrInvalid, path, err)
	}
	if len(feeds.URLs) == 0 {
		return nil, fmt.Errorf("%w: feeds file %s lists no feeds", ErrInvalid, path)
	}
	if feeds.SkipPatterns == nil {
		feeds.SkipPatterns = DefaultFeeds().SkipPatterns
	}
	return &feeds, nil
}
