package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"newsindex/repository"
)

type ArticleRepository interface {
	Load(ctx context.Context, limit int) ([]repository.Article, error)
	Save(ctx context.Context, articles []repository.Article) error
}

// ArticleFile stores articles as one indented JSON array.
type ArticleFile struct {
	Path string
}

var _ ArticleRepository = (*ArticleFile)(nil)

func NewArticleFile(path string) *ArticleFile {
	return &ArticleFile{Path: path}
}

// Load reads all articles, keeping only the first limit when limit > 0.
func (f *ArticleFile) Load(_ context.Context, limit int) ([]repository.Article, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("err read articles: %w", err)
	}

	var articles []repository.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("err decode articles %s: %w", f.Path, err)
	}

	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

func (f *ArticleFile) Save(_ context.Context, articles []repository.Article) error {
	if articles == nil {
		articles = []repository.Article{}
	}
	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return fmt.Errorf("err encode articles: %w", err)
	}

	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("err create articles dir: %w", err)
		}
	}

	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("err write articles: %w", err)
	}
	return os.Rename(tmp, f.Path)
}
