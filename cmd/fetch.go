package main

import (
	"time"

	"newsindex/config"
	"newsindex/crawler"
	"newsindex/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Read the configured feeds and save their articles as JSON",
	RunE:  runFetch,
}

var (
	fetchOutput string
	fetchFeeds  string
	fetchMax    int
)

func init() {
	fetchCmd.Flags().StringVarP(&fetchOutput, "articles", "o", "", "Output file (default ARTICLES_PATH)")
	fetchCmd.Flags().StringVar(&fetchFeeds, "feeds", "", "Feed list YAML (default FEEDS_PATH)")
	fetchCmd.Flags().IntVar(&fetchMax, "max-articles", -1, "Maximum articles to fetch, 0 for no limit (default MAX_ARTICLES)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	if fetchOutput != "" {
		cfg.ArticlesPath = fetchOutput
	}
	if fetchFeeds != "" {
		cfg.FeedsPath = fetchFeeds
	}
	if fetchMax >= 0 {
		cfg.MaxArticles = fetchMax
	}

	feeds, err := config.LoadFeeds(cfg.FeedsPath)
	if err != nil {
		return err
	}

	// =========
	// Crawl state
	// =========
	store := crawler.NewBoltDBStorage(cfg.CrawlDBPath)
	defer store.Close()

	// =========
	// Crawler
	// =========
	fc := crawler.NewFeedCrawler(&crawler.CrawlerConfig{
		MaxArticles:    cfg.MaxArticles,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		UserAgent:      cfg.UserAgent,
		ProxyURL:       cfg.ProxyURL,
		SkipPatterns:   feeds.SkipPatterns,
	}, store, logger)

	articles, err := fc.Fetch(cmd.Context(), feeds.URLs)
	if err != nil {
		return err
	}

	if err := storage.NewArticleFile(cfg.ArticlesPath).Save(cmd.Context(), articles); err != nil {
		return err
	}
	logger.Info("articles saved",
		zap.String("path", cfg.ArticlesPath),
		zap.Int("count", len(articles)))
	return nil
}
