package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"newsindex/repository"

	"github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

const (
	kindKey     = "kind"
	kindFeed    = "feed"
	kindArticle = "article"

	publishedKey = "published"
)

// FeedCrawler reads RSS/Atom feeds and downloads the articles they link to.
type FeedCrawler struct {
	config *CrawlerConfig
	store  *BoltDBStorage
	logger *zap.Logger
}

// NewFeedCrawler creates a crawler. store may be nil, in which case colly
// keeps its request state in memory.
func NewFeedCrawler(config *CrawlerConfig, store *BoltDBStorage, logger *zap.Logger) *FeedCrawler {
	if config == nil {
		config = DefaultConfig()
	}
	return &FeedCrawler{
		config: config,
		store:  store,
		logger: logger,
	}
}

type fetchRun struct {
	ctx      context.Context
	crawler  *FeedCrawler
	c        *colly.Collector
	articles []repository.Article
}

// Fetch visits every feed in order and returns the extracted articles, at
// most config.MaxArticles of them. Articles that fail to download or parse
// are logged and skipped.
func (fc *FeedCrawler) Fetch(ctx context.Context, feeds []string) ([]repository.Article, error) {
	c, err := fc.newCollector(ctx)
	if err != nil {
		return nil, err
	}

	run := &fetchRun{ctx: ctx, crawler: fc, c: c}
	c.OnXML("//item", run.onRSSItem)
	c.OnXML("//entry", run.onAtomEntry)
	c.OnResponse(run.onResponse)

	for _, feed := range feeds {
		if err := ctx.Err(); err != nil {
			return run.articles, err
		}
		if run.full() {
			break
		}

		reqCtx := colly.NewContext()
		reqCtx.Put(kindKey, kindFeed)
		// A failed feed is logged and the remaining feeds still run.
		if err := c.Request("GET", feed, nil, reqCtx, nil); err != nil {
			var visited *colly.AlreadyVisitedError
			if errors.As(err, &visited) {
				fc.logger.Debug("feed already fetched", zap.String("feed", feed))
				continue
			}
			fc.logger.Warn("failed to fetch feed", zap.String("feed", feed), zap.Error(err))
		}
	}
	c.Wait()

	fc.logger.Info("fetch finished", zap.Int("articles", len(run.articles)))
	if fc.store != nil {
		if failed, err := fc.store.Failures(); err == nil && len(failed) > 0 {
			fc.logger.Info("articles skipped", zap.Int("count", len(failed)))
		}
	}
	return run.articles, ctx.Err()
}

func (fc *FeedCrawler) newCollector(ctx context.Context) (*colly.Collector, error) {
	c := colly.NewCollector(
		colly.UserAgent(fc.config.UserAgent),
		colly.IgnoreRobotsTxt(),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(fc.config.RequestTimeout)

	transport, err := NewTransport(fc.config.ProxyURL)
	if err != nil {
		return nil, err
	}
	c.WithTransport(transport)

	if fc.store != nil {
		if err := c.SetStorage(fc.store); err != nil {
			return nil, fmt.Errorf("err set crawler storage: %w", err)
		}
	}
	return c, nil
}

func (r *fetchRun) full() bool {
	limit := r.crawler.config.MaxArticles
	return limit > 0 && len(r.articles) >= limit
}

func (r *fetchRun) onRSSItem(e *colly.XMLElement) {
	if e.Request.Ctx.Get(kindKey) != kindFeed {
		return
	}
	r.visitArticle(strings.TrimSpace(e.ChildText("link")), e.ChildText("pubDate"))
}

func (r *fetchRun) onAtomEntry(e *colly.XMLElement) {
	if e.Request.Ctx.Get(kindKey) != kindFeed {
		return
	}
	link := e.ChildAttr("link", "href")
	published := e.ChildText("published")
	if published == "" {
		published = e.ChildText("updated")
	}
	r.visitArticle(strings.TrimSpace(link), published)
}

func (r *fetchRun) visitArticle(link, published string) {
	logger := r.crawler.logger
	if link == "" || r.ctx.Err() != nil || r.full() {
		return
	}
	for _, p := range r.crawler.config.SkipPatterns {
		if strings.Contains(link, p) {
			logger.Debug("skipping media link", zap.String("url", link))
			return
		}
	}

	reqCtx := colly.NewContext()
	reqCtx.Put(kindKey, kindArticle)
	reqCtx.Put(publishedKey, strings.TrimSpace(published))
	// The collector is synchronous, so Request returns both send and
	// response errors.
	err := r.c.Request("GET", link, nil, reqCtx, nil)
	var visited *colly.AlreadyVisitedError
	switch {
	case err == nil:
	case errors.As(err, &visited):
		logger.Debug("article already fetched", zap.String("url", link))
	default:
		r.record(link, err)
	}
}

func (r *fetchRun) onResponse(resp *colly.Response) {
	if resp.Ctx.Get(kindKey) != kindArticle || r.full() {
		return
	}
	link := resp.Request.URL.String()

	parsed, err := readability.FromReader(bytes.NewReader(resp.Body), resp.Request.URL)
	if err != nil {
		r.record(link, fmt.Errorf("readability: %w", err))
		return
	}

	article := repository.Article{
		ID:    link,
		Title: strings.TrimSpace(parsed.Title),
		Text:  strings.TrimSpace(parsed.TextContent),
		URL:   link,
	}
	if raw := resp.Ctx.Get(publishedKey); raw != "" {
		if t, err := repository.ParsePublished(raw); err == nil {
			article.Published = &t
		} else {
			r.crawler.logger.Debug("unparsed publish date", zap.String("url", link), zap.String("value", raw))
		}
	}

	r.articles = append(r.articles, article)
	r.record(link, nil)
	r.crawler.logger.Info("fetched article",
		zap.String("url", link),
		zap.String("title", article.Title),
		zap.Int("chars", len(article.Text)))
}

func (r *fetchRun) record(link string, err error) {
	if err != nil {
		r.crawler.logger.Warn("skipping article", zap.String("url", link), zap.Error(err))
	}
	if r.crawler.store == nil {
		return
	}
	if serr := r.crawler.store.RecordResult(link, err); serr != nil {
		r.crawler.logger.Error("failed to record fetch result", zap.String("url", link), zap.Error(serr))
	}
}
