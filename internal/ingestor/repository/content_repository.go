package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"roundtable-ingestor/pkg/common"
	"roundtable-ingestor/pkg/logger"
	"roundtable-ingestor/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/patrickmn/go-cache"
)

// maxHTMLBytes bounds how much of a page is read before parsing.
const maxHTMLBytes = 5 << 20

var (
	boilerplateSelectors = "script, style, nav, footer, header, aside, .ad, .advertisement"
	contentSelectors     = []string{
		"article",
		`[role="main"]`,
		".article-body",
		".story-body",
		".post-content",
		".entry-content",
		"main",
	}
)

// ContentRepository fetches the full plain text of an article page.
// An empty string with a nil error means the page had no usable content.
type ContentRepository interface {
	FetchContent(ctx context.Context, pageURL string) (string, error)
}

// ContentOptions configures both extractor variants.
type ContentOptions struct {
	Timeout      time.Duration
	MinLength    int
	MaxLength    int
	CacheTTL     time.Duration
	CacheCleanup time.Duration
}

type pageFetcher struct {
	client *http.Client
	cache  *cache.Cache
	logger *logger.Logger
	opts   ContentOptions
}

// newPageFetcher builds the shared HTTP side. A non-positive CacheTTL disables caching.
func newPageFetcher(log *logger.Logger, opts ContentOptions) pageFetcher {
	f := pageFetcher{
		client: &http.Client{Timeout: opts.Timeout},
		logger: log,
		opts:   opts,
	}
	if opts.CacheTTL > 0 {
		cleanup := opts.CacheCleanup
		if cleanup <= 0 {
			cleanup = 2 * opts.CacheTTL
		}
		f.cache = cache.New(opts.CacheTTL, cleanup)
	}
	return f
}

// fetch returns the page body, or ok=false for a non-2xx response.
func (f pageFetcher) fetch(ctx context.Context, pageURL string) (body string, ok bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", common.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch article content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn("Article page returned non-success status",
			logger.IntField("status", resp.StatusCode),
			logger.StringField("url", pageURL),
		)
		return "", false, nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxHTMLBytes))
	if err != nil {
		return "", false, fmt.Errorf("failed to read response body: %w", err)
	}
	return string(raw), true, nil
}

func (f pageFetcher) cached(pageURL string) (string, bool) {
	if f.cache == nil {
		return "", false
	}
	if v, found := f.cache.Get(pageURL); found {
		return v.(string), true
	}
	return "", false
}

func (f pageFetcher) store(pageURL, content string) {
	if f.cache == nil {
		return
	}
	f.cache.Set(pageURL, content, cache.DefaultExpiration)
}

func (f pageFetcher) finish(text string) string {
	return utils.Truncate(utils.SafeText(utils.CollapseWhitespace(text)), f.opts.MaxLength)
}

// NewSelectorContentRepository creates an extractor that strips page chrome and
// tries a fixed list of content containers before falling back to paragraphs.
func NewSelectorContentRepository(log *logger.Logger, opts ContentOptions) ContentRepository {
	return &selectorContentRepository{pageFetcher: newPageFetcher(log, opts)}
}

type selectorContentRepository struct {
	pageFetcher
}

func (r *selectorContentRepository) FetchContent(ctx context.Context, pageURL string) (string, error) {
	if content, ok := r.cached(pageURL); ok {
		return content, nil
	}

	body, ok, err := r.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	if !ok {
		r.store(pageURL, "")
		return "", nil
	}

	content, err := r.extract(body)
	if err != nil {
		return "", err
	}
	r.store(pageURL, content)
	return content, nil
}

func (r *selectorContentRepository) extract(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse article html: %w", err)
	}
	doc.Find(boilerplateSelectors).Remove()

	for _, selector := range contentSelectors {
		text := utils.CollapseWhitespace(doc.Find(selector).First().Text())
		if utils.CharCount(text) > r.opts.MinLength {
			return r.finish(text), nil
		}
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return r.finish(strings.Join(paragraphs, " ")), nil
}

// NewReadabilityContentRepository creates an extractor backed by a
// Readability-style content scorer.
func NewReadabilityContentRepository(log *logger.Logger, opts ContentOptions) ContentRepository {
	return &readabilityContentRepository{pageFetcher: newPageFetcher(log, opts)}
}

type readabilityContentRepository struct {
	pageFetcher
}

func (r *readabilityContentRepository) FetchContent(ctx context.Context, pageURL string) (string, error) {
	if content, ok := r.cached(pageURL); ok {
		return content, nil
	}

	body, ok, err := r.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	if !ok {
		r.store(pageURL, "")
		return "", nil
	}

	doc, err := readability.NewDocument(body)
	if err != nil {
		return "", fmt.Errorf("failed to parse article content: %w", err)
	}
	docHTML, err := goquery.NewDocumentFromReader(strings.NewReader(doc.Content()))
	if err != nil {
		return "", fmt.Errorf("failed to parse article content: %w", err)
	}

	content := r.finish(docHTML.Text())
	r.store(pageURL, content)
	return content, nil
}
