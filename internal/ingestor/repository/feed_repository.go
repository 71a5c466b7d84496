package repository

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"roundtable-ingestor/internal/ingestor/dto"
	"roundtable-ingestor/pkg/common"
	"roundtable-ingestor/pkg/logger"
	"roundtable-ingestor/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const untitled = "Untitled"

// FeedRepository retrieves and normalizes RSS/Atom feeds.
type FeedRepository interface {
	FetchFeed(ctx context.Context, feedURL, sourceName string) ([]dto.FetchedArticle, error)
}

// NewFeedRepository creates a feed reader that keeps at most maxItems entries per feed.
func NewFeedRepository(log *logger.Logger, timeout time.Duration, maxItems int) FeedRepository {
	parser := gofeed.NewParser()
	parser.UserAgent = common.UserAgent
	parser.Client = &http.Client{Timeout: timeout}

	return &feedRepository{
		parser:   parser,
		logger:   log,
		timeout:  timeout,
		maxItems: maxItems,
	}
}

type feedRepository struct {
	parser   *gofeed.Parser
	logger   *logger.Logger
	timeout  time.Duration
	maxItems int
}

// FetchFeed returns the first maxItems linked entries of the feed in feed order.
// On failure the list is empty and the error describes the cause.
func (r *feedRepository) FetchFeed(ctx context.Context, feedURL, sourceName string) ([]dto.FetchedArticle, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return []dto.FetchedArticle{}, fmt.Errorf("failed to parse feed %s: %w", feedURL, err)
	}

	items := feed.Items
	if r.maxItems > 0 && len(items) > r.maxItems {
		items = items[:r.maxItems]
	}

	articles := make([]dto.FetchedArticle, 0, len(items))
	for _, item := range items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}

		title := utils.SafeText(strings.TrimSpace(item.Title))
		if title == "" {
			title = untitled
		}

		articles = append(articles, dto.FetchedArticle{
			SourceURL:     link,
			SourceName:    sourceName,
			SourceTitle:   title,
			SourceContent: utils.SafeText(itemContent(item)),
			PublishedAt:   itemPublishedAt(item),
		})
	}

	r.logger.Debug("Parsed feed",
		logger.StringField("source", sourceName),
		logger.IntField("items", len(feed.Items)),
		logger.IntField("kept", len(articles)),
	)
	return articles, nil
}

// itemContent picks the first non-empty of description and content, reduced to plain text.
func itemContent(item *gofeed.Item) string {
	for _, candidate := range []string{item.Description, item.Content} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if !strings.ContainsAny(candidate, "<>") {
			return utils.CollapseWhitespace(candidate)
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(candidate))
		if err != nil {
			return utils.CollapseWhitespace(candidate)
		}
		return utils.CollapseWhitespace(doc.Text())
	}
	return ""
}

func itemPublishedAt(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		t := item.PublishedParsed.UTC()
		return &t
	}
	if item.UpdatedParsed != nil {
		t := item.UpdatedParsed.UTC()
		return &t
	}
	return nil
}
