package dto

import "time"

// FetchedArticle is a normalized feed item before it is persisted.
type FetchedArticle struct {
	SourceURL     string     `json:"source_url"`
	SourceName    string     `json:"source_name"`
	SourceTitle   string     `json:"source_title"`
	SourceContent string     `json:"source_content"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
}

// SummaryInput is what a summarizer receives for one approved raw article.
type SummaryInput struct {
	Title      string
	Content    string
	SourceName string
	SourceURL  string
}
