package entity

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when a raw article is moved along an edge
// that the status table does not allow.
var ErrInvalidTransition = errors.New("invalid raw article status transition")

// RawArticleStatus is the pipeline state of an ingested feed item.
type RawArticleStatus string

const (
	RawArticleStatusPending    RawArticleStatus = "PENDING"
	RawArticleStatusProcessing RawArticleStatus = "PROCESSING"
	RawArticleStatusApproved   RawArticleStatus = "APPROVED"
	RawArticleStatusRejected   RawArticleStatus = "REJECTED"
	RawArticleStatusSummarized RawArticleStatus = "SUMMARIZED"
	RawArticleStatusProcessed  RawArticleStatus = "PROCESSED"
	RawArticleStatusError      RawArticleStatus = "ERROR"
)

// AllRawArticleStatuses lists every status in pipeline order.
var AllRawArticleStatuses = []RawArticleStatus{
	RawArticleStatusPending,
	RawArticleStatusProcessing,
	RawArticleStatusApproved,
	RawArticleStatusRejected,
	RawArticleStatusSummarized,
	RawArticleStatusProcessed,
	RawArticleStatusError,
}

// rawArticleTransitions is the complete edge list. PROCESSING -> PENDING releases
// an article whose run stopped mid-item. ERROR -> PENDING exists only for the
// manual requeue command.
var rawArticleTransitions = map[RawArticleStatus][]RawArticleStatus{
	RawArticleStatusPending:    {RawArticleStatusProcessing, RawArticleStatusApproved, RawArticleStatusRejected, RawArticleStatusError},
	RawArticleStatusProcessing: {RawArticleStatusPending, RawArticleStatusApproved, RawArticleStatusRejected, RawArticleStatusError},
	RawArticleStatusApproved:   {RawArticleStatusSummarized, RawArticleStatusProcessed, RawArticleStatusRejected, RawArticleStatusError},
	RawArticleStatusRejected:   nil,
	RawArticleStatusSummarized: nil,
	RawArticleStatusProcessed:  nil,
	RawArticleStatusError:      {RawArticleStatusPending},
}

// Valid reports whether s is one of the known statuses.
func (s RawArticleStatus) Valid() bool {
	switch s {
	case RawArticleStatusPending, RawArticleStatusProcessing, RawArticleStatusApproved,
		RawArticleStatusRejected, RawArticleStatusSummarized, RawArticleStatusProcessed,
		RawArticleStatusError:
		return true
	}
	return false
}

// IsTerminal reports whether no pipeline run may move the article further.
func (s RawArticleStatus) IsTerminal() bool {
	return s.Valid() && len(rawArticleTransitions[s]) == 0
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s RawArticleStatus) CanTransitionTo(next RawArticleStatus) bool {
	for _, allowed := range rawArticleTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RawArticle is an ingested, not yet curated feed item.
type RawArticle struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	SourceURL      string           `gorm:"unique;not null" json:"source_url"`
	SourceName     string           `gorm:"not null" json:"source_name"`
	SourceTitle    string           `gorm:"not null" json:"source_title"`
	SourceContent  string           `gorm:"type:text" json:"source_content"`
	PublishedAt    *time.Time       `json:"published_at,omitempty"`
	Status         RawArticleStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	RelevanceScore *float64         `json:"relevance_score,omitempty"`
	ErrorMessage   string           `gorm:"type:text" json:"error_message,omitempty"`
	ProcessedAt    *time.Time       `json:"processed_at,omitempty"`
	PolicyID       *uint            `json:"policy_id,omitempty"`
	ArticleID      *uint            `json:"article_id,omitempty"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the RawArticle model.
func (RawArticle) TableName() string {
	return "raw_articles"
}

// TransitionTo moves the article to next, stamping ProcessedAt when next is
// terminal or ERROR.
func (a *RawArticle) TransitionTo(next RawArticleStatus, at time.Time) error {
	if !a.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, next)
	}
	a.Status = next
	if next.IsTerminal() || next == RawArticleStatusError {
		a.ProcessedAt = &at
	}
	return nil
}

// Fail moves the article to ERROR and records the cause.
func (a *RawArticle) Fail(cause error, at time.Time) error {
	if err := a.TransitionTo(RawArticleStatusError, at); err != nil {
		return err
	}
	a.ErrorMessage = cause.Error()
	return nil
}
