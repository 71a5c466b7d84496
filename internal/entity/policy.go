package entity

import (
	"time"

	"github.com/lib/pq"
)

// PolicyDomain is the closed set of subject areas a policy can belong to.
type PolicyDomain string

const (
	PolicyDomainTransit     PolicyDomain = "transit"
	PolicyDomainEducation   PolicyDomain = "education"
	PolicyDomainHousing     PolicyDomain = "housing"
	PolicyDomainBudget      PolicyDomain = "budget"
	PolicyDomainElections   PolicyDomain = "elections"
	PolicyDomainHealth      PolicyDomain = "health"
	PolicyDomainEnvironment PolicyDomain = "environment"
	PolicyDomainGeneral     PolicyDomain = "general"
)

func (d PolicyDomain) Valid() bool {
	switch d {
	case PolicyDomainTransit, PolicyDomainEducation, PolicyDomainHousing, PolicyDomainBudget,
		PolicyDomainElections, PolicyDomainHealth, PolicyDomainEnvironment, PolicyDomainGeneral:
		return true
	}
	return false
}

// PolicyStatus is the legislative lifecycle stage reported for a policy.
type PolicyStatus string

const (
	PolicyStatusIntroduced       PolicyStatus = "INTRODUCED"
	PolicyStatusCommittee        PolicyStatus = "COMMITTEE"
	PolicyStatusHearingScheduled PolicyStatus = "HEARING_SCHEDULED"
	PolicyStatusVoteScheduled    PolicyStatus = "VOTE_SCHEDULED"
	PolicyStatusPassed           PolicyStatus = "PASSED"
	PolicyStatusFailed           PolicyStatus = "FAILED"
	PolicyStatusSigned           PolicyStatus = "SIGNED"
	PolicyStatusEnacted          PolicyStatus = "ENACTED"
	PolicyStatusImplemented      PolicyStatus = "IMPLEMENTED"
)

func (s PolicyStatus) Valid() bool {
	switch s {
	case PolicyStatusIntroduced, PolicyStatusCommittee, PolicyStatusHearingScheduled,
		PolicyStatusVoteScheduled, PolicyStatusPassed, PolicyStatusFailed, PolicyStatusSigned,
		PolicyStatusEnacted, PolicyStatusImplemented:
		return true
	}
	return false
}

// Policy is the audience-facing aggregate for one ongoing civic issue.
// Status always mirrors the most recently appended event.
type Policy struct {
	ID                   uint          `gorm:"primaryKey" json:"id"`
	Title                string        `gorm:"not null" json:"title"`
	ShortTitle           string        `gorm:"not null" json:"short_title"`
	Description          string        `gorm:"type:text" json:"description"`
	Domain               PolicyDomain  `gorm:"type:varchar(20);not null" json:"domain"`
	Status               PolicyStatus  `gorm:"type:varchar(30);not null" json:"status"`
	State                string        `gorm:"type:varchar(2);not null;default:PA" json:"state"`
	Region               string        `json:"region"`
	NextMilestone        *string       `json:"next_milestone,omitempty"`
	SourceName           string        `json:"source_name"`
	SourceURL            string        `json:"source_url"`
	IsActive             bool          `gorm:"not null;default:true" json:"is_active"`
	NormalizedTitle      string        `gorm:"index" json:"-"`
	NormalizedShortTitle string        `gorm:"index" json:"-"`
	Events               []PolicyEvent `gorm:"foreignKey:PolicyID" json:"events,omitempty"`
	CreatedAt            time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Policy model.
func (Policy) TableName() string {
	return "policies"
}

// PolicyEvent is one immutable entry in a policy timeline.
type PolicyEvent struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	PolicyID      uint           `gorm:"not null;index" json:"policy_id"`
	Status        PolicyStatus   `gorm:"type:varchar(30);not null" json:"status"`
	EventDate     time.Time      `gorm:"not null" json:"event_date"`
	ChangeSummary string         `gorm:"type:text" json:"change_summary"`
	AISummary     string         `gorm:"column:ai_summary;type:text" json:"ai_summary"`
	Sources       pq.StringArray `gorm:"type:text[]" json:"sources"`
	RawArticleID  *uint          `json:"raw_article_id,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (PolicyEvent) TableName() string {
	return "policy_events"
}
