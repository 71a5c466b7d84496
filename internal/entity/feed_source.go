package entity

import "time"

// FeedSource is a named RSS/Atom endpoint with a region tag.
type FeedSource struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"not null" json:"name"`
	URL           string     `gorm:"unique;not null" json:"url"`
	Region        string     `gorm:"not null" json:"region"`
	IsActive      bool       `gorm:"not null;default:true" json:"is_active"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the FeedSource model.
func (FeedSource) TableName() string {
	return "feed_sources"
}
