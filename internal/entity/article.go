package entity

import "time"

// Article is the flat audience-facing record produced by the extractive summarizer.
type Article struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"not null" json:"title"`
	WhoShouldCare string    `gorm:"not null" json:"who_should_care"`
	Summary       string    `gorm:"type:text;not null" json:"summary"`
	Impact        string    `gorm:"type:text" json:"impact"`
	SourceURL     string    `json:"source_url"`
	SourceName    string    `json:"source_name"`
	Category      string    `json:"category"`
	Region        string    `json:"region"`
	PublishedAt   time.Time `gorm:"not null" json:"published_at"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Article model.
func (Article) TableName() string {
	return "articles"
}
