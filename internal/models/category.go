package models

import "time"

// Category is static reference data grouping questions by topic.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"unique;not null" json:"name"`
	Slug        string    `gorm:"unique;not null" json:"slug"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FAQ is an admin-authored frequently-asked question, displayed ordered by
// Order ascending.
type FAQ struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Question    string    `gorm:"not null" json:"question"`
	Answer      string    `gorm:"not null" json:"answer"`
	CategoryID  uint      `gorm:"not null;index" json:"category_id"`
	Category    Category  `gorm:"foreignKey:CategoryID" json:"category"`
	Order       int       `gorm:"not null;default:0" json:"order"`
	CodeSnippet string    `json:"code_snippet,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
