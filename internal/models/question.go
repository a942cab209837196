package models

import (
	"time"

	"gorm.io/gorm"
)

// Question is a community question. Votes, ViewCount and AnswerCount are
// persisted counters maintained by atomic in-database updates; AnswerCount
// always equals the live count of the question's answers.
type Question struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Content     string         `gorm:"not null" json:"content"`
	CategoryID  uint           `gorm:"not null;index" json:"category_id"`
	Category    Category       `gorm:"foreignKey:CategoryID" json:"category"`
	AuthorName  string         `json:"author_name"`
	UserID      *uint          `gorm:"index" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Votes       int            `gorm:"not null;default:0" json:"votes"`
	ViewCount   int            `gorm:"not null;default:0" json:"view_count"`
	AnswerCount int            `gorm:"not null;default:0" json:"answer_count"`
	IsPinned    bool           `gorm:"not null;default:false" json:"is_pinned"`
	MediaURL    string         `json:"media_url,omitempty"`
	CodeSnippet string         `json:"code_snippet,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Answer is a reply to a question. At most one answer per question carries
// IsAccepted; the accept operation enforces that inside a transaction.
type Answer struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	QuestionID  uint           `gorm:"not null;index" json:"question_id"`
	Content     string         `gorm:"not null" json:"content"`
	AuthorName  string         `json:"author_name"`
	UserID      *uint          `gorm:"index" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Votes       int            `gorm:"not null;default:0" json:"votes"`
	IsAccepted  bool           `gorm:"not null;default:false" json:"is_accepted"`
	MediaURL    string         `json:"media_url,omitempty"`
	CodeSnippet string         `json:"code_snippet,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// VoteDirection is a single vote's direction on a question or answer.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Delta returns the vote's effect on the target's vote counter.
func (d VoteDirection) Delta() int {
	if d == VoteDown {
		return -1
	}
	return 1
}

// Valid reports whether the direction is one of up/down.
func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}
