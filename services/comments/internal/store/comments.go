// Package store persists movie comments and computes the critics report.
//
// Every backend implements CommentStore with the same contract:
// ownership is checked inside the write itself (id AND email in one
// conditional statement), so "no such comment" and "not your comment"
// are reported identically as false.
package store

import (
	"context"
	"time"
)

// CriticsLimit caps the critics report.
const CriticsLimit = 20

// Comment represents a single user comment on a movie.
type Comment struct {
	ID      string    `json:"id"`
	MovieID string    `json:"movie_id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Text    string    `json:"text"`
	Date    time.Time `json:"date"`
}

// Critic is a derived report row: a commenter email and how many comments
// it authored. Critics are never stored.
type Critic struct {
	ID    string `json:"id" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}

// CommentStore defines the contract for comment persistence.
type CommentStore interface {
	// Get returns ErrNotFound when no comment has this id.
	Get(ctx context.Context, id string) (Comment, error)
	// Add inserts c as is and echoes it back. c.ID must be set.
	Add(ctx context.Context, c Comment) (Comment, error)
	// UpdateText replaces the text and refreshes the date of a comment owned
	// by email. It reports false when nothing matched.
	UpdateText(ctx context.Context, id, text, email string) (bool, error)
	// Delete removes a comment owned by email. It reports false when nothing
	// matched or email is empty.
	Delete(ctx context.Context, id, email string) (bool, error)
	// MostActiveCommenters returns at most CriticsLimit critics ordered by
	// count descending, then email ascending.
	MostActiveCommenters(ctx context.Context) ([]Critic, error)
	Ping(ctx context.Context) error
}
