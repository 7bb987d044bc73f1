package domain

import (
	"errors"
	"time"
)

// SearchEvent represents one user-initiated search (append-only)
type SearchEvent struct {
	UserID      string    `json:"user_id"`
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	// ErrPersistenceUnavailable wraps any storage I/O failure
	ErrPersistenceUnavailable = errors.New("persistence unavailable")

	// ErrInvalidQuery is returned for empty search queries
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidLimit is returned for non-positive result limits
	ErrInvalidLimit = errors.New("invalid limit")

	// ErrInvalidHandle is returned when a group identifier cannot be parsed
	ErrInvalidHandle = errors.New("invalid group handle")
)
