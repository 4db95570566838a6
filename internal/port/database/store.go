// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/letterdesk/letterdesk/internal/domain/letter"
)

// Store is the port interface for letter persistence.
type Store interface {
	// SaveLetter persists a generated letter and returns the stored copy.
	SaveLetter(ctx context.Context, doc *letter.Letter) (*letter.Letter, error)

	// GetLetter returns the letter with the given id.
	// Soft-deleted letters are not returned.
	GetLetter(ctx context.Context, id string) (*letter.Letter, error)

	// QueryLetters returns letters matching the filter, newest first.
	QueryLetters(ctx context.Context, f letter.Filter) ([]letter.Letter, error)

	// UpdateLetterStatus transitions the review status of a letter.
	UpdateLetterStatus(ctx context.Context, id string, status letter.ReviewStatus) error

	// SoftDeleteLetter marks a letter deleted without removing the row.
	SoftDeleteLetter(ctx context.Context, id string) error
}
