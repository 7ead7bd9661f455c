// Package store archives export attempts.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when an export record does not exist.
var ErrNotFound = eris.New("store: export not found")

// ExportStatus is the outcome of a publish attempt.
type ExportStatus string

// Export statuses.
const (
	StatusPublished ExportStatus = "published"
	StatusFailed    ExportStatus = "failed"
)

// ExportRecord is one archived publish attempt.
type ExportRecord struct {
	ID            string       `json:"id"`
	TripID        string       `json:"trip_id"`
	Status        ExportStatus `json:"status"`
	Target        string       `json:"target"`
	Ref           string       `json:"ref,omitempty"`
	Error         string       `json:"error,omitempty"`
	PayloadSHA256 string       `json:"payload_sha256,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ExportFilter specifies criteria for listing export records.
type ExportFilter struct {
	TripID string       `json:"trip_id,omitempty"`
	Status ExportStatus `json:"status,omitempty"`
	Since  time.Time    `json:"since,omitempty"`
	Limit  int          `json:"limit,omitempty"`
	Offset int          `json:"offset,omitempty"`
}

// DefaultListLimit caps ListExports when the filter sets no limit.
const DefaultListLimit = 100

// Store defines the persistence interface for the export archive.
type Store interface {
	// RecordExport persists rec, assigning ID and CreatedAt when empty.
	RecordExport(ctx context.Context, rec *ExportRecord) error
	GetExport(ctx context.Context, id string) (*ExportRecord, error)
	// ListExports returns matching records, newest first.
	ListExports(ctx context.Context, filter ExportFilter) ([]ExportRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func limitOf(f ExportFilter) int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}
