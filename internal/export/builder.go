package export

import (
	"context"
	"strings"

	"github.com/sells-group/trip-export/internal/sheet"
)

// Loader reads the records of a named table.
type Loader interface {
	Load(ctx context.Context, table string) ([]sheet.Record, error)
}

// Builder loads the source tables and aggregates them.
type Builder struct {
	loader Loader
	opts   []Option
}

// NewBuilder creates a Builder reading through loader.
func NewBuilder(loader Loader, opts ...Option) *Builder {
	return &Builder{loader: loader, opts: opts}
}

// Build reads Trips first and returns a *NotFoundError before any other
// table is read when tripID has no rows. Profile, Contacts and Payments are
// then read in that order. Load failures are reported as *SourceUnavailableError.
func (b *Builder) Build(ctx context.Context, tripID string) (*Export, error) {
	tripID = strings.TrimSpace(tripID)

	trips, err := b.loader.Load(ctx, TableTrips)
	if err != nil {
		return nil, &SourceUnavailableError{Op: "load " + TableTrips, Err: err}
	}
	if len(TripRows(trips, tripID)) == 0 {
		return nil, &NotFoundError{TripID: tripID}
	}

	t := Tables{Trips: trips}
	for _, dst := range []struct {
		name string
		recs *[]sheet.Record
	}{
		{TableProfile, &t.Profile},
		{TableContacts, &t.Contacts},
		{TablePayments, &t.Payments},
	} {
		recs, err := b.loader.Load(ctx, dst.name)
		if err != nil {
			return nil, &SourceUnavailableError{Op: "load " + dst.name, Err: err}
		}
		*dst.recs = recs
	}

	return Aggregate(tripID, t, b.opts...)
}
