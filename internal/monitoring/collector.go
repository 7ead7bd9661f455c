// Package monitoring reports export health from the archive and process
// metrics.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/trip-export/internal/store"
)

// collectLimit bounds how many archive rows a snapshot reads.
const collectLimit = 10000

// Snapshot holds a point-in-time view of export health.
type Snapshot struct {
	Total           int        `json:"total"`
	Published       int        `json:"published"`
	Failed          int        `json:"failed"`
	FailRate        float64    `json:"fail_rate"`
	Trips           int        `json:"trips"`
	LastTripID      string     `json:"last_trip_id,omitempty"`
	LastPublishedAt *time.Time `json:"last_published_at,omitempty"`
	LastError       string     `json:"last_error,omitempty"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// ExportLister is the archive query the collector needs.
type ExportLister interface {
	ListExports(ctx context.Context, filter store.ExportFilter) ([]store.ExportRecord, error)
}

// Collector summarizes archived export attempts.
type Collector struct {
	store ExportLister
	now   func() time.Time
}

// NewCollector creates a new collector over st.
func NewCollector(st ExportLister) *Collector {
	return &Collector{store: st, now: time.Now}
}

// Collect gathers a snapshot over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	now := c.now().UTC()
	snap := &Snapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	recs, err := c.store.ListExports(ctx, store.ExportFilter{
		Since: now.Add(-time.Duration(lookbackHours) * time.Hour),
		Limit: collectLimit,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list exports")
	}

	trips := make(map[string]struct{})
	// Records arrive newest first.
	for i, r := range recs {
		if i == 0 {
			snap.LastTripID = r.TripID
		}
		trips[r.TripID] = struct{}{}
		switch r.Status {
		case store.StatusPublished:
			snap.Published++
			if snap.LastPublishedAt == nil {
				at := r.CreatedAt
				snap.LastPublishedAt = &at
			}
		case store.StatusFailed:
			snap.Failed++
			if snap.LastError == "" {
				snap.LastError = r.Error
			}
		}
	}

	snap.Total = len(recs)
	snap.Trips = len(trips)
	if finished := snap.Published + snap.Failed; finished > 0 {
		snap.FailRate = float64(snap.Failed) / float64(finished)
	}
	return snap, nil
}
