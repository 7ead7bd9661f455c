// Package service runs trip exports end to end.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/trip-export/internal/export"
	"github.com/sells-group/trip-export/internal/monitoring"
	"github.com/sells-group/trip-export/internal/publish"
	"github.com/sells-group/trip-export/internal/store"
)

// ErrInvalidTripID is returned when the trip id is empty after trimming.
var ErrInvalidTripID = eris.New("service: trip id is required")

// Outcome labels used for metrics.
const (
	outcomePublished         = "published"
	outcomeNotFound          = "not_found"
	outcomeInvalid           = "invalid"
	outcomeSourceUnavailable = "source_unavailable"
	outcomeFailed            = "failed"
)

// Builder produces the export for a trip.
type Builder interface {
	Build(ctx context.Context, tripID string) (*export.Export, error)
}

// Archive records export attempts.
type Archive interface {
	RecordExport(ctx context.Context, rec *store.ExportRecord) error
}

// Result describes a published export.
type Result struct {
	TripID        string      `json:"trip_id"`
	Target        string      `json:"target"`
	Ref           publish.Ref `json:"ref"`
	ExportID      string      `json:"export_id,omitempty"`
	PayloadSHA256 string      `json:"payload_sha256"`
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithArchive records every publish attempt in a.
func WithArchive(a Archive) Option {
	return func(e *Exporter) { e.archive = a }
}

// WithMetrics reports run outcomes to m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(e *Exporter) { e.metrics = m }
}

// Exporter builds, renders and publishes trip exports.
type Exporter struct {
	builder   Builder
	publisher publish.Publisher
	archive   Archive
	metrics   *monitoring.Metrics
}

// NewExporter creates an Exporter.
func NewExporter(builder Builder, publisher publish.Publisher, opts ...Option) *Exporter {
	e := &Exporter{builder: builder, publisher: publisher}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Target names the configured publisher.
func (e *Exporter) Target() string {
	return e.publisher.Target()
}

// Preview builds the export for tripID without publishing it.
func (e *Exporter) Preview(ctx context.Context, tripID string) (*export.Export, error) {
	tripID = strings.TrimSpace(tripID)
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	return e.builder.Build(ctx, tripID)
}

// Run builds the export for tripID and publishes it. Nothing is written
// unless the export was built and rendered. Publisher failures are returned
// as *export.SourceUnavailableError.
func (e *Exporter) Run(ctx context.Context, tripID string) (*Result, error) {
	start := time.Now()
	tripID = strings.TrimSpace(tripID)
	if tripID == "" {
		e.metrics.ObserveExport(outcomeInvalid, time.Since(start))
		return nil, ErrInvalidTripID
	}

	log := zap.L().With(
		zap.String("trip_id", tripID),
		zap.String("target", e.publisher.Target()),
	)

	exp, err := e.builder.Build(ctx, tripID)
	if err != nil {
		outcome := outcomeOf(err)
		e.metrics.ObserveExport(outcome, time.Since(start))
		if outcome == outcomeNotFound {
			log.Info("export: trip not found")
			return nil, err
		}
		log.Error("export: build failed", zap.Error(err))
		e.record(ctx, &store.ExportRecord{TripID: tripID, Status: store.StatusFailed, Target: e.publisher.Target(), Error: err.Error()})
		return nil, err
	}

	doc, err := publish.NewDocument(tripID, exp)
	if err != nil {
		e.metrics.ObserveExport(outcomeFailed, time.Since(start))
		return nil, eris.Wrapf(err, "service: render trip %s", tripID)
	}
	sum := sha256.Sum256(doc.Body)
	digest := hex.EncodeToString(sum[:])

	ref, err := e.publisher.Publish(ctx, doc)
	if err != nil {
		perr := &export.SourceUnavailableError{Op: "publish " + e.publisher.Target(), Err: err}
		e.metrics.ObserveExport(outcomeSourceUnavailable, time.Since(start))
		log.Error("export: publish failed", zap.Error(err))
		e.record(ctx, &store.ExportRecord{
			TripID: tripID, Status: store.StatusFailed, Target: e.publisher.Target(),
			Error: perr.Error(), PayloadSHA256: digest,
		})
		return nil, perr
	}

	rec := &store.ExportRecord{
		TripID: tripID, Status: store.StatusPublished, Target: ref.Target,
		Ref: refString(ref), PayloadSHA256: digest,
	}
	e.record(ctx, rec)
	e.metrics.ObserveExport(outcomePublished, time.Since(start))

	log.Info("export: published",
		zap.String("ref", refString(ref)),
		zap.Int("bytes", len(doc.Body)),
		zap.Int("clients", len(exp.Clients)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Result{
		TripID:        tripID,
		Target:        ref.Target,
		Ref:           ref,
		ExportID:      rec.ID,
		PayloadSHA256: digest,
	}, nil
}

// record archives rec. Archive errors are logged and never fail the run.
func (e *Exporter) record(ctx context.Context, rec *store.ExportRecord) {
	if e.archive == nil {
		return
	}
	if err := e.archive.RecordExport(ctx, rec); err != nil {
		zap.L().Warn("export: archive write failed",
			zap.String("trip_id", rec.TripID),
			zap.Error(err),
		)
		rec.ID = ""
	}
}

func outcomeOf(err error) string {
	switch {
	case export.IsNotFound(err):
		return outcomeNotFound
	case export.IsSourceUnavailable(err):
		return outcomeSourceUnavailable
	default:
		return outcomeFailed
	}
}

func refString(ref publish.Ref) string {
	if ref.URL != "" {
		return ref.URL
	}
	return ref.ID
}
