package publish

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// FilePublisher writes each document to <dir>/<trip_id>.json, replacing any
// previous export of the same trip.
type FilePublisher struct {
	dir string
}

// NewFilePublisher creates a publisher writing under dir.
func NewFilePublisher(dir string) *FilePublisher {
	return &FilePublisher{dir: dir}
}

// Target implements Publisher.
func (p *FilePublisher) Target() string { return "file" }

var fileNameReplacer = strings.NewReplacer("/", "_", "\\", "_", "..", "_", ":", "_")

// Publish implements Publisher. The file is written to a temporary name and
// renamed so readers never observe a partial document.
func (p *FilePublisher) Publish(ctx context.Context, doc Document) (Ref, error) {
	if err := ctx.Err(); err != nil {
		return Ref{}, eris.Wrap(err, "publish: context cancelled")
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return Ref{}, eris.Wrapf(err, "publish: create dir %s", p.dir)
	}

	tmp, err := os.CreateTemp(p.dir, ".trip-*.json")
	if err != nil {
		return Ref{}, eris.Wrap(err, "publish: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(append(doc.Body, '\n')); err != nil {
		_ = tmp.Close()
		return Ref{}, eris.Wrap(err, "publish: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return Ref{}, eris.Wrap(err, "publish: close temp file")
	}

	dst := filepath.Join(p.dir, fileNameReplacer.Replace(doc.TripID)+".json")
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return Ref{}, eris.Wrapf(err, "publish: rename to %s", dst)
	}
	return Ref{Target: p.Target(), ID: dst}, nil
}
