// Package publish renders export documents and writes them to a document
// store.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
)

// Mode selects whether a publisher rewrites its target or creates a new one.
type Mode string

// Publish modes.
const (
	ModeOverwrite Mode = "overwrite"
	ModeCreate    Mode = "create"
)

// ParseMode validates s, defaulting to ModeOverwrite when empty.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeOverwrite:
		return ModeOverwrite, nil
	case ModeCreate:
		return ModeCreate, nil
	}
	return "", eris.Errorf("publish: unknown mode %q", s)
}

// Document is a rendered export ready to be written.
type Document struct {
	TripID string
	Title  string
	Body   []byte
}

// NewDocument renders v and titles the document after tripID.
func NewDocument(tripID string, v any) (Document, error) {
	body, err := Render(v)
	if err != nil {
		return Document{}, err
	}
	return Document{TripID: tripID, Title: Title(tripID), Body: body}, nil
}

// Title is the document title used for a trip.
func Title(tripID string) string {
	return fmt.Sprintf("Trip %s", tripID)
}

// Ref identifies a published document.
type Ref struct {
	Target string `json:"target"`
	ID     string `json:"id"`
	URL    string `json:"url,omitempty"`
}

// Publisher writes a document to an external store.
type Publisher interface {
	Publish(ctx context.Context, doc Document) (Ref, error)
	Target() string
}

// Render marshals v as JSON indented by two spaces. HTML characters and
// non-ASCII text are written unescaped and no trailing newline is kept.
func Render(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, eris.Wrap(err, "publish: render json")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
