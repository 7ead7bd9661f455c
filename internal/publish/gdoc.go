package publish

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/trip-export/pkg/google"
)

// DocsPublisher writes documents to Google Docs. In ModeOverwrite the body of
// the configured document is replaced; in ModeCreate a new document is made.
type DocsPublisher struct {
	client     google.Client
	documentID string
	mode       Mode
}

// NewDocsPublisher creates a publisher targeting documentID.
func NewDocsPublisher(client google.Client, documentID string, mode Mode) *DocsPublisher {
	return &DocsPublisher{client: client, documentID: documentID, mode: mode}
}

// Target implements Publisher.
func (p *DocsPublisher) Target() string { return "gdoc" }

// Publish implements Publisher.
func (p *DocsPublisher) Publish(ctx context.Context, doc Document) (Ref, error) {
	id := p.documentID
	endIndex := int64(1)

	if p.mode == ModeCreate {
		created, err := p.client.CreateDocument(ctx, doc.Title)
		if err != nil {
			return Ref{}, eris.Wrapf(err, "publish: create document for %s", doc.TripID)
		}
		id = created.DocumentID
	} else {
		current, err := p.client.GetDocument(ctx, id)
		if err != nil {
			return Ref{}, eris.Wrapf(err, "publish: get document %s", id)
		}
		endIndex = current.EndIndex()
	}

	if err := p.client.BatchUpdateDocument(ctx, id, google.ReplaceBodyRequests(endIndex, string(doc.Body))); err != nil {
		return Ref{}, eris.Wrapf(err, "publish: write document %s", id)
	}
	return Ref{Target: p.Target(), ID: id, URL: "https://docs.google.com/document/d/" + id + "/edit"}, nil
}
