package publish

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/sells-group/trip-export/pkg/notion"
)

// NotionPublisher writes documents as JSON code blocks on a Notion page.
// In ModeOverwrite the page body is replaced; in ModeCreate a child page is
// created under it.
type NotionPublisher struct {
	client notion.Client
	pageID string
	mode   Mode
}

// NewNotionPublisher creates a publisher targeting pageID.
func NewNotionPublisher(client notion.Client, pageID string, mode Mode) *NotionPublisher {
	return &NotionPublisher{client: client, pageID: pageID, mode: mode}
}

// Target implements Publisher.
func (p *NotionPublisher) Target() string { return "notion" }

// Publish implements Publisher.
func (p *NotionPublisher) Publish(ctx context.Context, doc Document) (Ref, error) {
	blocks := notion.CodeBlocks(string(doc.Body), "json")

	if p.mode == ModeCreate {
		first := blocks[:min(len(blocks), notion.MaxAppendChildren)]
		page, err := p.client.CreatePage(ctx, &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:   notionapi.ParentTypePageID,
				PageID: notionapi.PageID(p.pageID),
			},
			Properties: notion.TitleProperties(doc.Title),
			Children:   first,
		})
		if err != nil {
			return Ref{}, eris.Wrapf(err, "publish: notion create page for %s", doc.TripID)
		}
		if rest := blocks[len(first):]; len(rest) > 0 {
			if err := notion.AppendChildren(ctx, p.client, string(page.ID), rest); err != nil {
				return Ref{}, eris.Wrapf(err, "publish: notion append to %s", page.ID)
			}
		}
		return Ref{Target: p.Target(), ID: string(page.ID), URL: page.URL}, nil
	}

	if err := notion.ReplaceChildren(ctx, p.client, p.pageID, blocks); err != nil {
		return Ref{}, eris.Wrapf(err, "publish: notion overwrite %s", p.pageID)
	}
	return Ref{Target: p.Target(), ID: p.pageID, URL: notionURL(p.pageID)}, nil
}

func notionURL(pageID string) string {
	return "https://www.notion.so/" + strings.ReplaceAll(pageID, "-", "")
}
