package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// Notion API limits.
const (
	MaxTextLength     = 2000
	MaxRichTextPerBlk = 100
	MaxAppendChildren = 100
)

// ListChildren fetches every child block of blockID, following cursors.
func ListChildren(ctx context.Context, c Client, blockID string) ([]notionapi.Block, error) {
	var all []notionapi.Block
	pagination := &notionapi.Pagination{PageSize: 100}

	for {
		resp, err := c.GetBlockChildren(ctx, blockID, pagination)
		if err != nil {
			return nil, eris.Wrap(err, "notion: list children")
		}
		all = append(all, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		pagination = &notionapi.Pagination{
			StartCursor: notionapi.Cursor(resp.NextCursor),
			PageSize:    100,
		}
	}

	return all, nil
}

// ReplaceChildren deletes every child of pageID and appends blocks in
// batches the API accepts.
func ReplaceChildren(ctx context.Context, c Client, pageID string, blocks []notionapi.Block) error {
	existing, err := ListChildren(ctx, c, pageID)
	if err != nil {
		return err
	}
	for _, b := range existing {
		if err := c.DeleteBlock(ctx, string(b.GetID())); err != nil {
			return eris.Wrap(err, "notion: clear page")
		}
	}
	return AppendChildren(ctx, c, pageID, blocks)
}

// AppendChildren appends blocks to pageID in batches of MaxAppendChildren.
func AppendChildren(ctx context.Context, c Client, pageID string, blocks []notionapi.Block) error {
	for start := 0; start < len(blocks); start += MaxAppendChildren {
		end := min(start+MaxAppendChildren, len(blocks))
		req := &notionapi.AppendBlockChildrenRequest{Children: blocks[start:end]}
		if _, err := c.AppendBlockChildren(ctx, pageID, req); err != nil {
			return eris.Wrap(err, "notion: append blocks")
		}
	}
	return nil
}

// CodeBlocks splits text into code blocks. Each rich-text run holds at most
// MaxTextLength characters and each block at most MaxRichTextPerBlk runs.
func CodeBlocks(text, language string) []notionapi.Block {
	runs := splitRunes(text, MaxTextLength)

	var blocks []notionapi.Block
	for start := 0; start < len(runs); start += MaxRichTextPerBlk {
		end := min(start+MaxRichTextPerBlk, len(runs))
		rich := make([]notionapi.RichText, 0, end-start)
		for _, r := range runs[start:end] {
			rich = append(rich, notionapi.RichText{
				Type: notionapi.ObjectTypeText,
				Text: &notionapi.Text{Content: r},
			})
		}
		blocks = append(blocks, &notionapi.CodeBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeCode,
			},
			Code: notionapi.Code{
				RichText: rich,
				Language: language,
			},
		})
	}
	return blocks
}

// TitleProperties returns page properties holding only a title.
func TitleProperties(title string) notionapi.Properties {
	return notionapi.Properties{
		"title": notionapi.TitleProperty{
			Type: notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: title}},
			},
		},
	}
}

func splitRunes(s string, n int) []string {
	if s == "" {
		return nil
	}
	rs := []rune(s)
	out := make([]string, 0, len(rs)/n+1)
	for start := 0; start < len(rs); start += n {
		end := min(start+n, len(rs))
		out = append(out, string(rs[start:end]))
	}
	return out
}
