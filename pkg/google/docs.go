package google

// Document is the subset of a Docs document resource used here.
type Document struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`
	Body       struct {
		Content []StructuralElement `json:"content"`
	} `json:"body"`
}

// StructuralElement is one top-level body element.
type StructuralElement struct {
	StartIndex int64 `json:"startIndex"`
	EndIndex   int64 `json:"endIndex"`
}

// EndIndex returns the end index of the last body element, or 1 for an
// empty body.
func (d *Document) EndIndex() int64 {
	if d == nil || len(d.Body.Content) == 0 {
		return 1
	}
	return d.Body.Content[len(d.Body.Content)-1].EndIndex
}

// DocRequest is one entry of a documents.batchUpdate call.
type DocRequest struct {
	DeleteContentRange *DeleteContentRange `json:"deleteContentRange,omitempty"`
	InsertText         *InsertText         `json:"insertText,omitempty"`
}

// DeleteContentRange removes the text in Range.
type DeleteContentRange struct {
	Range Range `json:"range"`
}

// Range is a half-open [StartIndex, EndIndex) span of the body.
type Range struct {
	StartIndex int64 `json:"startIndex"`
	EndIndex   int64 `json:"endIndex"`
}

// InsertText inserts Text at Location.
type InsertText struct {
	Location Location `json:"location"`
	Text     string   `json:"text"`
}

// Location is a body index.
type Location struct {
	Index int64 `json:"index"`
}

// ReplaceBodyRequests builds the requests that replace the whole body of a
// document with text. The final newline of a body can never be deleted, so
// the delete stops one short of endIndex and is omitted for an empty body.
func ReplaceBodyRequests(endIndex int64, text string) []DocRequest {
	var reqs []DocRequest
	if end := endIndex - 1; end > 1 {
		reqs = append(reqs, DocRequest{DeleteContentRange: &DeleteContentRange{
			Range: Range{StartIndex: 1, EndIndex: end},
		}})
	}
	return append(reqs, DocRequest{InsertText: &InsertText{
		Location: Location{Index: 1},
		Text:     text,
	}})
}
