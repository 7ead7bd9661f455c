package notion

import (
	"context"
	"strings"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func paragraph(id string) notionapi.Block {
	return &notionapi.ParagraphBlock{BasicBlock: notionapi.BasicBlock{ID: notionapi.BlockID(id), Type: notionapi.BlockTypeParagraph}}
}

func TestListChildren_Paginates(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("GetBlockChildren", ctx, "page-1", mock.MatchedBy(func(p *notionapi.Pagination) bool {
		return p.StartCursor == ""
	})).Return(&notionapi.GetChildrenResponse{
		Results:    []notionapi.Block{paragraph("b1"), paragraph("b2")},
		HasMore:    true,
		NextCursor: "cursor-2",
	}, nil).Once()
	mc.On("GetBlockChildren", ctx, "page-1", mock.MatchedBy(func(p *notionapi.Pagination) bool {
		return p.StartCursor == "cursor-2"
	})).Return(&notionapi.GetChildrenResponse{
		Results: []notionapi.Block{paragraph("b3")},
	}, nil).Once()

	blocks, err := ListChildren(ctx, mc, "page-1")
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, notionapi.BlockID("b3"), blocks[2].GetID())
	mc.AssertExpectations(t)
}

func TestListChildren_Error(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()
	mc.On("GetBlockChildren", ctx, "page-1", mock.Anything).Return(nil, assert.AnError)

	_, err := ListChildren(ctx, mc, "page-1")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestReplaceChildren(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("GetBlockChildren", ctx, "page-1", mock.Anything).Return(&notionapi.GetChildrenResponse{
		Results: []notionapi.Block{paragraph("old-1"), paragraph("old-2")},
	}, nil)
	mc.On("DeleteBlock", ctx, "old-1").Return(nil).Once()
	mc.On("DeleteBlock", ctx, "old-2").Return(nil).Once()
	mc.On("AppendBlockChildren", ctx, "page-1", mock.MatchedBy(func(req *notionapi.AppendBlockChildrenRequest) bool {
		return len(req.Children) == 1
	})).Return(&notionapi.AppendBlockChildrenResponse{}, nil).Once()

	err := ReplaceChildren(ctx, mc, "page-1", CodeBlocks(`{"a":1}`, "json"))
	require.NoError(t, err)
	mc.AssertExpectations(t)
}

func TestReplaceChildren_DeleteError(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("GetBlockChildren", ctx, "page-1", mock.Anything).Return(&notionapi.GetChildrenResponse{
		Results: []notionapi.Block{paragraph("old-1")},
	}, nil)
	mc.On("DeleteBlock", ctx, "old-1").Return(assert.AnError)

	err := ReplaceChildren(ctx, mc, "page-1", CodeBlocks("x", "json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear page")
	mc.AssertNotCalled(t, "AppendBlockChildren", mock.Anything, mock.Anything, mock.Anything)
}

func TestAppendChildren_Batches(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	blocks := make([]notionapi.Block, 0, 250)
	for i := 0; i < 250; i++ {
		blocks = append(blocks, paragraph("p"))
	}
	var sizes []int
	mc.On("AppendBlockChildren", ctx, "page-1", mock.Anything).Run(func(args mock.Arguments) {
		sizes = append(sizes, len(args.Get(2).(*notionapi.AppendBlockChildrenRequest).Children))
	}).Return(&notionapi.AppendBlockChildrenResponse{}, nil)

	require.NoError(t, AppendChildren(ctx, mc, "page-1", blocks))
	assert.Equal(t, []int{100, 100, 50}, sizes)
}

func TestCodeBlocks_Splits(t *testing.T) {
	text := strings.Repeat("я", MaxTextLength*MaxRichTextPerBlk+10)
	blocks := CodeBlocks(text, "json")
	require.Len(t, blocks, 2)

	first := blocks[0].(*notionapi.CodeBlock)
	assert.Equal(t, "json", first.Code.Language)
	assert.Len(t, first.Code.RichText, MaxRichTextPerBlk)
	assert.Equal(t, MaxTextLength, len([]rune(first.Code.RichText[0].Text.Content)))

	second := blocks[1].(*notionapi.CodeBlock)
	require.Len(t, second.Code.RichText, 1)
	assert.Equal(t, 10, len([]rune(second.Code.RichText[0].Text.Content)))

	var sb strings.Builder
	for _, b := range blocks {
		for _, rt := range b.(*notionapi.CodeBlock).Code.RichText {
			sb.WriteString(rt.Text.Content)
		}
	}
	assert.Equal(t, text, sb.String())
}

func TestCodeBlocks_Empty(t *testing.T) {
	assert.Empty(t, CodeBlocks("", "json"))
}

func TestTitleProperties(t *testing.T) {
	props := TitleProperties("Trip T1")
	title, ok := props["title"].(notionapi.TitleProperty)
	require.True(t, ok)
	assert.Equal(t, "Trip T1", title.Title[0].Text.Content)
}
