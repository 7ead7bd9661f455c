package sheet

import (
	"context"
	"errors"

	"github.com/sells-group/trip-export/pkg/google"
)

// GoogleSource reads tables from the sheets of one Google spreadsheet.
type GoogleSource struct {
	client        google.Client
	spreadsheetID string
}

// NewGoogleSource creates a source over spreadsheetID.
func NewGoogleSource(client google.Client, spreadsheetID string) *GoogleSource {
	return &GoogleSource{client: client, spreadsheetID: spreadsheetID}
}

// Values returns the formatted cell values of the sheet named table.
func (s *GoogleSource) Values(ctx context.Context, table string) ([][]string, error) {
	rows, err := s.client.SheetValues(ctx, s.spreadsheetID, table)
	if errors.Is(err, google.ErrRangeNotFound) {
		return nil, ErrTableNotFound
	}
	return rows, err
}

// Tables lists the sheet titles of the spreadsheet.
func (s *GoogleSource) Tables(ctx context.Context) ([]string, error) {
	return s.client.SheetTitles(ctx, s.spreadsheetID)
}
