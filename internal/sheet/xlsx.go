package sheet

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXSource reads tables from the sheets of a workbook on disk. The file is
// reopened on every call so each request sees the current contents.
type XLSXSource struct {
	path string
}

// NewXLSXSource creates a source over the workbook at path.
func NewXLSXSource(path string) *XLSXSource {
	return &XLSXSource{path: path}
}

// Values returns all rows of the sheet named table.
func (s *XLSXSource) Values(ctx context.Context, table string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "xlsx: context cancelled")
	}

	f, err := xlsx.OpenFile(s.path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", s.path)
	}

	sheet, ok := f.Sheet[table]
	if !ok {
		return nil, ErrTableNotFound
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		rows = append(rows, rowToStrings(row))
	}
	return rows, nil
}

// Tables lists the sheet names in workbook order.
func (s *XLSXSource) Tables(_ context.Context) ([]string, error) {
	f, err := xlsx.OpenFile(s.path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", s.path)
	}
	names := make([]string, 0, len(f.Sheets))
	for _, sh := range f.Sheets {
		names = append(names, sh.Name)
	}
	return names, nil
}

func rowToStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		cells[j] = cell.String()
	}
	return cells
}
