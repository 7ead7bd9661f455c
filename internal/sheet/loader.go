package sheet

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrTableNotFound is returned by a Source when the named table does not
// exist. The Loader treats it as an empty table.
var ErrTableNotFound = eris.New("sheet: table not found")

// Source reads a named table as a grid of string cells.
type Source interface {
	Values(ctx context.Context, table string) ([][]string, error)
}

// Lister is implemented by sources that can enumerate their tables.
type Lister interface {
	Tables(ctx context.Context) ([]string, error)
}

// Loader turns source grids into Records.
type Loader struct {
	src Source
}

// NewLoader creates a Loader over src.
func NewLoader(src Source) *Loader {
	return &Loader{src: src}
}

// Load reads table and returns its data records. A missing table yields no
// records and no error.
func (l *Loader) Load(ctx context.Context, table string) ([]Record, error) {
	grid, err := l.src.Values(ctx, table)
	if errors.Is(err, ErrTableNotFound) {
		zap.L().Debug("sheet: table missing, treating as empty", zap.String("table", table))
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sheet: load %s", table)
	}
	return Records(grid), nil
}

// Records converts a grid into records. Row 1 holds field names, row 2 holds
// descriptions and is skipped, and every later row that is not entirely
// blank becomes a Record. Grids with fewer than three rows have no data.
func Records(grid [][]string) []Record {
	if len(grid) < 3 {
		return nil
	}

	headers := grid[0]
	var out []Record
	for _, row := range grid[2:] {
		if IsBlank(row) {
			continue
		}
		out = append(out, NewRecord(headers, row))
	}
	return out
}
