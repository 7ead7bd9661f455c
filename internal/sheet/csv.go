package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

const utf8BOM = "\ufeff"

// CSVSource reads tables from a directory holding one <table>.csv file per
// table, as produced by exporting each sheet of a spreadsheet.
type CSVSource struct {
	dir string
}

// NewCSVSource creates a source over dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// Values parses <dir>/<table>.csv. Rows may have differing field counts.
func (s *CSVSource) Values(ctx context.Context, table string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "csv: context cancelled")
	}

	f, err := os.Open(filepath.Join(s.dir, table+".csv"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "csv: open %s", table)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "csv: read %s", table)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}
	return rows, nil
}

// Tables lists the table names available in the directory.
func (s *CSVSource) Tables(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: read dir %s", s.dir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(names)
	return names, nil
}
