package sheet

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "trips.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestXLSXSource_Values(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Trips": {
			{"Trip_ID", "Client_ID"},
			{"Trip", "Client"},
			{"T1", "C1"},
		},
	})

	src := NewXLSXSource(path)
	grid, err := src.Values(context.Background(), "Trips")
	require.NoError(t, err)
	require.Len(t, grid, 3)
	assert.Equal(t, []string{"T1", "C1"}, grid[2])

	recs, err := NewLoader(src).Load(context.Background(), "Trips")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "C1", recs[0].Get("Client_ID"))
}

func TestXLSXSource_MissingSheet(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Trips": {{"Trip_ID"}}})

	_, err := NewXLSXSource(path).Values(context.Background(), "Payments")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestXLSXSource_MissingFile(t *testing.T) {
	_, err := NewXLSXSource(filepath.Join(t.TempDir(), "nope.xlsx")).Values(context.Background(), "Trips")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTableNotFound)
}

func TestXLSXSource_Tables(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Trips": {{"a"}}})
	names, err := NewXLSXSource(path).Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Trips"}, names)
}
