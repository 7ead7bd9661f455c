package sheet

import (
	"context"
	"sort"
)

// MemorySource serves tables held in memory.
type MemorySource map[string][][]string

// Values returns a copy of the named grid.
func (m MemorySource) Values(_ context.Context, table string) ([][]string, error) {
	grid, ok := m[table]
	if !ok {
		return nil, ErrTableNotFound
	}
	out := make([][]string, len(grid))
	for i, row := range grid {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

// Tables lists the table names in sorted order.
func (m MemorySource) Tables(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}
