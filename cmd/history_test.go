package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/trip-export/internal/store"
)

func TestFormatHistory(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("MSK", 3*3600))
	recs := []store.ExportRecord{
		{ID: "0f6c1e2a-aaaa-bbbb", TripID: "T1", Status: store.StatusPublished, Target: "gdoc", Ref: "https://docs.google.com/document/d/abc/edit", CreatedAt: at},
		{ID: "short", TripID: "T2", Status: store.StatusFailed, Target: "gdoc", Ref: "ignored", Error: strings.Repeat("x", 80), CreatedAt: at},
	}

	var buf bytes.Buffer
	formatHistory(&buf, recs)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "0f6c1e2a ")
	assert.NotContains(t, lines[1], "aaaa")
	assert.Contains(t, lines[1], "https://docs.google.com/document/d/abc/edit")
	assert.Contains(t, lines[1], "2026-03-01T06:30:00Z")

	assert.Contains(t, lines[2], "short")
	assert.Contains(t, lines[2], strings.Repeat("x", 57)+"...")
	assert.NotContains(t, lines[2], "ignored")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 5))
	assert.Equal(t, "Ива...", truncate("Иванов Иван", 6))
}
