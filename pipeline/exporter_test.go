package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExporterPaths(t *testing.T) {
	exp := NewExporter(NewStore(), "out", FormatCSV)
	require.Equal(t, filepath.Join("out", "twitch_channel_data.csv"), exp.DefaultPath())

	at := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)
	require.Equal(t, filepath.Join("out", "twitch_data_20240309_070501.csv"), exp.TimestampedPath(at))

	for _, format := range []string{FormatJSON, FormatDual, ""} {
		other := NewExporter(NewStore(), "", format)
		require.Equal(t, "twitch_channel_data.csv", other.DefaultPath(), "format %q", format)
	}
}

func TestExporterJSONFormatKeepsCSVPrimary(t *testing.T) {
	store := NewStore()
	store.Replace(channels(3))
	dir := t.TempDir()
	exp := NewExporter(store, dir, FormatJSON)

	res, err := exp.WriteDefault()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "twitch_channel_data.csv"), res.Path)
	require.True(t, strings.HasPrefix(string(res.Data), "displayname,"), "csv header expected, got %q", res.Data)

	sibling, err := os.ReadFile(filepath.Join(dir, "twitch_channel_data.jsonl"))
	require.NoError(t, err)
	require.Equal(t, 3, strings.Count(string(sibling), "\n"))

	now, err := exp.ExportNow()
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(now.Path, ".csv"))
}

func TestExporterCSVRoundTrip(t *testing.T) {
	store := NewStore()
	store.Replace(channels(7))
	want := store.Read()

	exp := NewExporter(store, t.TempDir(), FormatCSV)
	res, err := exp.WriteDefault()
	require.NoError(t, err)
	require.Equal(t, 7, res.Rows)

	onDisk, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	require.Equal(t, onDisk, res.Data)

	rows, err := csv.NewReader(bytes.NewReader(res.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, want.Len()+1)
	require.Equal(t, want.Columns, rows[0])
	for i, row := range want.Rows {
		require.Len(t, rows[i+1], len(want.Columns))
		for j, cell := range row {
			require.Equal(t, cell.CSV(), rows[i+1][j])
		}
	}
}

func TestExporterExportNow(t *testing.T) {
	store := NewStore()
	exp := NewExporter(store, t.TempDir(), FormatCSV)
	exp.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	res, err := exp.ExportNow()
	require.NoError(t, err)
	require.Nil(t, res, "empty table must not be exported")
	_, statErr := os.Stat(exp.TimestampedPath(exp.now()))
	require.True(t, os.IsNotExist(statErr))

	store.Replace(channels(2))
	res, err = exp.ExportNow()
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, "twitch_data_20250102_030405.csv", filepath.Base(res.Path))
	require.Equal(t, 2, res.Rows)
}

func TestExporterWriteDefaultEmptyTable(t *testing.T) {
	exp := NewExporter(NewStore(), t.TempDir(), FormatCSV)
	res, err := exp.WriteDefault()
	require.NoError(t, err)
	require.Equal(t, 0, res.Rows)
	require.Empty(t, res.Data)
}

func TestExporterReportsExportError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	store := NewStore()
	store.Replace(channels(1))
	exp := NewExporter(store, filepath.Join(blocker, "nested"), FormatCSV)

	_, err := exp.WriteDefault()
	var exportErr *ExportError
	require.True(t, errors.As(err, &exportErr), "got %v", err)
	require.Equal(t, 1, store.Count())
}
