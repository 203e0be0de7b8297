package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-channels/logging"
	"github.com/aluiziolira/go-scrape-channels/models"
	"github.com/rs/zerolog"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatDual = "dual"
)

const (
	// DefaultBaseName is the end-of-run snapshot file, without extension.
	DefaultBaseName = "twitch_channel_data"
	// TimestampedPrefix prefixes on-demand exports.
	TimestampedPrefix = "twitch_data_"
	// TimestampLayout renders as YYYYMMDD_HHMMSS.
	TimestampLayout = "20060102_150405"
)

// ExportError reports a failed file write. It never affects the store.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// ExportResult describes a written snapshot. Data holds the primary file.
type ExportResult struct {
	Path string
	Rows int
	Data []byte
}

// Exporter persists store snapshots. It copies the table via Store.Read and
// performs file I/O without holding the store lock.
type Exporter struct {
	store  *Store
	dir    string
	format string
	now    func() time.Time
	log    zerolog.Logger

	mu sync.Mutex // serializes file writes
}

// NewExporter writes into dir using format. Every export has a CSV primary
// file; dual also writes a JSON lines sibling, and json is treated as dual.
func NewExporter(store *Store, dir, format string) *Exporter {
	switch format {
	case FormatDual, FormatJSON:
		format = FormatDual
	default:
		format = FormatCSV
	}
	return &Exporter{
		store:  store,
		dir:    dir,
		format: format,
		now:    time.Now,
		log:    logging.NewLogger("exporter"),
	}
}

// DefaultPath is where WriteDefault writes.
func (e *Exporter) DefaultPath() string {
	return e.path(DefaultBaseName)
}

// TimestampedPath is where an export taken at t is written.
func (e *Exporter) TimestampedPath(t time.Time) string {
	return e.path(TimestampedPrefix + t.Format(TimestampLayout))
}

// WriteDefault writes the current table to the fixed end-of-run file, even
// when the table is empty.
func (e *Exporter) WriteDefault() (*ExportResult, error) {
	return e.Write(e.store.Read(), e.DefaultPath())
}

// WriteTimestamped writes the current table to a file named after t.
func (e *Exporter) WriteTimestamped(t time.Time) (*ExportResult, error) {
	return e.Write(e.store.Read(), e.TimestampedPath(t))
}

// ExportNow writes a timestamped export if the table has rows. It returns
// nil and no error when the table is empty.
func (e *Exporter) ExportNow() (*ExportResult, error) {
	snap := e.store.Read()
	if snap.Empty() {
		return nil, nil
	}
	return e.Write(snap, e.TimestampedPath(e.now()))
}

// Write serializes snap to path in the configured format and returns the
// bytes of the primary file.
func (e *Exporter) Write(snap models.Snapshot, path string) (*ExportResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	writer, err := NewWriter(e.format, path)
	if err != nil {
		return nil, &ExportError{Path: path, Err: err}
	}
	if err := writer.Write(snap); err != nil {
		writer.Close()
		return nil, &ExportError{Path: path, Err: err}
	}
	if !snap.Empty() {
		if err := writer.Validate(); err != nil {
			writer.Close()
			return nil, &ExportError{Path: path, Err: err}
		}
	}
	if err := writer.Close(); err != nil {
		return nil, &ExportError{Path: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ExportError{Path: path, Err: fmt.Errorf("read back: %w", err)}
	}

	e.log.Info().
		Str("path", path).
		Int("rows", snap.Len()).
		Int("columns", len(snap.Columns)).
		Dur("duration", time.Since(start)).
		Msg("snapshot exported")

	return &ExportResult{Path: path, Rows: snap.Len(), Data: data}, nil
}

func (e *Exporter) path(base string) string {
	return filepath.Join(e.dir, base+".csv")
}
