// Package pipeline holds the shared table and the writers that persist it.
package pipeline

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aluiziolira/go-scrape-channels/models"
	jsoniter "github.com/json-iterator/go"
)

// OutputWriter defines the interface for snapshot output.
type OutputWriter interface {
	Write(snap models.Snapshot) error
	Close() error
	Validate() error
}

// NewWriter builds the writer for format: csv, json or dual.
func NewWriter(format, filename string) (OutputWriter, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(filename)
	case FormatJSON:
		return NewJSONWriter(filename)
	case FormatDual:
		return NewDualWriter(filename, jsonSibling(filename))
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// CSVWriter writes snapshots to CSV.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter creates the output file.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: csv.NewWriter(f),
	}, nil
}

// Write emits the header row followed by one row per record.
func (cw *CSVWriter) Write(snap models.Snapshot) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if len(snap.Columns) == 0 {
		return nil
	}
	if err := cw.writer.Write(snap.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(snap.Columns))
	for _, row := range snap.Rows {
		for i := range record {
			record[i] = row[i].CSV()
		}
		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		cw.file.Close()
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONWriter writes newline-delimited JSON objects, one per row, with keys in
// column order.
type JSONWriter struct {
	file   *os.File
	writer *bufio.Writer
	stream *jsoniter.Stream
	mu     sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		file:   f,
		writer: buffer,
		stream: jsoniter.NewStream(jsoniter.ConfigCompatibleWithStandardLibrary, buffer, 4096),
	}, nil
}

// Write appends rows in JSONL format.
func (jw *JSONWriter) Write(snap models.Snapshot) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, row := range snap.Rows {
		jw.stream.WriteObjectStart()
		for i, name := range snap.Columns {
			if i > 0 {
				jw.stream.WriteMore()
			}
			jw.stream.WriteObjectField(name)
			raw, err := row[i].MarshalJSON()
			if err != nil {
				return fmt.Errorf("encode json value %q: %w", name, err)
			}
			jw.stream.WriteRaw(string(raw))
		}
		jw.stream.WriteObjectEnd()
		jw.stream.WriteRaw("\n")
		if jw.stream.Error != nil {
			return fmt.Errorf("encode json record: %w", jw.stream.Error)
		}
	}

	if err := jw.stream.Flush(); err != nil {
		return fmt.Errorf("flush json stream: %w", err)
	}
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		jw.file.Close()
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
