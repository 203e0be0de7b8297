package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aluiziolira/go-scrape-channels/models"
)

type namedWriter struct {
	name string
	w    OutputWriter
}

// DualWriter fans a snapshot out to a CSV file and its JSON lines sibling.
// The CSV file is the primary output.
type DualWriter struct {
	mu      sync.Mutex
	writers []namedWriter
}

// NewDualWriter opens both files. The CSV file is closed again if the JSON
// file cannot be created.
func NewDualWriter(csvFilename, jsonFilename string) (*DualWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("open csv output: %w", err)
	}
	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Close()
		return nil, fmt.Errorf("open json output: %w", err)
	}

	return &DualWriter{writers: []namedWriter{
		{name: "csv", w: csvWriter},
		{name: "json", w: jsonWriter},
	}}, nil
}

// Write stops at the first failing output.
func (dw *DualWriter) Write(snap models.Snapshot) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	for _, nw := range dw.writers {
		if err := nw.w.Write(snap); err != nil {
			return fmt.Errorf("%s write: %w", nw.name, err)
		}
	}
	return nil
}

// Close closes every output and joins the failures.
func (dw *DualWriter) Close() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.each("close", OutputWriter.Close)
}

// Validate checks every output and joins the failures.
func (dw *DualWriter) Validate() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.each("validate", OutputWriter.Validate)
}

func (dw *DualWriter) each(op string, fn func(OutputWriter) error) error {
	var errs []error
	for _, nw := range dw.writers {
		if err := fn(nw.w); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", nw.name, op, err))
		}
	}
	return errors.Join(errs...)
}

func jsonSibling(csvFilename string) string {
	return strings.TrimSuffix(csvFilename, ".csv") + ".jsonl"
}
