// Package models defines data structures for the scraper.
package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// ValueKind identifies the JSON type a field value arrived as.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindRaw
)

// Value is a single scalar cell. Numbers keep their literal JSON text so that
// exporting them never changes precision. Nested arrays and objects are kept
// as raw JSON.
type Value struct {
	Kind ValueKind
	Text string
}

// StringValue wraps a JSON string.
func StringValue(s string) Value { return Value{Kind: KindString, Text: s} }

// NumberValue wraps the literal text of a JSON number.
func NumberValue(literal string) Value { return Value{Kind: KindNumber, Text: literal} }

// BoolValue wraps a JSON boolean.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Text: strconv.FormatBool(b)} }

// NullValue is the cell used for JSON null and for missing columns.
func NullValue() Value { return Value{Kind: KindNull} }

// RawValue wraps a nested JSON document.
func RawValue(raw []byte) Value { return Value{Kind: KindRaw, Text: string(raw)} }

// IsNull reports whether the value is empty.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// CSV renders the value as a CSV cell.
func (v Value) CSV() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindBool:
		if v.Text == "true" {
			return "True"
		}
		return "False"
	default:
		return v.Text
	}
}

// MarshalJSON encodes the value with its original JSON type.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindNumber, KindBool, KindRaw:
		return []byte(v.Text), nil
	default:
		return json.Marshal(v.Text)
	}
}

// Field is one name/value pair of a record.
type Field struct {
	Name  string
	Value Value
}

// ChannelRecord is one entity returned by the upstream API. Fields keep the
// order in which the API sent them.
type ChannelRecord struct {
	Fields []Field
}

// NewRecord builds a record from fields in the given order.
func NewRecord(fields ...Field) ChannelRecord {
	return ChannelRecord{Fields: fields}
}

// Get returns the value stored under name.
func (r ChannelRecord) Get(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Keys lists field names in record order.
func (r ChannelRecord) Keys() []string {
	keys := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		keys[i] = f.Name
	}
	return keys
}

// Snapshot is a normalized, point-in-time copy of the accumulated table.
// Rows are aligned with Columns and must be treated as read-only.
type Snapshot struct {
	Columns []string
	Rows    [][]Value
}

// Len returns the number of rows.
func (s Snapshot) Len() int { return len(s.Rows) }

// Empty reports whether the snapshot has no rows.
func (s Snapshot) Empty() bool { return len(s.Rows) == 0 }

// Records converts the snapshot back into records with one field per column.
func (s Snapshot) Records() []ChannelRecord {
	out := make([]ChannelRecord, 0, len(s.Rows))
	for _, row := range s.Rows {
		rec := ChannelRecord{Fields: make([]Field, len(row))}
		for i, v := range row {
			rec.Fields[i] = Field{Name: s.Columns[i], Value: v}
		}
		out = append(out, rec)
	}
	return out
}

// PageRequest addresses one page of the upstream dataset.
type PageRequest struct {
	Offset int
	Limit  int
}

// PageRequests returns the offsets 0, pageSize, 2*pageSize, ... strictly below total.
func PageRequests(total, pageSize int) []PageRequest {
	if total <= 0 || pageSize <= 0 {
		return nil
	}
	out := make([]PageRequest, 0, (total+pageSize-1)/pageSize)
	for offset := 0; offset < total; offset += pageSize {
		out = append(out, PageRequest{Offset: offset, Limit: pageSize})
	}
	return out
}

// RunResult holds the overall result of a scrape run.
type RunResult struct {
	RunID         string
	StartTime     time.Time
	EndTime       time.Time
	TotalCount    int
	RequestCount  int
	PageCount     int
	ErrorCount    int
	FailedOffsets []int
	ErrorsByType  map[string]int
	OutputFile    string
}
