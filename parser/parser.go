// Package parser turns upstream API payloads into normalized tables.
package parser

import (
	"github.com/aluiziolira/go-scrape-channels/models"
)

const (
	// ColumnDisplayName is always placed first when present.
	ColumnDisplayName = "displayname"
	// ColumnTwitchURL is always placed second when present.
	ColumnTwitchURL = "twitchurl"
	// ColumnLogo is never exported.
	ColumnLogo = "logo"
)

// Columns returns the canonical column order for records: the union of field
// names in discovery order, without logo, with displayname and twitchurl moved
// to the front.
func Columns(records []models.ChannelRecord) []string {
	seen := make(map[string]struct{})
	discovered := make([]string, 0)
	for _, rec := range records {
		for _, f := range rec.Fields {
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			discovered = append(discovered, f.Name)
		}
	}

	cols := make([]string, 0, len(discovered))
	for _, lead := range []string{ColumnDisplayName, ColumnTwitchURL} {
		if _, ok := seen[lead]; ok {
			cols = append(cols, lead)
		}
	}
	for _, name := range discovered {
		switch name {
		case ColumnLogo, ColumnDisplayName, ColumnTwitchURL:
			continue
		}
		cols = append(cols, name)
	}
	return cols
}

// Normalize builds a snapshot from records. Cells for columns a record lacks
// are null. The result shares no memory with the input.
func Normalize(records []models.ChannelRecord) models.Snapshot {
	cols := Columns(records)
	index := make(map[string]int, len(cols))
	for i, name := range cols {
		index[name] = i
	}

	rows := make([][]models.Value, len(records))
	for r, rec := range records {
		row := make([]models.Value, len(cols))
		for _, f := range rec.Fields {
			i, ok := index[f.Name]
			if !ok {
				continue
			}
			row[i] = f.Value
		}
		rows[r] = row
	}

	return models.Snapshot{Columns: cols, Rows: rows}
}
