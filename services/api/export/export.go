// Package export produces the consolidated tabular view of the experiment
// records: the fixed columns plus one extra column per distinct tag ever
// seen, flattened out of the JSON tag blob.
package export

import (
	"context"
	"encoding/csv"
	"io"
	"sort"

	"github.com/marebio/respirolab/services/api/store"
	"github.com/marebio/respirolab/services/api/tags"
)

// TableData is a rendered export: header plus data rows, cell-for-cell as
// stored, with the tag columns appended after the fixed schema.
type TableData struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Exporter flattens records for download.
type Exporter struct {
	backend store.Backend
}

// NewExporter wraps the raw store port; export reads cells verbatim rather
// than through the coercing codec, so legacy oddities survive the trip.
func NewExporter(backend store.Backend) *Exporter {
	return &Exporter{backend: backend}
}

// Table builds the flattened export, optionally filtered to one project.
func (e *Exporter) Table(ctx context.Context, project string) (TableData, error) {
	raw, err := e.backend.Rows(ctx, store.RecordsTable.Name)
	if err != nil {
		return TableData{}, err
	}
	table := store.RecordsTable
	projectCol := table.Col(store.ColProject)
	tagsCol := table.Col(store.ColTagsJSON)

	selected := make([][]string, 0, len(raw))
	tagNames := make(map[string]struct{})
	for i, row := range raw {
		if i == 0 {
			continue
		}
		if project != "" && cellAt(row, projectCol) != project {
			continue
		}
		selected = append(selected, row)
		for _, key := range tags.Keys(cellAt(row, tagsCol)) {
			tagNames[key] = struct{}{}
		}
	}

	extra := make([]string, 0, len(tagNames))
	for name := range tagNames {
		extra = append(extra, name)
	}
	sort.Strings(extra)

	header := append(table.Header(), extra...)
	rows := make([][]string, 0, len(selected))
	for _, row := range selected {
		out := make([]string, len(table.Columns), len(header))
		for c := 1; c <= len(table.Columns); c++ {
			out[c-1] = cellAt(row, c)
		}
		values := tags.Values(cellAt(row, tagsCol))
		for _, name := range extra {
			out = append(out, values[name])
		}
		rows = append(rows, out)
	}
	return TableData{Header: header, Rows: rows}, nil
}

// WriteCSV renders the table as CSV.
func (t TableData) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONRows renders the table as one object per row, keyed by column name.
func (t TableData) JSONRows() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		obj := make(map[string]string, len(t.Header))
		for i, name := range t.Header {
			if i < len(row) {
				obj[name] = row[i]
			} else {
				obj[name] = ""
			}
		}
		out = append(out, obj)
	}
	return out
}

func cellAt(row []string, col int) string {
	if col < 1 || col > len(row) {
		return ""
	}
	return row[col-1]
}
