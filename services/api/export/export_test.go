package export

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/marebio/respirolab/services/api/logger"
	"github.com/marebio/respirolab/services/api/store"
)

func seedExporter(t *testing.T) *Exporter {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()
	if err := store.EnsureHeader(ctx, mem, store.RecordsTable); err != nil {
		t.Fatalf("seed header: %v", err)
	}
	records := store.NewRecords(mem, logger.Nop())
	seed := []store.Record{
		{ID: "1", Project: "A", AnimalID: "T-01", TagsJSON: `{"Salinity":"5","pH":"7.2"}`, State: "CHIUSO"},
		{ID: "2", Project: "A", AnimalID: "T-02", TagsJSON: `{oops`, State: "CHIUSO"},
		{ID: "3", Project: "B", AnimalID: "X-01", TagsJSON: `{"Oxygen":"8"}`, State: "APERTO"},
	}
	if err := records.Append(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewExporter(mem)
}

func TestTableFlattensTags(t *testing.T) {
	exporter := seedExporter(t)
	table, err := exporter.Table(context.Background(), "")
	if err != nil {
		t.Fatalf("table: %v", err)
	}

	fixed := len(store.RecordsTable.Columns)
	if len(table.Header) != fixed+3 {
		t.Fatalf("header has %d columns, want %d", len(table.Header), fixed+3)
	}
	wantExtra := []string{"Oxygen", "Salinity", "pH"}
	for i, name := range wantExtra {
		if table.Header[fixed+i] != name {
			t.Fatalf("extra columns = %v, want %v", table.Header[fixed:], wantExtra)
		}
	}
	if len(table.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(table.Rows))
	}

	// row 1 carries its tag values, empty cells elsewhere
	first := table.Rows[0]
	if first[fixed] != "" || first[fixed+1] != "5" || first[fixed+2] != "7.2" {
		t.Fatalf("tag cells of row 1 = %v", first[fixed:])
	}
	// malformed blob flattens to all-empty tag cells
	second := table.Rows[1]
	if second[fixed] != "" || second[fixed+1] != "" || second[fixed+2] != "" {
		t.Fatalf("tag cells of row 2 = %v, want empty", second[fixed:])
	}
}

func TestTableProjectFilter(t *testing.T) {
	exporter := seedExporter(t)
	table, err := exporter.Table(context.Background(), "B")
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(table.Rows))
	}
	fixed := len(store.RecordsTable.Columns)
	if len(table.Header) != fixed+1 || table.Header[fixed] != "Oxygen" {
		t.Fatalf("header = %v, want fixed columns + Oxygen", table.Header[fixed:])
	}
}

func TestWriteCSV(t *testing.T) {
	exporter := seedExporter(t)
	table, err := exporter.Table(context.Background(), "B")
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	var buf bytes.Buffer
	if err := table.WriteCSV(&buf); err != nil {
		t.Fatalf("csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv has %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "ID_Univoco,Project_Name") {
		t.Fatalf("header line = %q", lines[0])
	}
	if !strings.HasSuffix(lines[0], ",Oxygen") {
		t.Fatalf("header line should end with the tag column: %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",8") {
		t.Fatalf("data line should end with the tag value: %q", lines[1])
	}
}

func TestJSONRows(t *testing.T) {
	exporter := seedExporter(t)
	table, err := exporter.Table(context.Background(), "")
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	rows := table.JSONRows()
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0]["ID_Univoco"] != "1" || rows[0]["Salinity"] != "5" {
		t.Fatalf("row 1 = %v", rows[0])
	}
	if rows[2]["Oxygen"] != "8" || rows[2]["Salinity"] != "" {
		t.Fatalf("row 3 = %v", rows[2])
	}
}
