package store

import (
	"context"
	"errors"
	"testing"

	"github.com/marebio/respirolab/services/api/logger"
)

func newTestRecords(t *testing.T) (*Records, *Memory) {
	t.Helper()
	mem := NewMemory()
	ctx := context.Background()
	for _, table := range []Table{RecordsTable, UsersTable, SessionsTable} {
		if err := EnsureHeader(ctx, mem, table); err != nil {
			t.Fatalf("seed header: %v", err)
		}
	}
	return NewRecords(mem, logger.Nop()), mem
}

func TestSchemaPositions(t *testing.T) {
	if len(RecordsTable.Columns) != 27 {
		t.Fatalf("records table has %d columns, want 27", len(RecordsTable.Columns))
	}
	// spot-check the load-bearing positions of the legacy sheet
	checks := map[string]int{
		ColID:        1,
		ColTagsJSON:  7,
		ColFlowRate:  17,
		ColSMR1:      18,
		ColSMR2:      19,
		ColNote:      25,
		ColDryWeight: 26,
		ColState:     27,
	}
	for name, want := range checks {
		if got := RecordsTable.Col(name); got != want {
			t.Fatalf("Col(%s) = %d, want %d", name, got, want)
		}
	}
	if RecordsTable.Col("Nope") != 0 {
		t.Fatal("unknown column should resolve to 0")
	}
}

func TestAppendAndAll(t *testing.T) {
	records, _ := newTestRecords(t)
	ctx := context.Background()

	rec := Record{
		ID:          "id-1",
		Project:     "Trout2026",
		Date:        "2026-08-31",
		Operator:    "anna",
		Temperature: 20.0,
		Pressure:    1013.0,
		TagsJSON:    `{"Salinity":"5"}`,
		AnimalID:    "T-01",
		Syringe:     "1",
		FalconSet:   "Set Normal",
		FalconID:    "F_1",
		TareWeight:  9.94,
		FullWeight:  10.44,
		Minutes:     10,
		FlowRate:    0.05,
		SMR1:        3.1,
		SMR2:        1.1,
		DeltaTorr:   2.0,
		Watts:       0.3456,
		Sex:         "F",
		Note:        "calm",
		DryWeight:   "",
		State:       "APERTO",
	}
	if err := records.Append(ctx, []Record{rec}); err != nil {
		t.Fatalf("append: %v", err)
	}

	all, err := records.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d records, want 1", len(all))
	}
	got := all[0]
	if got.ID != rec.ID || got.Project != rec.Project || got.Operator != rec.Operator {
		t.Fatalf("identity fields mangled: %+v", got)
	}
	if got.FlowRate != 0.05 || got.SMR1 != 3.1 || got.Watts != 0.3456 {
		t.Fatalf("numeric fields mangled: %+v", got)
	}
	if got.DryWeight != "" {
		t.Fatalf("empty dry weight should stay raw, got %q", got.DryWeight)
	}
}

func TestAllCoercesBadNumerics(t *testing.T) {
	records, mem := newTestRecords(t)
	ctx := context.Background()

	row := make([]string, len(RecordsTable.Columns))
	row[RecordsTable.Col(ColID)-1] = "id-legacy"
	row[RecordsTable.Col(ColTemperature)-1] = "n/a"
	row[RecordsTable.Col(ColSMR1)-1] = "2,5"
	if err := mem.AppendRows(ctx, RecordsTable.Name, [][]string{row}); err != nil {
		t.Fatalf("append raw: %v", err)
	}

	all, err := records.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if all[0].Temperature != 0 {
		t.Fatalf("non-numeric temperature should coerce to 0, got %v", all[0].Temperature)
	}
	if all[0].SMR1 != 2.5 {
		t.Fatalf("comma decimal should parse, got %v", all[0].SMR1)
	}
}

func TestUpdateFields(t *testing.T) {
	records, mem := newTestRecords(t)
	ctx := context.Background()

	if err := records.Append(ctx, []Record{{ID: "id-1", Project: "P", State: "SETUP"}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	err := records.UpdateFields(ctx, "id-1", map[string]string{
		ColSMR1:  "3.5",
		ColState: "IN_CORSO",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	rows, _ := mem.Rows(ctx, RecordsTable.Name)
	data := rows[1]
	if data[RecordsTable.Col(ColSMR1)-1] != "3.5" {
		t.Fatalf("SMR_1 cell = %q, want 3.5", data[RecordsTable.Col(ColSMR1)-1])
	}
	if data[RecordsTable.Col(ColState)-1] != "IN_CORSO" {
		t.Fatalf("Stato cell = %q, want IN_CORSO", data[RecordsTable.Col(ColState)-1])
	}
	// untouched sibling field survives
	if data[RecordsTable.Col(ColProject)-1] != "P" {
		t.Fatalf("Project_Name cell clobbered: %q", data[RecordsTable.Col(ColProject)-1])
	}
}

func TestUpdateFieldsRejectsBadNames(t *testing.T) {
	records, _ := newTestRecords(t)
	ctx := context.Background()

	if err := records.UpdateFields(ctx, "x", map[string]string{ColID: "other"}); err == nil {
		t.Fatal("identity field must be immutable")
	}
	if err := records.UpdateFields(ctx, "x", map[string]string{"Nope": "1"}); err == nil {
		t.Fatal("unknown field must be rejected")
	}
}

func TestUpdateFieldsMissingRow(t *testing.T) {
	records, _ := newTestRecords(t)
	err := records.UpdateFields(context.Background(), "ghost", map[string]string{ColNote: "x"})
	if !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("got %v, want ErrRowNotFound", err)
	}
}

func TestProjects(t *testing.T) {
	records, _ := newTestRecords(t)
	ctx := context.Background()

	seed := []Record{
		{ID: "1", Project: "Zeta"},
		{ID: "2", Project: "Alpha"},
		{ID: "3", Project: "Zeta"},
		{ID: "4", Project: ""},
	}
	if err := records.Append(ctx, seed); err != nil {
		t.Fatalf("append: %v", err)
	}
	projects, err := records.Projects(ctx)
	if err != nil {
		t.Fatalf("projects: %v", err)
	}
	if len(projects) != 2 || projects[0] != "Alpha" || projects[1] != "Zeta" {
		t.Fatalf("got %v, want [Alpha Zeta]", projects)
	}
}

func TestMemoryBackendSemantics(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	rows := [][]string{{"h1", "h2"}, {"a", "1"}, {"b", "2"}, {"c", "3"}}
	if err := mem.AppendRows(ctx, "T", rows); err != nil {
		t.Fatalf("append: %v", err)
	}

	row, err := mem.FindRow(ctx, "T", 1, "b")
	if err != nil || row != 3 {
		t.Fatalf("FindRow = (%d, %v), want (3, nil)", row, err)
	}
	if _, err := mem.FindRow(ctx, "T", 1, "nope"); !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("got %v, want ErrRowNotFound", err)
	}

	if err := mem.DeleteRow(ctx, "T", 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	row, err = mem.FindRow(ctx, "T", 1, "b")
	if err != nil || row != 2 {
		t.Fatalf("rows should shift up after delete, got (%d, %v)", row, err)
	}

	if err := mem.UpdateCell(ctx, "T", 2, 2, "42"); err != nil {
		t.Fatalf("update cell: %v", err)
	}
	got, _ := mem.Rows(ctx, "T")
	if got[1][1] != "42" {
		t.Fatalf("cell = %q, want 42", got[1][1])
	}
}

func TestColumnLetter(t *testing.T) {
	cases := map[int]string{1: "A", 2: "B", 26: "Z", 27: "AA", 28: "AB", 52: "AZ", 53: "BA"}
	for col, want := range cases {
		if got := columnLetter(col); got != want {
			t.Fatalf("columnLetter(%d) = %q, want %q", col, got, want)
		}
	}
}
