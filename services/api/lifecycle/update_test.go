package lifecycle

import (
	"context"
	"math"
	"testing"

	"github.com/marebio/respirolab/services/api/store"
)

func TestUpdateSetTransitionsAndMetrics(t *testing.T) {
	c, records, _ := newTestController(t)
	ctx := context.Background()

	created, err := c.CreateStructure(ctx, "anna", testSetInput(2))
	if err != nil {
		t.Fatalf("create structure: %v", err)
	}

	edits := []RowEdit{
		{ID: created[0].ID, FullWeight: 10.44, Minutes: 10, SMR1: 3.1, SMR2: 1.1, Sex: "F", Note: "ok"},
		{ID: created[1].ID, FullWeight: 10.19, Minutes: 10, SMR1: 2.0, SMR2: 2.5, Sex: "M", Close: true},
	}
	res, err := c.UpdateSet(ctx, "anna", edits)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Updated != 2 || res.Skipped != 0 {
		t.Fatalf("result = %+v, want 2 updated", res)
	}

	all, _ := records.All(ctx)
	byID := map[string]store.Record{}
	for _, rec := range all {
		byID[rec.ID] = rec
	}

	first := byID[created[0].ID]
	if first.State != StateRunning {
		t.Fatalf("first row state = %q, want IN_CORSO", first.State)
	}
	if math.Abs(first.FlowRate-0.05) > 1e-9 {
		t.Fatalf("first row flow rate = %v, want 0.05", first.FlowRate)
	}
	if first.DeltaTorr != 2.0 || first.Note != "ok" {
		t.Fatalf("first row not updated: %+v", first)
	}
	// snapshot fields written at creation survive the partial update
	if first.TagsJSON != `{"Salinity":"5"}` || first.Operator != "anna" {
		t.Fatalf("sibling fields lost: %+v", first)
	}

	second := byID[created[1].ID]
	if second.State != StateClosed {
		t.Fatalf("second row state = %q, want CHIUSO", second.State)
	}
	tare := second.TareWeight
	wantFR := (10.19 - tare) / 10
	if math.Abs(second.FlowRate-wantFR) > 1e-9 {
		t.Fatalf("second row flow rate = %v, want %v", second.FlowRate, wantFR)
	}
}

func TestUpdateSetSkipsMissingRow(t *testing.T) {
	c, records, _ := newTestController(t)
	ctx := context.Background()

	created, err := c.CreateStructure(ctx, "anna", testSetInput(3))
	if err != nil {
		t.Fatalf("create structure: %v", err)
	}

	edits := []RowEdit{
		{ID: created[0].ID, SMR1: 1, SMR2: 2},
		{ID: "ghost-row", SMR1: 9, SMR2: 9},
		{ID: created[2].ID, SMR1: 3, SMR2: 4},
	}
	res, err := c.UpdateSet(ctx, "anna", edits)
	if err != nil {
		t.Fatalf("batch must continue past a missing row: %v", err)
	}
	if res.Updated != 2 || res.Skipped != 1 {
		t.Fatalf("result = %+v, want 2 updated / 1 skipped", res)
	}
	if len(res.SkippedIDs) != 1 || res.SkippedIDs[0] != "ghost-row" {
		t.Fatalf("skipped IDs = %v", res.SkippedIDs)
	}

	all, _ := records.All(ctx)
	for _, rec := range all {
		if rec.ID == created[0].ID && rec.DeltaTorr != 1.0 {
			t.Fatalf("row before the gap not updated: %+v", rec)
		}
		if rec.ID == created[2].ID && rec.DeltaTorr != 1.0 {
			t.Fatalf("row after the gap not updated: %+v", rec)
		}
	}
}

func TestUpdateSetSkipsTerminalRows(t *testing.T) {
	c, records, _ := newTestController(t)
	ctx := context.Background()

	created, err := c.CreateSet(ctx, "anna", testSetInput(1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := c.Archive(ctx, "anna", "Trout2026", ""); err != nil {
		t.Fatalf("archive: %v", err)
	}

	res, err := c.UpdateSet(ctx, "anna", []RowEdit{{ID: created[0].ID, SMR1: 5, SMR2: 5, Note: "late edit"}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Updated != 0 || res.Skipped != 1 {
		t.Fatalf("result = %+v, want terminal row skipped", res)
	}

	all, _ := records.All(ctx)
	if all[0].Note == "late edit" {
		t.Fatal("terminal row must not be edited")
	}
}

func TestArchiveIdempotent(t *testing.T) {
	c, records, _ := newTestController(t)
	ctx := context.Background()

	if _, err := c.CreateSet(ctx, "anna", testSetInput(3)); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := c.Archive(ctx, "anna", "Trout2026", "")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if first != 3 {
		t.Fatalf("archived %d rows, want 3", first)
	}

	again, err := c.Archive(ctx, "anna", "Trout2026", "")
	if err != nil {
		t.Fatalf("second archive must not error: %v", err)
	}
	if again != 3 {
		t.Fatalf("second archive touched %d rows, want 3", again)
	}

	all, _ := records.All(ctx)
	for _, rec := range all {
		if rec.State != StateArchived {
			t.Fatalf("state = %q, want ARCHIVIATO", rec.State)
		}
		if rec.SMR1 != 3.1 || rec.FullWeight != 10.44 {
			t.Fatalf("archive must not touch data fields: %+v", rec)
		}
	}
}

func TestArchiveScopedToOperator(t *testing.T) {
	c, records, _ := newTestController(t)
	ctx := context.Background()

	if _, err := c.CreateSet(ctx, "anna", testSetInput(1)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := c.CreateSet(ctx, "bruno", testSetInput(1)); err != nil {
		t.Fatalf("create as bruno: %v", err)
	}

	n, err := c.Archive(ctx, "anna", "Trout2026", "")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if n != 1 {
		t.Fatalf("archived %d rows, want 1", n)
	}

	all, _ := records.All(ctx)
	for _, rec := range all {
		if rec.Operator == "bruno" && rec.State == StateArchived {
			t.Fatal("another operator's rows were archived")
		}
	}
}

func TestNextOnSave(t *testing.T) {
	cases := []struct {
		current string
		close   bool
		want    string
	}{
		{StateSetup, false, StateRunning},
		{StateOpen, false, StateOpen},
		{StateRunning, false, StateRunning},
		{StateSetup, true, StateClosed},
		{StateOpen, true, StateClosed},
	}
	for _, tc := range cases {
		if got := nextOnSave(tc.current, tc.close); got != tc.want {
			t.Fatalf("nextOnSave(%q, %v) = %q, want %q", tc.current, tc.close, got, tc.want)
		}
	}
}
