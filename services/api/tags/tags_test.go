package tags

import (
	"context"
	"reflect"
	"testing"

	"github.com/marebio/respirolab/services/api/logger"
	"github.com/marebio/respirolab/services/api/store"
)

func seedRegistry(t *testing.T, blobs map[string]string) *Registry {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()
	if err := store.EnsureHeader(ctx, mem, store.RecordsTable); err != nil {
		t.Fatalf("seed header: %v", err)
	}
	records := store.NewRecords(mem, logger.Nop())
	i := 0
	for project, blob := range blobs {
		i++
		rec := store.Record{ID: string(rune('a' + i)), Project: project, TagsJSON: blob}
		if err := records.Append(ctx, []store.Record{rec}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return NewRegistry(records)
}

func TestScanIgnoresMalformedBlobs(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	if err := store.EnsureHeader(ctx, mem, store.RecordsTable); err != nil {
		t.Fatalf("seed header: %v", err)
	}
	records := store.NewRecords(mem, logger.Nop())
	seed := []store.Record{
		{ID: "1", Project: "P", TagsJSON: `{}`},
		{ID: "2", Project: "P", TagsJSON: `null`},
		{ID: "3", Project: "P", TagsJSON: `{not json`},
		{ID: "4", Project: "P", TagsJSON: `{"Salinity":"5"}`},
	}
	if err := records.Append(ctx, seed); err != nil {
		t.Fatalf("append: %v", err)
	}
	registry := NewRegistry(records)

	got, err := registry.ForProject(ctx, "P")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Salinity"}) {
		t.Fatalf("got %v, want [Salinity]", got)
	}
}

func TestAllVersusProjectScope(t *testing.T) {
	registry := seedRegistry(t, map[string]string{
		"A": `{"Salinity":"5","pH":"7.2"}`,
		"B": `{"Oxygen":"8"}`,
	})
	ctx := context.Background()

	all, err := registry.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if !reflect.DeepEqual(all, []string{"Oxygen", "Salinity", "pH"}) {
		t.Fatalf("all = %v", all)
	}

	scoped, err := registry.ForProject(ctx, "B")
	if err != nil {
		t.Fatalf("scoped: %v", err)
	}
	if !reflect.DeepEqual(scoped, []string{"Oxygen"}) {
		t.Fatalf("scoped = %v", scoped)
	}
}

func TestKeysAndValues(t *testing.T) {
	if keys := Keys(""); keys != nil {
		t.Fatalf("empty blob should yield nil, got %v", keys)
	}
	if keys := Keys(`[1,2]`); keys != nil {
		t.Fatalf("non-object blob should yield nil, got %v", keys)
	}
	values := Values(`{"Salinity":"5"}`)
	if values["Salinity"] != "5" {
		t.Fatalf("values = %v", values)
	}
	if Values(`oops`) != nil {
		t.Fatal("malformed blob should yield nil values")
	}
}
