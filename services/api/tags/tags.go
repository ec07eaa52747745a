// Package tags derives the set of operator-defined extra parameter names
// from the JSON column of the experiment records. The set is a projection,
// recomputed on every call; at lab scale a full rescan is cheap.
package tags

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/marebio/respirolab/services/api/store"
)

// Registry scans the Custom_Tags_JSON column.
type Registry struct {
	records *store.Records
}

// NewRegistry wraps the typed record layer.
func NewRegistry(records *store.Records) *Registry {
	return &Registry{records: records}
}

// All returns every tag name ever used, sorted. Malformed JSON blobs are
// skipped silently.
func (r *Registry) All(ctx context.Context) ([]string, error) {
	return r.scan(ctx, "")
}

// ForProject restricts the scan to one project's rows.
func (r *Registry) ForProject(ctx context.Context, project string) ([]string, error) {
	return r.scan(ctx, project)
}

func (r *Registry) scan(ctx context.Context, project string) ([]string, error) {
	records, err := r.records.All(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, rec := range records {
		if project != "" && rec.Project != project {
			continue
		}
		for _, key := range Keys(rec.TagsJSON) {
			seen[key] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

// Keys extracts the tag names of one serialized blob. Anything that does
// not parse as a JSON object yields no keys.
func Keys(blob string) []string {
	if blob == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(blob), &m); err != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// Values parses one blob into its tag map; malformed blobs yield nil.
func Values(blob string) map[string]string {
	if blob == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(blob), &m); err != nil {
		return nil
	}
	return m
}
