package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marebio/respirolab/services/api/calc"
	"github.com/marebio/respirolab/services/api/store"
)

// PendingDryWeights returns the rows still waiting for their Day-3 dry
// weight, optionally filtered by project. "Missing" means the stored cell
// fails numeric parsing (empty, blank or legacy junk), while a stored 0.0
// is a legitimate recorded weight and is excluded. Lifecycle state is
// irrelevant here: closed and archived rows stay eligible.
func (c *Controller) PendingDryWeights(ctx context.Context, project string) ([]store.Record, error) {
	records, err := c.records.All(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]store.Record, 0)
	for _, rec := range records {
		if project != "" && rec.Project != project {
			continue
		}
		if _, err := calc.ParseFloat(rec.DryWeight); err != nil {
			pending = append(pending, rec)
		}
	}
	return pending, nil
}

// DryWeightEntry is one operator-entered value keyed by record identity.
// The value arrives raw; blank or non-numeric entries are skipped.
type DryWeightEntry struct {
	ID        string `json:"id"`
	DryWeight string `json:"dry_weight"`
}

// SaveDryWeights writes the parsed values. Rows left blank by the operator
// are silently skipped, as are rows whose identity is gone from the store.
// Returns the number of rows actually updated.
func (c *Controller) SaveDryWeights(ctx context.Context, entries []DryWeightEntry) (int, error) {
	updated := 0
	for _, entry := range entries {
		if strings.TrimSpace(entry.DryWeight) == "" {
			continue
		}
		value, err := calc.ParseFloat(entry.DryWeight)
		if err != nil {
			c.log.Warn("non-numeric dry weight skipped", "id", entry.ID, "raw", entry.DryWeight)
			continue
		}
		err = c.records.UpdateFields(ctx, entry.ID, map[string]string{
			store.ColDryWeight: calc.FormatFloat(value),
		})
		if errors.Is(err, store.ErrRowNotFound) {
			c.log.Warn("row vanished during dry-weight save, skipped", "id", entry.ID)
			continue
		}
		if err != nil {
			return updated, fmt.Errorf("dry-weight save aborted at %s: %w", entry.ID, err)
		}
		updated++
	}
	return updated, nil
}
