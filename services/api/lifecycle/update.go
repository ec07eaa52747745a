package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/marebio/respirolab/services/api/calc"
	"github.com/marebio/respirolab/services/api/store"
)

// OpenSet returns the operator's non-terminal rows of today, optionally
// restricted to one project, in sheet order.
func (c *Controller) OpenSet(ctx context.Context, user, project string) ([]store.Record, error) {
	records, err := c.records.All(ctx)
	if err != nil {
		return nil, err
	}
	today := c.now().Format(DateLayout)
	open := make([]store.Record, 0)
	for _, rec := range records {
		if rec.Operator != user || rec.Date != today || IsTerminal(rec.State) {
			continue
		}
		if project != "" && rec.Project != project {
			continue
		}
		open = append(open, rec)
	}
	return open, nil
}

// RowEdit carries one row's edited inputs for a batch update. The identity
// selects the row; everything else is the operator's current form values.
type RowEdit struct {
	ID         string  `json:"id"`
	FullWeight float64 `json:"full_weight"`
	Minutes    float64 `json:"minutes"`
	SMR1       float64 `json:"smr_1"`
	SMR2       float64 `json:"smr_2"`
	Sex        string  `json:"sex"`
	BodyLength float64 `json:"body_length"`
	HeadLength float64 `json:"head_length"`
	Note       string  `json:"note"`
	Close      bool    `json:"close"`
}

// UpdateResult summarizes a batch update. Skipped rows are reported, not
// raised: the batch is at-least-effort, never atomic.
type UpdateResult struct {
	Updated    int      `json:"updated"`
	Skipped    int      `json:"skipped"`
	SkippedIDs []string `json:"skipped_ids,omitempty"`
}

// UpdateSet applies a batch of row edits to one set. Per row it recomputes
// flow rate, delta and power from the edited inputs, writes each changed
// field individually by identity, and takes the save transition
// (SETUP -> IN_CORSO, explicit close -> CHIUSO). A row whose identity is
// no longer in the store is skipped and the batch continues; rows already
// in a terminal state are skipped too. Any other store failure aborts the
// remainder of the batch, leaving earlier rows written.
func (c *Controller) UpdateSet(ctx context.Context, user string, edits []RowEdit) (UpdateResult, error) {
	records, err := c.records.All(ctx)
	if err != nil {
		return UpdateResult{}, err
	}
	byID := make(map[string]store.Record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	var res UpdateResult
	for _, edit := range edits {
		current, ok := byID[edit.ID]
		if !ok || IsTerminal(current.State) {
			res.Skipped++
			res.SkippedIDs = append(res.SkippedIDs, edit.ID)
			if ok {
				c.log.Warn("row in terminal state skipped", "id", edit.ID, "state", current.State)
			} else {
				c.log.Warn("row missing from snapshot skipped", "id", edit.ID)
			}
			continue
		}

		fields := c.diffEdit(current, edit)
		if len(fields) == 0 {
			res.Updated++
			continue
		}
		err := c.records.UpdateFields(ctx, edit.ID, fields)
		if errors.Is(err, store.ErrRowNotFound) {
			res.Skipped++
			res.SkippedIDs = append(res.SkippedIDs, edit.ID)
			c.log.Warn("row vanished during update, skipped", "id", edit.ID)
			continue
		}
		if err != nil {
			return res, fmt.Errorf("batch aborted at %s: %w", edit.ID, err)
		}
		res.Updated++
	}
	c.log.Info("batch update done", "operator", user, "updated", res.Updated, "skipped", res.Skipped)
	return res, nil
}

// diffEdit recomputes the derived metrics and returns only the fields whose
// stored value would change. Tare, pressure and temperature come from the
// stored row; they are fixed for the set.
func (c *Controller) diffEdit(current store.Record, edit RowEdit) map[string]string {
	flowRate := calc.FlowRate(edit.FullWeight, current.TareWeight, edit.Minutes)
	delta := calc.Delta(edit.SMR1, edit.SMR2)
	watts := calc.Power(delta, flowRate, current.Pressure, current.Temperature)

	fields := make(map[string]string)
	putf := func(name string, stored, edited float64) {
		if stored != edited {
			fields[name] = calc.FormatFloat(edited)
		}
	}
	putf(store.ColFullWeight, current.FullWeight, edit.FullWeight)
	putf(store.ColMinutes, current.Minutes, edit.Minutes)
	putf(store.ColFlowRate, current.FlowRate, flowRate)
	putf(store.ColSMR1, current.SMR1, edit.SMR1)
	putf(store.ColSMR2, current.SMR2, edit.SMR2)
	putf(store.ColDeltaTorr, current.DeltaTorr, delta)
	putf(store.ColWatts, current.Watts, watts)
	putf(store.ColBodyLength, current.BodyLength, edit.BodyLength)
	putf(store.ColHeadLength, current.HeadLength, edit.HeadLength)
	if sex := normalizeSex(edit.Sex); sex != current.Sex {
		fields[store.ColSex] = sex
	}
	if edit.Note != current.Note {
		fields[store.ColNote] = edit.Note
	}
	if next := nextOnSave(current.State, edit.Close); next != current.State {
		fields[store.ColState] = next
	}
	return fields
}

// Archive moves every row of the operator's set to ARCHIVIATO without
// touching data fields. Re-archiving is a no-op in effect: the state is
// simply re-written. Returns the number of rows addressed.
func (c *Controller) Archive(ctx context.Context, user, project, date string) (int, error) {
	if project == "" {
		return 0, fmt.Errorf("%w: project name is required", ErrValidation)
	}
	records, err := c.records.All(ctx)
	if err != nil {
		return 0, err
	}
	archived := 0
	for _, rec := range records {
		if rec.Project != project || rec.Operator != user {
			continue
		}
		if date != "" && rec.Date != date {
			continue
		}
		err := c.records.UpdateFields(ctx, rec.ID, map[string]string{store.ColState: StateArchived})
		if errors.Is(err, store.ErrRowNotFound) {
			c.log.Warn("row vanished during archive, skipped", "id", rec.ID)
			continue
		}
		if err != nil {
			return archived, fmt.Errorf("archive aborted at %s: %w", rec.ID, err)
		}
		archived++
	}
	c.log.Info("set archived", "project", project, "operator", user, "rows", archived)
	return archived, nil
}
