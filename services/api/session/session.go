// Package session persists the single active timer per operator in a side
// table, so a running measurement survives disconnects and page reloads.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marebio/respirolab/services/api/store"
)

// TimeLayout is the wire format of the stored start timestamp.
const TimeLayout = "2006-01-02 15:04:05"

// Active is one recovered timer entry.
type Active struct {
	User    string
	Start   time.Time
	Project string
}

// ElapsedMinutes is the wall-clock distance from the stored start. Always
// recomputed from now, never cached.
func (a Active) ElapsedMinutes(now time.Time) float64 {
	return now.Sub(a.Start).Minutes()
}

// Tracker reads and writes the Active_Sessions table. At most one entry per
// user exists at any time.
type Tracker struct {
	backend store.Backend
}

// NewTracker wraps a store backend.
func NewTracker(backend store.Backend) *Tracker {
	return &Tracker{backend: backend}
}

// Save upserts the timer entry for a user. Starting a new timer while one
// is active overwrites the prior entry silently.
func (t *Tracker) Save(ctx context.Context, user string, start time.Time, project string) error {
	table := store.SessionsTable
	startStr := start.Format(TimeLayout)
	row, err := t.backend.FindRow(ctx, table.Name, table.Col("Username"), user)
	switch {
	case err == nil:
		if err := t.backend.UpdateCell(ctx, table.Name, row, table.Col("StartTime"), startStr); err != nil {
			return fmt.Errorf("save session for %s: %w", user, err)
		}
		if err := t.backend.UpdateCell(ctx, table.Name, row, table.Col("Project"), project); err != nil {
			return fmt.Errorf("save session for %s: %w", user, err)
		}
		return nil
	case errors.Is(err, store.ErrRowNotFound):
		if err := t.backend.AppendRows(ctx, table.Name, [][]string{{user, startStr, project}}); err != nil {
			return fmt.Errorf("save session for %s: %w", user, err)
		}
		return nil
	default:
		return fmt.Errorf("save session for %s: %w", user, err)
	}
}

// Load returns the active entry for a user, or nil when there is none. An
// entry whose timestamp no longer parses is treated as absent.
func (t *Tracker) Load(ctx context.Context, user string) (*Active, error) {
	table := store.SessionsTable
	rows, err := t.backend.Rows(ctx, table.Name)
	if err != nil {
		return nil, fmt.Errorf("load session for %s: %w", user, err)
	}
	userCol := table.Col("Username")
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < userCol || row[userCol-1] != user {
			continue
		}
		start, err := time.Parse(TimeLayout, rowCell(row, table.Col("StartTime")))
		if err != nil {
			return nil, nil
		}
		return &Active{
			User:    user,
			Start:   start,
			Project: rowCell(row, table.Col("Project")),
		}, nil
	}
	return nil, nil
}

// Clear deletes the entry for a user. Clearing an absent entry is a no-op.
func (t *Tracker) Clear(ctx context.Context, user string) error {
	table := store.SessionsTable
	row, err := t.backend.FindRow(ctx, table.Name, table.Col("Username"), user)
	if errors.Is(err, store.ErrRowNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("clear session for %s: %w", user, err)
	}
	if err := t.backend.DeleteRow(ctx, table.Name, row); err != nil {
		return fmt.Errorf("clear session for %s: %w", user, err)
	}
	return nil
}

func rowCell(row []string, col int) string {
	if col < 1 || col > len(row) {
		return ""
	}
	return row[col-1]
}
