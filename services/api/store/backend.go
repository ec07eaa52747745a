package store

import (
	"context"
	"errors"
)

// ErrRowNotFound is returned by FindRow when no row carries the wanted value.
var ErrRowNotFound = errors.New("store: row not found")

// Backend is the raw tabular store port: a grid of string cells per named
// table, header in row 1, addressed with 1-based row/column positions. It
// never validates business rules; that is the caller's responsibility.
type Backend interface {
	// Rows returns every row of the table, header included.
	Rows(ctx context.Context, table string) ([][]string, error)
	// FindRow returns the 1-based index of the first row whose cell in the
	// given 1-based column equals value, or ErrRowNotFound.
	FindRow(ctx context.Context, table string, col int, value string) (int, error)
	// UpdateCell overwrites a single cell.
	UpdateCell(ctx context.Context, table string, row, col int, value string) error
	// AppendRows adds rows after the last non-empty row.
	AppendRows(ctx context.Context, table string, rows [][]string) error
	// DeleteRow removes a row, shifting later rows up.
	DeleteRow(ctx context.Context, table string, row int) error
}

// EnsureHeader appends the header row of a table when it is still empty.
// Remote spreadsheets usually ship with headers already in place; the
// postgres and memory backends start blank.
func EnsureHeader(ctx context.Context, b Backend, t Table) error {
	rows, err := b.Rows(ctx, t.Name)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}
	return b.AppendRows(ctx, t.Name, [][]string{t.Header()})
}
