package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores the same cell grid in a single table, for self-hosted
// deployments without a spreadsheet. Rows keep their 1-based index so the
// port semantics match the sheets backend exactly.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a backend backed by a pgx pool.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the pool resources.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

const initSQL = `
CREATE SCHEMA IF NOT EXISTS respirolab;
CREATE TABLE IF NOT EXISTS respirolab.sheet_rows (
    tab     text NOT NULL,
    row_idx integer NOT NULL,
    cells   text[] NOT NULL,
    PRIMARY KEY (tab, row_idx)
)
`

// Init creates the grid table when missing.
func (p *Postgres) Init(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, initSQL); err != nil {
		return fmt.Errorf("init sheet_rows: %w", err)
	}
	return nil
}

const rowsSQL = `
    SELECT cells
    FROM respirolab.sheet_rows
    WHERE tab = $1
    ORDER BY row_idx
`

// Rows returns every row of the table, header included.
func (p *Postgres) Rows(ctx context.Context, table string) ([][]string, error) {
	rows, err := p.pool.Query(ctx, rowsSQL, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([][]string, 0)
	for rows.Next() {
		var cells []string
		if err := rows.Scan(&cells); err != nil {
			return nil, err
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}

const findRowSQL = `
    SELECT row_idx
    FROM respirolab.sheet_rows
    WHERE tab = $1 AND cells[$2] = $3
    ORDER BY row_idx
    LIMIT 1
`

// FindRow returns the first row whose cell in the given column matches.
func (p *Postgres) FindRow(ctx context.Context, table string, col int, value string) (int, error) {
	var row int
	err := p.pool.QueryRow(ctx, findRowSQL, table, col, value).Scan(&row)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrRowNotFound
	}
	if err != nil {
		return 0, err
	}
	return row, nil
}

const updateCellSQL = `
    UPDATE respirolab.sheet_rows
    SET cells[$3] = $4
    WHERE tab = $1 AND row_idx = $2
`

// UpdateCell overwrites a single cell.
func (p *Postgres) UpdateCell(ctx context.Context, table string, row, col int, value string) error {
	tag, err := p.pool.Exec(ctx, updateCellSQL, table, row, col, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRowNotFound
	}
	return nil
}

const appendRowSQL = `
    INSERT INTO respirolab.sheet_rows (tab, row_idx, cells)
    VALUES ($1,
            COALESCE((SELECT MAX(row_idx) FROM respirolab.sheet_rows WHERE tab = $1), 0) + 1,
            $2)
`

// AppendRows adds rows after the last row, preserving input order.
func (p *Postgres) AppendRows(ctx context.Context, table string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(appendRowSQL, table, row)
	}
	res := p.pool.SendBatch(ctx, batch)
	defer res.Close()

	for range rows {
		if _, err := res.Exec(); err != nil {
			return err
		}
	}
	return nil
}

const deleteRowSQL = `
    DELETE FROM respirolab.sheet_rows
    WHERE tab = $1 AND row_idx = $2
`

const shiftRowsSQL = `
    UPDATE respirolab.sheet_rows
    SET row_idx = row_idx - 1
    WHERE tab = $1 AND row_idx > $2
`

// DeleteRow removes a row and shifts later rows up to keep indexes dense.
func (p *Postgres) DeleteRow(ctx context.Context, table string, row int) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, deleteRowSQL, table, row)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRowNotFound
	}
	if _, err := tx.Exec(ctx, shiftRowsSQL, table, row); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
