package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const clearCells = `DELETE FROM source_cells`

func (q *Queries) ClearCells(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, clearCells)
	return err
}

const clearColumns = `DELETE FROM source_columns`

func (q *Queries) ClearColumns(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, clearColumns)
	return err
}

const insertColumn = `INSERT INTO source_columns (position, name) VALUES (?, ?)`

func (q *Queries) InsertColumn(ctx context.Context, position int64, name string) error {
	_, err := q.db.ExecContext(ctx, insertColumn, position, name)
	return err
}

const insertCell = `INSERT INTO source_cells (row_num, position, value) VALUES (?, ?, ?)`

func (q *Queries) InsertCell(ctx context.Context, rowNum, position int64, value string) error {
	_, err := q.db.ExecContext(ctx, insertCell, rowNum, position, value)
	return err
}

const listColumns = `SELECT name FROM source_columns ORDER BY position`

func (q *Queries) ListColumns(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listColumns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	return items, rows.Err()
}

type Cell struct {
	RowNum   int64
	Position int64
	Value    string
}

const listCells = `SELECT row_num, position, value FROM source_cells ORDER BY row_num, position`

func (q *Queries) ListCells(ctx context.Context) ([]Cell, error) {
	rows, err := q.db.QueryContext(ctx, listCells)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Cell
	for rows.Next() {
		var c Cell
		if err := rows.Scan(&c.RowNum, &c.Position, &c.Value); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

type Import struct {
	ID         int64
	Source     string
	RowCount   int64
	Date1904   bool
	ImportedAt string
}

const createImport = `INSERT INTO imports (source, row_count, date1904, imported_at) VALUES (?, ?, ?, ?)
RETURNING id, source, row_count, date1904, imported_at`

func (q *Queries) CreateImport(ctx context.Context, source string, rowCount int64, date1904 bool, importedAt string) (Import, error) {
	var i Import
	err := q.db.QueryRowContext(ctx, createImport, source, rowCount, date1904, importedAt).
		Scan(&i.ID, &i.Source, &i.RowCount, &i.Date1904, &i.ImportedAt)
	return i, err
}

const lastImport = `SELECT id, source, row_count, date1904, imported_at FROM imports ORDER BY id DESC LIMIT 1`

func (q *Queries) LastImport(ctx context.Context) (Import, error) {
	var i Import
	err := q.db.QueryRowContext(ctx, lastImport).
		Scan(&i.ID, &i.Source, &i.RowCount, &i.Date1904, &i.ImportedAt)
	return i, err
}
