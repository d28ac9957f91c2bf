package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pemakaian/internal/core"
	ports "pemakaian/internal/sheets"
)

var (
	_ ports.TableReader = (*SQLiteRepository)(nil)
	_ ports.TableWriter = (*SQLiteRepository)(nil)
)

// ErrNoSnapshot is returned by ReadTable before anything was imported.
var ErrNoSnapshot = errors.New("no table imported yet")

// SQLiteRepository stores the last imported source table cell by cell, so
// the header order and any extra columns survive unchanged.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db), now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceTable implements sheets.TableWriter.
func (r *SQLiteRepository) ReplaceTable(ctx context.Context, t core.Table) error {
	_, err := r.ImportTable(ctx, t, "table")
	return err
}

// ImportTable replaces the stored table in one transaction and records the
// import. Empty cells are not stored.
func (r *SQLiteRepository) ImportTable(ctx context.Context, t core.Table, source string) (Import, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Import{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.ClearCells(ctx); err != nil {
		return Import{}, fmt.Errorf("clear cells: %w", err)
	}
	if err := q.ClearColumns(ctx); err != nil {
		return Import{}, fmt.Errorf("clear columns: %w", err)
	}
	for i, h := range t.Headers {
		if err := q.InsertColumn(ctx, int64(i), h); err != nil {
			return Import{}, fmt.Errorf("insert column %q: %w", h, err)
		}
	}
	for rowNum, rec := range t.Records {
		for pos, v := range rec {
			if v == "" {
				continue
			}
			if err := q.InsertCell(ctx, int64(rowNum), int64(pos), v); err != nil {
				return Import{}, fmt.Errorf("insert cell (%d,%d): %w", rowNum, pos, err)
			}
		}
	}

	imp, err := q.CreateImport(ctx, source, int64(len(t.Records)), t.Date1904, r.now().UTC().Format(time.RFC3339))
	if err != nil {
		return Import{}, fmt.Errorf("record import: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Import{}, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Table imported to SQLite",
		"component", "storage",
		"source", source,
		"rows", len(t.Records),
		"columns", len(t.Headers))
	return imp, nil
}

// ReadTable implements sheets.TableReader.
func (r *SQLiteRepository) ReadTable(ctx context.Context) (core.Table, error) {
	imp, err := r.queries.LastImport(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Table{}, ErrNoSnapshot
	}
	if err != nil {
		return core.Table{}, fmt.Errorf("read last import: %w", err)
	}

	headers, err := r.queries.ListColumns(ctx)
	if err != nil {
		return core.Table{}, fmt.Errorf("list columns: %w", err)
	}
	cells, err := r.queries.ListCells(ctx)
	if err != nil {
		return core.Table{}, fmt.Errorf("list cells: %w", err)
	}

	records := make([][]string, imp.RowCount)
	for i := range records {
		records[i] = make([]string, len(headers))
	}
	for _, c := range cells {
		if c.RowNum < 0 || c.RowNum >= imp.RowCount {
			continue
		}
		rec := records[c.RowNum]
		for int64(len(rec)) <= c.Position {
			rec = append(rec, "")
		}
		rec[c.Position] = c.Value
		records[c.RowNum] = rec
	}
	return core.Table{Headers: headers, Records: records, Date1904: imp.Date1904}, nil
}

// LastImport returns details of the most recent import.
func (r *SQLiteRepository) LastImport(ctx context.Context) (Import, error) {
	imp, err := r.queries.LastImport(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Import{}, ErrNoSnapshot
	}
	return imp, err
}
