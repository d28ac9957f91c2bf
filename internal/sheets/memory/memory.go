package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"pemakaian/internal/core"
	ports "pemakaian/internal/sheets"
)

// SeedFile is the CSV file NewFromDir looks for.
const SeedFile = "transactions.csv"

var (
	_ ports.TableReader = (*Store)(nil)
	_ ports.TableWriter = (*Store)(nil)
)

// Store keeps a table in memory. It backs the "memory" data backend and
// tests.
type Store struct {
	mu    sync.RWMutex
	table core.Table
}

func New(t core.Table) *Store {
	return &Store{table: cloneTable(t)}
}

// NewFromDir seeds the store from dir/transactions.csv. A missing file
// yields a table with the required headers and no rows.
func NewFromDir(dir string) (*Store, error) {
	path := filepath.Join(dir, SeedFile)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(core.Table{Headers: slices.Clone(core.RequiredColumns)}), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("seed %s has no header row", path)
	}
	headers := rows[0]
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return New(core.Table{Headers: headers, Records: rows[1:]}), nil
}

// ReadTable returns a copy of the stored table.
func (s *Store) ReadTable(ctx context.Context) (core.Table, error) {
	if err := ctx.Err(); err != nil {
		return core.Table{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTable(s.table), nil
}

// ReplaceTable swaps the stored table.
func (s *Store) ReplaceTable(ctx context.Context, t core.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = cloneTable(t)
	return nil
}

func cloneTable(t core.Table) core.Table {
	out := core.Table{Headers: slices.Clone(t.Headers), Date1904: t.Date1904}
	if t.Records != nil {
		out.Records = make([][]string, len(t.Records))
		for i, r := range t.Records {
			out.Records[i] = slices.Clone(r)
		}
	}
	return out
}
