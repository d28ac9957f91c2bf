package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pemakaian/internal/core"
	"pemakaian/internal/log"
)

func TestInitSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "pemakaian.db")

	repo, err := InitSQLite(log.Discard(), dbPath)
	if err != nil {
		t.Fatalf("InitSQLite() error = %v", err)
	}
	defer repo.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file not created: %v", err)
	}

	table := core.Table{
		Headers: []string{"Periode", "Supplier"},
		Records: [][]string{{"2024-01-05", "PGN"}},
	}
	if _, err := repo.ImportTable(context.Background(), table, "test.xlsx"); err != nil {
		t.Fatalf("ImportTable() error = %v", err)
	}
	got, err := repo.ReadTable(context.Background())
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if len(got.Records) != 1 || got.Records[0][1] != "PGN" {
		t.Errorf("ReadTable() = %+v", got)
	}
}

func TestInitSQLiteReturnsError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	repo, err := InitSQLite(log.Discard(), filepath.Join(blocker, "sub", "pemakaian.db"))
	if err == nil {
		repo.Close()
		t.Fatal("expected error when the parent path is a file")
	}
}
