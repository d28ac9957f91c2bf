package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pemakaian/internal/config"
	"pemakaian/internal/core"
	"pemakaian/internal/sheets/memory"
	"pemakaian/internal/sheets/xlsx"
	"pemakaian/internal/storage"
)

func TestBackendType_IsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("csv").IsValid() {
		t.Errorf("csv should not be valid")
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend: "xlsx",
		XLSXPath:    "/srv/GT_merged.xlsx",
		XLSXSheet:   "Data",
		DataDir:     "/srv/data",
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != XLSXBackend || cfg.XLSXPath != "/srv/GT_merged.xlsx" || cfg.XLSXSheet != "Data" || cfg.DataDirectory != "/srv/data" {
		t.Errorf("unexpected backend config %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "csv"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"xlsx with path", Config{Type: XLSXBackend, XLSXPath: "a.xlsx"}, false},
		{"xlsx without path", Config{Type: XLSXBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sheets without id", Config{Type: SheetsBackend}, true},
		{"memory without directory", Config{Type: MemoryBackend}, false},
		{"unknown", Config{Type: "csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateMemoryBackend(t *testing.T) {
	dir := t.TempDir()
	csv := "Periode,Supplier,Nama Mesin,Tipe Transaksi,Energi Primer,Jumlah,Biaya Rp/Volume\n2024-01-05,PGN,GT 3.1,Pemakaian,Gas,10,5\n"
	if err := os.WriteFile(filepath.Join(dir, memory.SeedFile), []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if res.Cleanup != nil {
		t.Error("memory backend should not need cleanup")
	}
	if _, ok := res.Backend.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", res.Backend)
	}

	table, err := res.Backend.ReadTable(context.Background())
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if len(table.Records) != 1 || table.Headers[0] != core.ColPeriod {
		t.Errorf("unexpected table %+v", table)
	}
}

func TestFactory_CreateXLSXBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: XLSXBackend, XLSXPath: "GT_merged.xlsx"})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	reader, ok := res.Backend.(*xlsx.Reader)
	if !ok {
		t.Fatalf("expected *xlsx.Reader, got %T", res.Backend)
	}
	if reader.Path() != "GT_merged.xlsx" {
		t.Errorf("Path() = %q", reader.Path())
	}
}

func TestFactory_CreateSQLiteBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "pemakaian.db")

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: dbPath})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if _, ok := res.Backend.(*storage.SQLiteRepository); !ok {
		t.Fatalf("expected *storage.SQLiteRepository, got %T", res.Backend)
	}
	if res.Cleanup == nil {
		t.Fatal("sqlite backend should close its database")
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup() error = %v", err)
	}
}

func TestFactory_RejectsInvalidConfig(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SheetsBackend}); err == nil {
		t.Fatal("expected error")
	}
}
