package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestReadTableFromFakeEndpoint(t *testing.T) {
	var gotPath, gotRender string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRender = r.URL.Query().Get("valueRenderOption")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Data!A1:G3","majorDimension":"ROWS","values":[
			["Periode","Supplier","Nama Mesin","Tipe Transaksi","Energi Primer","Jumlah","Biaya Rp/Volume"],
			[45296,"A","M1","X","Gas",10,1500]
		]}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := gsheet.NewService(ctx,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	c := NewWithService(svc, "sheet-id", "Data")
	tbl, err := c.ReadTable(ctx)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if !strings.Contains(gotPath, "/spreadsheets/sheet-id/values/Data") {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if gotRender != "UNFORMATTED_VALUE" {
		t.Fatalf("unexpected render option %q", gotRender)
	}
	if len(tbl.Records) != 1 || tbl.Records[0][0] != "45296" || tbl.Records[0][6] != "1500" {
		t.Fatalf("unexpected table %+v", tbl)
	}
}

func TestReadTableWithoutService(t *testing.T) {
	c := &Client{}
	if _, err := c.ReadTable(context.Background()); err == nil {
		t.Fatalf("expected error without service")
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), Options{}); err == nil {
		t.Fatalf("expected error for missing spreadsheet ID")
	}
}
