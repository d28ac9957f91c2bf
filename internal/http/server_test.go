package http

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"pemakaian/internal/core"
	"pemakaian/internal/dataset"
	"pemakaian/internal/report"
	"pemakaian/internal/sheets/memory"
)

var testTable = core.Table{
	Headers: []string{"Periode", "Supplier", "Nama Mesin", "Tipe Transaksi", "Energi Primer", "Jumlah", "Biaya Rp/Volume", "Keterangan"},
	Records: [][]string{
		{"2024-01-05", "PGN", "GT 3.1", "Pemakaian", "Gas", "10", "5", "a"},
		{"2024-01-05", "Pertamina", "GT 3.1", "Pemakaian", "HSD", "2.5", "7", "b"},
		{"2024-01-06", "PGN", "GT 3.2", "Start", "Gas", "4", "", "c"},
		{"2024-02-01", "PGN", "GT 3.1", "Pemakaian", "Gas", "99", "1", "d"},
	},
}

func newTestStore(t *testing.T) *dataset.Store {
	t.Helper()
	store := dataset.NewStore(memory.New(testTable), dataset.Options{Source: "test"}, nil)
	if _, err := store.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	return store
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv := NewServer(Options{Addr: ":0", Source: newTestStore(t)})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestIndexDefaultSelection(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{
		DashboardTitle,
		"Filters",
		"Pilih Supplier",
		"Bulan 1",
		"Pilih Nama Mesin",
		"Filtered Data",
		"Download data as CSV",
		"/charts/transaction-types?",
		"/charts/supplier-breakdown?",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if strings.Contains(body, report.NoDataMessage) {
		t.Errorf("default selection should not be empty")
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("missing security headers")
	}
	if rr.Header().Get(requestIDHeader) == "" {
		t.Errorf("missing request id")
	}
}

func TestIndexEmptySelection(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv, "/?applied=1&month=1&year=2024&machine=GT+3.1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, report.NoDataMessage) {
		t.Fatalf("expected no-data message")
	}
	if !strings.Contains(body, "Filtered Data") {
		t.Errorf("table heading should still be shown")
	}
	if strings.Contains(body, "Download data as CSV") || strings.Contains(body, "/charts/") {
		t.Errorf("empty selection should not offer export or charts")
	}
}

func TestIndexRejectsInvalidMonth(t *testing.T) {
	srv := newTestServer(t)
	if rr := get(t, srv, "/?applied=1&month=13"); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t)

	q := url.Values{}
	q.Set("applied", "1")
	q.Add("supplier", "PGN")
	q.Add("supplier", "Pertamina")
	q.Set("month", "1")
	q.Set("year", "2024")
	q.Add("machine", "GT 3.1")

	rr := get(t, srv, "/export.csv?"+q.Encode())
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type=%q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "filtered_data.csv") {
		t.Errorf("Content-Disposition=%q", cd)
	}

	records, err := csv.NewReader(strings.NewReader(rr.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	wantHeader := "Periode,Supplier,Nama Mesin,Tipe Transaksi,Energi Primer,Jumlah,Biaya Rp/Volume,Keterangan,Month,Year"
	if got := strings.Join(records[0], ","); got != wantHeader {
		t.Fatalf("header=%q", got)
	}
	if len(records) != 3 {
		t.Fatalf("expected 2 data rows, got %d", len(records)-1)
	}
	if got := strings.Join(records[1], ","); got != "2024-01-05,PGN,GT 3.1,Pemakaian,Gas,10,5,a,1,2024" {
		t.Errorf("row=%q", got)
	}

	again := get(t, srv, "/export.csv?"+q.Encode())
	if again.Body.String() != rr.Body.String() {
		t.Errorf("export is not deterministic")
	}
}

func TestExportEmptyIsNotFound(t *testing.T) {
	srv := newTestServer(t)
	rr := get(t, srv, "/export.csv?applied=1&supplier=Nobody&month=1&year=2024&machine=GT+3.1")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), report.NoDataMessage) {
		t.Errorf("body=%q", rr.Body.String())
	}
}

func TestChartsAreRenderedAndCached(t *testing.T) {
	srv := newTestServer(t)

	for _, name := range []string{"transaction-types", "energy", "cost-by-supplier", "daily", "supplier-breakdown"} {
		rr := get(t, srv, "/charts/"+name)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", name, rr.Code, rr.Body.String())
		}
		if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "image/svg+xml") {
			t.Errorf("%s Content-Type=%q", name, ct)
		}
		if !strings.Contains(rr.Body.String(), "<svg") {
			t.Errorf("%s body is not svg", name)
		}
	}
	if got := srv.chartCache.Size(); got != 5 {
		t.Fatalf("expected 5 cached charts, got %d", got)
	}

	get(t, srv, "/charts/daily")
	if stats := srv.chartCache.Stats(); stats.Hits != 1 {
		t.Errorf("expected one cache hit, got %+v", stats)
	}

	if rr := get(t, srv, "/charts/unknown"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown chart status=%d", rr.Code)
	}
	if rr := get(t, srv, "/charts/daily?applied=1&month=1&year=2024"); rr.Code != http.StatusNotFound {
		t.Errorf("empty selection chart status=%d", rr.Code)
	}
}

func TestSummaryJSON(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv, "/api/summary")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var got struct {
		Rows      int  `json:"rows"`
		Empty     bool `json:"empty"`
		Selection struct {
			Month int `json:"month"`
			Year  int `json:"year"`
		} `json:"selection"`
		Summary struct {
			ByTransactionType []struct {
				Name   string `json:"name"`
				Amount string `json:"amount"`
			} `json:"by_transaction_type"`
		} `json:"summary"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Rows != 3 || got.Empty || got.Selection.Month != 1 || got.Selection.Year != 2024 {
		t.Fatalf("unexpected summary %+v", got)
	}
	if len(got.Summary.ByTransactionType) != 2 || got.Summary.ByTransactionType[0].Name != "Pemakaian" || got.Summary.ByTransactionType[0].Amount != "12.5" {
		t.Errorf("unexpected type totals %+v", got.Summary.ByTransactionType)
	}
}

type failingSource struct{}

func (failingSource) Current() (*core.Dataset, error) { return nil, dataset.ErrNotLoaded }
func (failingSource) Reload(ctx context.Context) (*core.Dataset, error) {
	return nil, errors.New("source offline")
}

func TestHealthAndReadiness(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		if rr := get(t, srv, path); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down := NewServer(Options{Addr: ":0", Source: failingSource{}})
	defer down.Shutdown(context.Background())
	if rr := get(t, down, "/readyz"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before load, got %d", rr.Code)
	}
	if rr := get(t, down, "/"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 index before load, got %d", rr.Code)
	}
}

func TestReloadPurgesCharts(t *testing.T) {
	srv := newTestServer(t)
	get(t, srv, "/charts/energy")
	if srv.chartCache.Size() != 1 {
		t.Fatalf("chart not cached")
	}

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("reload status=%d body=%s", rr.Code, rr.Body.String())
	}
	if srv.chartCache.Size() != 0 {
		t.Errorf("reload should purge the chart cache")
	}

	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/reload", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET reload status=%d", rr.Code)
	}
}

func TestChartURLFollowsDatasetVersion(t *testing.T) {
	store := newTestStore(t)
	srv := NewServer(Options{Addr: ":0", Source: store})
	defer srv.Shutdown(context.Background())

	chartVersion := func() string {
		t.Helper()
		body := get(t, srv, "/").Body.String()
		_, rest, ok := strings.Cut(body, `src="/charts/energy?`)
		if !ok {
			t.Fatalf("energy chart missing from page")
		}
		raw, _, _ := strings.Cut(rest, `"`)
		q, err := url.ParseQuery(strings.ReplaceAll(raw, "&amp;", "&"))
		if err != nil {
			t.Fatalf("parse chart query %q: %v", raw, err)
		}
		return q.Get(versionParam)
	}

	before := chartVersion()
	ds, _ := store.Current()
	if before != ds.Version() {
		t.Fatalf("chart url version=%q want %q", before, ds.Version())
	}

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("reload status=%d", rr.Code)
	}

	after := chartVersion()
	if after == before {
		t.Fatalf("chart url unchanged after reload: %q", after)
	}
	if rr := get(t, srv, "/charts/energy?"+versionParam+"="+after); rr.Code != http.StatusOK {
		t.Errorf("versioned chart status=%d", rr.Code)
	}
}

func TestReloadFailure(t *testing.T) {
	srv := NewServer(Options{Addr: ":0", Source: failingSource{}})
	defer srv.Shutdown(context.Background())

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "source offline") {
		t.Errorf("body=%q", rr.Body.String())
	}
}
