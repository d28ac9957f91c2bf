package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"pemakaian/internal/charts"
	"pemakaian/internal/core"
	"pemakaian/internal/dataset"
	"pemakaian/internal/log"
	"pemakaian/internal/report"
)

// DashboardTitle heads the dashboard page.
const DashboardTitle = "Dashboard Pemakaian Mesin PLTGU PRIOK GT #3.1"

type chartView struct {
	Name  charts.Name
	Title string
	URL   string
}

type pageData struct {
	Title     string
	Options   report.Options
	Selection core.Selection
	Empty     bool
	Message   string
	Headers   []string
	Rows      [][]string
	RowCount  int
	ExportURL string
	Charts    []chartView
	Source    string
	LoadedAt  string
}

// summaryResponse is the /api/summary payload.
type summaryResponse struct {
	Version   string         `json:"dataset_version"`
	Selection core.Selection `json:"selection"`
	Rows      int            `json:"rows"`
	Empty     bool           `json:"empty"`
	Message   string         `json:"message,omitempty"`
	Summary   *core.Summary  `json:"summary,omitempty"`
}

// run resolves the dataset and selection for r and runs the pipeline.
// It writes the error response itself and reports ok=false on failure.
func (s *Server) run(w http.ResponseWriter, r *http.Request) (*core.Dataset, report.Result, bool) {
	ds, err := s.source.Current()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dataset.ErrNotLoaded) {
			status = http.StatusServiceUnavailable
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dataset unavailable", log.FieldError, err)
		http.Error(w, "dataset unavailable", status)
		return nil, report.Result{}, false
	}

	sel, err := parseSelection(r.URL.Query(), ds)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, report.Result{}, false
	}

	res := report.Run(ds, sel, s.policy)
	log.FromContext(r.Context()).DebugContext(r.Context(), "Selection applied",
		append(log.NewFields().
			WithOperation(log.OpFilter).
			WithSelection(sel.Suppliers, sel.Month, sel.Year, sel.Machines).
			ToSlice(), log.FieldRows, len(res.Rows))...)
	return ds, res, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	ds, res, ok := s.run(w, r)
	if !ok {
		return
	}

	data := pageData{
		Title:     DashboardTitle,
		Options:   report.FilterOptions(ds),
		Selection: res.Selection,
		Empty:     res.Empty,
		Message:   res.Message,
		Headers:   report.ExportHeaders(ds.Headers()),
		Rows:      report.Records(ds.Headers(), res.Rows),
		RowCount:  len(res.Rows),
		Source:    ds.Source(),
		LoadedAt:  ds.LoadedAt().Format(time.RFC3339),
	}
	if !res.Empty {
		q := selectionQuery(res.Selection)
		data.ExportURL = "/export.csv?" + q.Encode()
		// Browsers cache charts, so the URL carries the dataset version.
		q.Set(versionParam, ds.Version())
		query := q.Encode()
		for _, name := range charts.All {
			data.Charts = append(data.Charts, chartView{
				Name:  name,
				Title: name.Title(),
				URL:   "/charts/" + string(name) + "?" + query,
			})
		}
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Index template execution failed", log.FieldError, err, "template", "index.html")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ds, res, ok := s.run(w, r)
	if !ok {
		return
	}
	if res.Empty {
		http.Error(w, res.Message, http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, ds.Headers(), res.Rows); err != nil {
		s.structured.LogError(r.Context(), "CSV export failed", err, log.ComponentReport, log.OpExport, nil)
		http.Error(w, "failed to export data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", report.ExportContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.ExportFilename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name, err := charts.ParseName(r.PathValue("name"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	ds, err := s.source.Current()
	if err != nil {
		http.Error(w, "dataset unavailable", http.StatusServiceUnavailable)
		return
	}
	sel, err := parseSelection(r.URL.Query(), ds)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := ds.Version() + "|" + sel.Key() + "|" + string(name)
	svg, hit := s.chartCache.Get(key)
	if !hit {
		res := report.Run(ds, sel, s.policy)
		if res.Empty {
			http.Error(w, res.Message, http.StatusNotFound)
			return
		}
		var buf bytes.Buffer
		if err := s.renderer.Render(&buf, name, *res.Summary); err != nil {
			if errors.Is(err, charts.ErrNoData) {
				http.Error(w, report.NoDataMessage, http.StatusNotFound)
				return
			}
			fields := log.NewFields()
			fields[log.FieldChart] = string(name)
			s.structured.LogError(r.Context(), "Chart rendering failed", err, log.ComponentCharts, log.OpRender, fields)
			http.Error(w, "failed to render chart", http.StatusInternalServerError)
			return
		}
		svg = buf.Bytes()
		s.chartCache.Set(key, svg)
	}

	w.Header().Set("Content-Type", charts.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(svg)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ds, res, ok := s.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Version:   ds.Version(),
		Selection: res.Selection,
		Rows:      len(res.Rows),
		Empty:     res.Empty,
		Message:   res.Message,
		Summary:   res.Summary,
	})
}

// handleReload reloads the dataset from its source and drops cached charts.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ds, err := s.source.Reload(r.Context())
	if err != nil {
		s.structured.LogError(r.Context(), "Dataset reload failed", err, log.ComponentDataset, log.OpReload, nil)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status": "failed",
			"error":  err.Error(),
		})
		return
	}
	s.PurgeCharts()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "reloaded",
		"dataset_version": ds.Version(),
		"rows":            ds.Len(),
		"source":          ds.Source(),
	})
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady reports whether templates and a dataset are available.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if ds, err := s.source.Current(); err != nil {
		checks["dataset"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["dataset"] = map[string]any{
			"status":    "ok",
			"rows":      ds.Len(),
			"source":    ds.Source(),
			"loaded_at": ds.LoadedAt().Format(time.RFC3339),
		}
	}

	checks["chart_cache"] = map[string]any{
		"entries": s.chartCache.Size(),
		"status":  "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	stats := s.chartCache.Stats()
	rows := 0
	if ds, err := s.source.Current(); err == nil {
		rows = ds.Len()
	}

	metric := func(name, help, kind string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}
	metric("dataset_rows", "Rows in the loaded dataset", "gauge", rows)
	metric("chart_cache_hits_total", "Chart cache hits", "counter", stats.Hits)
	metric("chart_cache_misses_total", "Chart cache misses", "counter", stats.Misses)
	metric("chart_cache_evictions_total", "Chart cache evictions", "counter", stats.Evictions)
	metric("chart_cache_entries", "Current chart cache entries", "gauge", s.chartCache.Size())
	metric("rate_limit_hits_total", "Total rate limit hits", "counter", atomic.LoadInt64(&s.security.rateLimitHits))
	metric("suspicious_requests_total", "Total suspicious requests detected", "counter", atomic.LoadInt64(&s.security.suspiciousRequests))
	metric("active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", s.rateLimiter.ActiveClients())
	metric("uptime_seconds", "Application uptime in seconds", "gauge", fmt.Sprintf("%.0f", time.Since(s.started).Seconds()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
