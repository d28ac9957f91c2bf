package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pemakaian/internal/core"
	"pemakaian/internal/report"
)

// appliedParam marks a query string produced by the filter form. Without it
// the default selection is shown.
const appliedParam = "applied"

// versionParam pins a chart URL to one dataset version.
const versionParam = "v"

// parseSelection reads the filter selection from query parameters. Suppliers
// and machines are repeated parameters; an applied form without any of them
// selects nothing.
func parseSelection(q url.Values, ds *core.Dataset) (core.Selection, error) {
	def := report.DefaultSelection(ds)
	if !q.Has(appliedParam) {
		return def, nil
	}

	sel := core.Selection{
		Suppliers: cleanValues(q["supplier"]),
		Machines:  cleanValues(q["machine"]),
		Month:     def.Month,
		Year:      def.Year,
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return core.Selection{}, fmt.Errorf("%w: %q", core.ErrInvalidMonth, v)
		}
		sel.Month = m
	}
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.Selection{}, fmt.Errorf("invalid year: %q", v)
		}
		sel.Year = y
	}
	return sel, nil
}

// selectionQuery encodes sel so parseSelection reads it back unchanged.
func selectionQuery(sel core.Selection) url.Values {
	q := url.Values{}
	q.Set(appliedParam, "1")
	for _, s := range sel.Suppliers {
		q.Add("supplier", s)
	}
	q.Set("month", strconv.Itoa(sel.Month))
	q.Set("year", strconv.Itoa(sel.Year))
	for _, m := range sel.Machines {
		q.Add("machine", m)
	}
	return q
}

func cleanValues(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, sanitizeInput(v))
	}
	return out
}

var templateFuncs = template.FuncMap{
	"monthLabel": core.MonthLabel,
	"contains":   report.Contains,
	"blank": func(s string) string {
		if s == "" {
			return "(kosong)"
		}
		return s
	},
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
