// Package report is the pure filter, aggregate and export pipeline over a
// loaded dataset. Nothing here keeps state between calls.
package report

import (
	"slices"

	"pemakaian/internal/core"
)

// Filter returns the rows matching every predicate of sel: supplier in
// sel.Suppliers, month and year equal, machine in sel.Machines. An empty
// supplier or machine set matches nothing. Row order is preserved.
func Filter(rows []core.Transaction, sel core.Selection) []core.Transaction {
	out := make([]core.Transaction, 0)
	if sel.Empty() {
		return out
	}
	suppliers := toSet(sel.Suppliers)
	machines := toSet(sel.Machines)
	for _, r := range rows {
		if _, ok := suppliers[r.Supplier]; !ok {
			continue
		}
		if r.Month() != sel.Month || r.Year() != sel.Year {
			continue
		}
		if _, ok := machines[r.MachineName]; !ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

// DefaultSelection is what a first visit shows: every supplier and machine,
// and the first month and year present in the data.
func DefaultSelection(ds *core.Dataset) core.Selection {
	sel := core.Selection{
		Suppliers: ds.Suppliers(),
		Machines:  ds.Machines(),
	}
	if months := ds.Months(); len(months) > 0 {
		sel.Month = months[0]
	}
	if years := ds.Years(); len(years) > 0 {
		sel.Year = years[0]
	}
	return sel
}

// Options lists the values the filter controls offer.
type Options struct {
	Suppliers []string
	Months    []int
	Years     []int
	Machines  []string
}

// FilterOptions returns the distinct values of ds in first-appearance order.
func FilterOptions(ds *core.Dataset) Options {
	return Options{
		Suppliers: ds.Suppliers(),
		Months:    ds.Months(),
		Years:     ds.Years(),
		Machines:  ds.Machines(),
	}
}

// Contains reports whether v is one of the selected values.
func Contains(selected []string, v string) bool {
	return slices.Contains(selected, v)
}

func toSet(in []string) map[string]struct{} {
	m := make(map[string]struct{}, len(in))
	for _, v := range in {
		m[v] = struct{}{}
	}
	return m
}
