package core

import (
	"slices"
	"strconv"
	"sync/atomic"
	"time"
)

var loadSeq atomic.Uint64

// Dataset is an immutable, loaded set of transactions. A reload produces a
// new Dataset; an existing one is never edited.
type Dataset struct {
	headers  []string
	rows     []Transaction
	source   string
	loadedAt time.Time
	seq      uint64
}

// NewDataset copies headers and rows into a new Dataset.
func NewDataset(headers []string, rows []Transaction, source string, loadedAt time.Time) *Dataset {
	return &Dataset{
		headers:  slices.Clone(headers),
		rows:     slices.Clone(rows),
		source:   source,
		loadedAt: loadedAt,
		seq:      loadSeq.Add(1),
	}
}

// Headers returns the source column order.
func (d *Dataset) Headers() []string {
	return slices.Clone(d.headers)
}

// Rows returns a copy of the transactions.
func (d *Dataset) Rows() []Transaction {
	return slices.Clone(d.rows)
}

// Len returns the number of transactions.
func (d *Dataset) Len() int {
	return len(d.rows)
}

func (d *Dataset) Source() string {
	return d.source
}

func (d *Dataset) LoadedAt() time.Time {
	return d.loadedAt
}

// Version identifies this load; two loads never share a version.
func (d *Dataset) Version() string {
	return strconv.FormatInt(d.loadedAt.UnixNano(), 36) + "." + strconv.FormatUint(d.seq, 36)
}

// Suppliers returns distinct suppliers in order of first appearance.
func (d *Dataset) Suppliers() []string {
	return distinct(d.rows, func(t Transaction) string { return t.Supplier })
}

// Machines returns distinct machine names in order of first appearance.
func (d *Dataset) Machines() []string {
	return distinct(d.rows, func(t Transaction) string { return t.MachineName })
}

// Months returns distinct months in order of first appearance.
func (d *Dataset) Months() []int {
	return distinct(d.rows, Transaction.Month)
}

// Years returns distinct years in order of first appearance.
func (d *Dataset) Years() []int {
	return distinct(d.rows, Transaction.Year)
}

func distinct[K comparable](rows []Transaction, key func(Transaction) K) []K {
	seen := map[K]struct{}{}
	out := make([]K, 0)
	for _, r := range rows {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
