package report

import (
	"pemakaian/internal/core"
)

// NoDataMessage is shown instead of the table and charts when the
// selection matches no rows.
const NoDataMessage = "No data available for the selected filters."

// Result is one pass of the pipeline for a selection.
type Result struct {
	Selection core.Selection
	Rows      []core.Transaction
	Empty     bool
	Message   string
	// Summary is nil when Empty.
	Summary *core.Summary
}

// Run filters ds by sel and, when anything matched, aggregates the subset.
func Run(ds *core.Dataset, sel core.Selection, policy core.MissingPolicy) Result {
	rows := Filter(ds.Rows(), sel)
	if len(rows) == 0 {
		return Result{Selection: sel, Rows: rows, Empty: true, Message: NoDataMessage}
	}
	summary := Aggregate(rows, policy)
	return Result{Selection: sel, Rows: rows, Summary: &summary}
}
