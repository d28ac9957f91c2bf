package sheets

import (
	"context"

	"pemakaian/internal/core"
)

// Ports for outbound adapters.
type (
	// TableReader returns the raw transaction table from a source.
	TableReader interface {
		ReadTable(ctx context.Context) (core.Table, error)
	}

	// TableWriter replaces the stored transaction table.
	TableWriter interface {
		ReplaceTable(ctx context.Context, t core.Table) error
	}
)
