package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// CategoryCount is the number of rows carrying a category value.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CategoryMean is a mean per category; Mean is null when no row had a value.
type CategoryMean struct {
	Name string              `json:"name"`
	Mean decimal.NullDecimal `json:"mean"`
}

// DailyAmount is a total for one Period.
type DailyAmount struct {
	Date   Date            `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// SupplierDailyAmount is one long-form cell of the Period x Supplier pivot.
type SupplierDailyAmount struct {
	Date     Date            `json:"date"`
	Supplier string          `json:"supplier"`
	Amount   decimal.Decimal `json:"amount"`
}

// Summary holds the five views computed over a filtered subset.
type Summary struct {
	ByTransactionType  []CategoryAmount      `json:"by_transaction_type"`
	EnergyDistribution []CategoryCount       `json:"energy_distribution"`
	MeanCostBySupplier []CategoryMean        `json:"mean_cost_by_supplier"`
	DailyTotals        []DailyAmount         `json:"daily_totals"`
	SupplierBreakdown  []SupplierDailyAmount `json:"supplier_breakdown"`
}
