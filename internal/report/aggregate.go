package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"pemakaian/internal/core"
)

// Aggregate computes the five summary views over rows. Missing Amount and
// CostPerVolume values follow policy; see core.MissingPolicy.
func Aggregate(rows []core.Transaction, policy core.MissingPolicy) core.Summary {
	return core.Summary{
		ByTransactionType:  SumByTransactionType(rows, policy),
		EnergyDistribution: EnergyDistribution(rows),
		MeanCostBySupplier: MeanCostBySupplier(rows, policy),
		DailyTotals:        DailyTotals(rows, policy),
		SupplierBreakdown:  SupplierBreakdown(rows, policy),
	}
}

// SumByTransactionType totals Amount per transaction type, sorted by type.
func SumByTransactionType(rows []core.Transaction, policy core.MissingPolicy) []core.CategoryAmount {
	sums := map[string]decimal.Decimal{}
	for _, r := range rows {
		v, ok := policy.Resolve(r.Amount)
		if !ok {
			v = decimal.Zero
		}
		sums[r.TransactionType] = sums[r.TransactionType].Add(v)
	}
	out := make([]core.CategoryAmount, 0, len(sums))
	for name, amount := range sums {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	slices.SortFunc(out, func(a, b core.CategoryAmount) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// EnergyDistribution counts rows per primary energy, largest first; ties
// are ordered by name.
func EnergyDistribution(rows []core.Transaction) []core.CategoryCount {
	counts := map[string]int{}
	for _, r := range rows {
		counts[r.PrimaryEnergy]++
	}
	out := make([]core.CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, core.CategoryCount{Name: name, Count: n})
	}
	slices.SortFunc(out, func(a, b core.CategoryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// MeanCostBySupplier averages CostPerVolume per supplier, sorted by
// supplier. A supplier whose values were all dropped gets a null mean.
func MeanCostBySupplier(rows []core.Transaction, policy core.MissingPolicy) []core.CategoryMean {
	type acc struct {
		sum decimal.Decimal
		n   int64
	}
	groups := map[string]*acc{}
	for _, r := range rows {
		g := groups[r.Supplier]
		if g == nil {
			g = &acc{}
			groups[r.Supplier] = g
		}
		if v, ok := policy.Resolve(r.CostPerVolume); ok {
			g.sum = g.sum.Add(v)
			g.n++
		}
	}
	out := make([]core.CategoryMean, 0, len(groups))
	for name, g := range groups {
		m := core.CategoryMean{Name: name}
		if g.n > 0 {
			m.Mean = decimal.NewNullDecimal(mean(g.sum, g.n))
		}
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b core.CategoryMean) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// DailyTotals sums Amount per Period in ascending date order.
func DailyTotals(rows []core.Transaction, policy core.MissingPolicy) []core.DailyAmount {
	sums := map[time.Time]decimal.Decimal{}
	for _, r := range rows {
		v, ok := policy.Resolve(r.Amount)
		if !ok {
			v = decimal.Zero
		}
		sums[r.Period.Time] = sums[r.Period.Time].Add(v)
	}
	out := make([]core.DailyAmount, 0, len(sums))
	for day, amount := range sums {
		out = append(out, core.DailyAmount{Date: core.Date{Time: day}, Amount: amount})
	}
	slices.SortFunc(out, func(a, b core.DailyAmount) int { return a.Date.Compare(b.Date.Time) })
	return out
}

// SupplierBreakdown sums Amount per (Period, Supplier) pair present in rows,
// ordered by date then supplier.
func SupplierBreakdown(rows []core.Transaction, policy core.MissingPolicy) []core.SupplierDailyAmount {
	type key struct {
		day      time.Time
		supplier string
	}
	sums := map[key]decimal.Decimal{}
	for _, r := range rows {
		v, ok := policy.Resolve(r.Amount)
		if !ok {
			v = decimal.Zero
		}
		k := key{r.Period.Time, r.Supplier}
		sums[k] = sums[k].Add(v)
	}
	out := make([]core.SupplierDailyAmount, 0, len(sums))
	for k, amount := range sums {
		out = append(out, core.SupplierDailyAmount{Date: core.Date{Time: k.day}, Supplier: k.supplier, Amount: amount})
	}
	slices.SortFunc(out, func(a, b core.SupplierDailyAmount) int {
		if c := a.Date.Compare(b.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.Supplier, b.Supplier)
	})
	return out
}

// Total sums Amount over rows under policy.
func Total(rows []core.Transaction, policy core.MissingPolicy) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		if v, ok := policy.Resolve(r.Amount); ok {
			total = total.Add(v)
		}
	}
	return total
}

// mean rounds to 16 decimal places.
func mean(sum decimal.Decimal, n int64) decimal.Decimal {
	return sum.DivRound(decimal.NewFromInt(n), 16)
}
