package core

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source column names as they appear in the transaction spreadsheet.
const (
	ColPeriod          = "Periode"
	ColSupplier        = "Supplier"
	ColMachineName     = "Nama Mesin"
	ColTransactionType = "Tipe Transaksi"
	ColPrimaryEnergy   = "Energi Primer"
	ColAmount          = "Jumlah"
	ColCostPerVolume   = "Biaya Rp/Volume"

	// Derived columns appended on export.
	ColMonth = "Month"
	ColYear  = "Year"
)

// RequiredColumns lists the columns a source table must carry.
var RequiredColumns = []string{
	ColPeriod,
	ColSupplier,
	ColMachineName,
	ColTransactionType,
	ColPrimaryEnergy,
	ColAmount,
	ColCostPerVolume,
}

type (
	Date struct {
		time.Time
	}

	// Transaction is one spreadsheet record. Month and Year are derived
	// from Period and have no storage of their own.
	Transaction struct {
		Period          Date
		Supplier        string
		MachineName     string
		TransactionType string
		PrimaryEnergy   string
		Amount          decimal.NullDecimal
		CostPerVolume   decimal.NullDecimal
		// Extra holds source columns outside RequiredColumns, keyed by header.
		Extra map[string]string
	}

	// Table is a raw header + records matrix as read from a source.
	Table struct {
		Headers []string
		Records [][]string
		// Date1904 marks serial dates counted from the 1904 epoch.
		Date1904 bool
	}

	// Selection is the user's current filter choice.
	Selection struct {
		Suppliers []string `json:"suppliers"`
		Month     int      `json:"month"`
		Year      int      `json:"year"`
		Machines  []string `json:"machines"`
	}
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidNumber = errors.New("invalid number")
	ErrMissingValue  = errors.New("missing value")
	ErrInvalidMonth  = errors.New("invalid month")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// Month returns the month derived from Period.
func (t Transaction) Month() int {
	return t.Period.Month()
}

// Year returns the year derived from Period.
func (t Transaction) Year() int {
	return t.Period.Year()
}

func (t Transaction) Validate() error {
	if err := t.Period.Validate(); err != nil {
		return err
	}
	return nil
}

// Empty reports whether the selection can never match a row.
func (s Selection) Empty() bool {
	return len(s.Suppliers) == 0 || len(s.Machines) == 0
}

// Key returns a canonical string for the selection, independent of the
// order in which suppliers and machines were chosen.
func (s Selection) Key() string {
	sup := slices.Compact(sortedCopy(s.Suppliers))
	mac := slices.Compact(sortedCopy(s.Machines))
	var b strings.Builder
	b.WriteString(strconv.Itoa(s.Year))
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(s.Month))
	b.WriteString("|s:")
	b.WriteString(strings.Join(sup, "\x1f"))
	b.WriteString("|m:")
	b.WriteString(strings.Join(mac, "\x1f"))
	return b.String()
}

func sortedCopy(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}

// MonthLabel formats a month the way the filter sidebar shows it.
func MonthLabel(month int) string {
	return "Bulan " + strconv.Itoa(month)
}
