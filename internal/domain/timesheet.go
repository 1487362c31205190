package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Source identifies which side of the reconciliation a dataset came from.
type Source string

const (
	SourceProtime Source = "protime"
	SourceAgency  Source = "agency"
)

// RawRecord is one untyped row read from a source file, keyed by header name.
type RawRecord map[string]string

// RowOrigin points back at the file and 1-based sheet line a raw row came from.
type RowOrigin struct {
	File string
	Line int
}

// RawTable is the row-wise concatenation of every file found for one source.
// Columns is the union of all headers in file order; Origins runs parallel to Rows.
type RawTable struct {
	Columns []string
	Rows    []RawRecord
	Origins []RowOrigin
	Files   []string
}

// Origin returns where row i was read from, or a zero value when unknown.
func (t RawTable) Origin(i int) RowOrigin {
	if i < len(t.Origins) {
		return t.Origins[i]
	}
	return RowOrigin{Line: i + 2}
}

// Append concatenates other onto t, extending the column union.
func (t *RawTable) Append(other RawTable) {
	for _, c := range other.Columns {
		if !t.HasColumn(c) {
			t.Columns = append(t.Columns, c)
		}
	}
	t.Rows = append(t.Rows, other.Rows...)
	for i := range other.Rows {
		t.Origins = append(t.Origins, other.Origin(i))
	}
	t.Files = append(t.Files, other.Files...)
}

// HasColumn reports whether any file contributed the given header.
func (t RawTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// WeekRange is an inclusive range of work-week numbers.
type WeekRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether week lies within the range, bounds included.
func (r WeekRange) Contains(week int) bool {
	return week >= r.Start && week <= r.End
}

// Overlaps reports whether the two ranges share at least one week.
func (r WeekRange) Overlaps(other WeekRange) bool {
	return r.Start <= other.End && other.Start <= r.End
}

func (r WeekRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// CleanedRecord is a harmonized row from either source.
// Agency is only populated for protime rows.
type CleanedRecord struct {
	Source  Source
	Week    int
	Name    string
	Agency  string
	Hours   decimal.Decimal
	Invoice decimal.NullDecimal
}

// NormalizedKey is the join key shared by both sources.
type NormalizedKey struct {
	Week           int
	NormalizedName string
}

// Less orders keys by week, then by name.
func (k NormalizedKey) Less(other NormalizedKey) bool {
	if k.Week != other.Week {
		return k.Week < other.Week
	}
	return k.NormalizedName < other.NormalizedName
}

// AggregatedRecord sums every CleanedRecord sharing a NormalizedKey.
// DisplayName is the first original name seen for the key in input order.
type AggregatedRecord struct {
	Key             NormalizedKey
	DisplayName     string
	Hours           decimal.Decimal
	Invoice         decimal.Decimal
	Rows            int
	MissingInvoices int
	// AmbiguousNames lists other original names that collapsed onto the same key.
	AmbiguousNames  []string
}
