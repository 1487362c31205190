package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TotalsWeekLabel is written in the Week column of the totals row.
const TotalsWeekLabel = "Total"

// DiffRecord is one row of the outer join between both aggregates.
// Source-side values are null when the key was absent on that side.
type DiffRecord struct {
	Week            int                 `json:"week"`
	NormalizedName  string              `json:"-"`
	ProtimeName     string              `json:"protime_full_name"`
	AgencyName      string              `json:"agency_name"`
	ProtimeHours    decimal.NullDecimal `json:"protime_total_hours"`
	AgencyHours     decimal.NullDecimal `json:"agency_total_hours"`
	ProtimeInvoice  decimal.NullDecimal `json:"protime_total_invoice"`
	AgencyInvoice   decimal.NullDecimal `json:"agency_total_invoice"`
	HoursDifference decimal.Decimal     `json:"hours_difference"`
	MinutesDiff     decimal.Decimal     `json:"difference_in_minutes"`
	InvoiceDiff     decimal.Decimal     `json:"invoice_difference"`
	OverpayToAgency decimal.Decimal     `json:"overpay_to_agency"`
	InternalOverpay decimal.Decimal     `json:"internal_overpay"`
}

// TotalsRecord holds column sums of the filtered diff rows.
type TotalsRecord struct {
	ProtimeHours    decimal.Decimal `json:"protime_total_hours"`
	AgencyHours     decimal.Decimal `json:"agency_total_hours"`
	ProtimeInvoice  decimal.Decimal `json:"protime_total_invoice"`
	AgencyInvoice   decimal.Decimal `json:"agency_total_invoice"`
	HoursDifference decimal.Decimal `json:"hours_difference"`
	MinutesDiff     decimal.Decimal `json:"difference_in_minutes"`
	InvoiceDiff     decimal.Decimal `json:"invoice_difference"`
	OverpayToAgency decimal.Decimal `json:"overpay_to_agency"`
	InternalOverpay decimal.Decimal `json:"internal_overpay"`
}

// Add accumulates one diff row into the totals. Null source values count as zero.
func (t *TotalsRecord) Add(r DiffRecord) {
	t.ProtimeHours = t.ProtimeHours.Add(r.ProtimeHours.Decimal)
	t.AgencyHours = t.AgencyHours.Add(r.AgencyHours.Decimal)
	t.ProtimeInvoice = t.ProtimeInvoice.Add(r.ProtimeInvoice.Decimal)
	t.AgencyInvoice = t.AgencyInvoice.Add(r.AgencyInvoice.Decimal)
	t.HoursDifference = t.HoursDifference.Add(r.HoursDifference)
	t.MinutesDiff = t.MinutesDiff.Add(r.MinutesDiff)
	t.InvoiceDiff = t.InvoiceDiff.Add(r.InvoiceDiff)
	t.OverpayToAgency = t.OverpayToAgency.Add(r.OverpayToAgency)
	t.InternalOverpay = t.InternalOverpay.Add(r.InternalOverpay)
}

// Summary provides high-level statistics of a reconciliation run.
type Summary struct {
	ProtimeRows      int              `json:"protime_rows"`
	AgencyRows       int              `json:"agency_rows"`
	ProtimeWeeks     *WeekRange       `json:"protime_weeks,omitempty"`
	AgencyWeeks      *WeekRange       `json:"agency_weeks,omitempty"`
	JoinedRows       int              `json:"joined_rows"`
	MatchedRows      int              `json:"matched_rows"`
	OnlyProtime      int              `json:"only_protime"`
	OnlyAgency       int              `json:"only_agency"`
	ReportedRows     int              `json:"reported_rows"`
	MissingInvoices  int              `json:"missing_invoices"`
	ThresholdMinutes *decimal.Decimal `json:"threshold_minutes,omitempty"`
	WeekFilter       *WeekRange       `json:"week_filter,omitempty"`
}

// ReportTable is the threshold-filtered diff rows followed by one totals row.
type ReportTable struct {
	Rows    []DiffRecord `json:"rows"`
	Totals  TotalsRecord `json:"totals"`
	Summary Summary      `json:"summary"`
}

// RunParams is the immutable input of one reconciliation run.
type RunParams struct {
	ProtimeDir string
	AgencyDir  string
	OutputDir  string
	// Threshold in minutes; invalid means no filtering.
	Threshold decimal.NullDecimal
	Weeks     *WeekRange
}

// RunResult is what a successful run hands back to the caller.
type RunResult struct {
	Report      *ReportTable
	OutputPath  string
	GeneratedAt time.Time
}
