package gateway

import (
	"strconv"

	"github.com/shopspring/decimal"

	"timesheet-reconciliation/internal/domain"
)

// ReportColumns is the header of every written report, in order.
var ReportColumns = []string{
	"Week",
	"Protime Full Name",
	"Agency Name",
	"Protime Total Hours",
	"Agency Total Hours",
	"Protime Total Invoice",
	"Agency Total Invoice",
	"Hours Difference",
	"Difference in Minutes",
	"Invoice Difference",
	"Overpay To Agency",
	"Internal Overpay",
}

// firstNumericColumn is the index of the first decimal column.
const firstNumericColumn = 3

// reportCell is one report value; Null marks a blank cell.
type reportCell struct {
	Text  string
	Value decimal.Decimal
	Null  bool
}

func textCell(s string) reportCell { return reportCell{Text: s} }

func decimalCell(d decimal.Decimal) reportCell { return reportCell{Value: d} }

func nullDecimalCell(d decimal.NullDecimal) reportCell {
	if !d.Valid {
		return reportCell{Null: true}
	}
	return reportCell{Value: d.Decimal}
}

func diffCells(r domain.DiffRecord) []reportCell {
	return []reportCell{
		textCell(strconv.Itoa(r.Week)),
		textCell(r.ProtimeName),
		textCell(r.AgencyName),
		nullDecimalCell(r.ProtimeHours),
		nullDecimalCell(r.AgencyHours),
		nullDecimalCell(r.ProtimeInvoice),
		nullDecimalCell(r.AgencyInvoice),
		decimalCell(r.HoursDifference),
		decimalCell(r.MinutesDiff),
		decimalCell(r.InvoiceDiff),
		decimalCell(r.OverpayToAgency),
		decimalCell(r.InternalOverpay),
	}
}

func totalsCells(t domain.TotalsRecord) []reportCell {
	return []reportCell{
		textCell(domain.TotalsWeekLabel),
		textCell(""),
		textCell(""),
		decimalCell(t.ProtimeHours),
		decimalCell(t.AgencyHours),
		decimalCell(t.ProtimeInvoice),
		decimalCell(t.AgencyInvoice),
		decimalCell(t.HoursDifference),
		decimalCell(t.MinutesDiff),
		decimalCell(t.InvoiceDiff),
		decimalCell(t.OverpayToAgency),
		decimalCell(t.InternalOverpay),
	}
}

// ReportRecords renders the report as text rows (data rows, then totals),
// with decimals fixed to two places and null values blank.
func ReportRecords(report *domain.ReportTable) [][]string {
	out := make([][]string, 0, len(report.Rows)+1)
	for _, r := range report.Rows {
		out = append(out, cellStrings(diffCells(r)))
	}
	return append(out, cellStrings(totalsCells(report.Totals)))
}

func cellStrings(cells []reportCell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		switch {
		case i < firstNumericColumn:
			out[i] = c.Text
		case c.Null:
			out[i] = ""
		default:
			out[i] = c.Value.StringFixed(2)
		}
	}
	return out
}
