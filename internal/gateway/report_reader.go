package gateway

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"timesheet-reconciliation/internal/domain"
)

// ReadReport loads a report written by one of the report writers. Data rows
// come back in file order; the row labelled "Total" fills Totals. Normalized
// names are not stored in reports and stay empty.
func ReadReport(path string) (*domain.ReportTable, error) {
	table, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	for _, col := range ReportColumns {
		if !table.HasColumn(col) {
			return nil, &domain.SchemaError{Source: domain.Source(filepath.Base(path)), Column: col}
		}
	}

	report := &domain.ReportTable{}
	sawTotals := false
	for i, rec := range table.Rows {
		p := reportRowParser{rec: rec}
		if rec["Week"] == domain.TotalsWeekLabel {
			report.Totals = domain.TotalsRecord{
				ProtimeHours:    p.decimal(ReportColumns[3]),
				AgencyHours:     p.decimal(ReportColumns[4]),
				ProtimeInvoice:  p.decimal(ReportColumns[5]),
				AgencyInvoice:   p.decimal(ReportColumns[6]),
				HoursDifference: p.decimal(ReportColumns[7]),
				MinutesDiff:     p.decimal(ReportColumns[8]),
				InvoiceDiff:     p.decimal(ReportColumns[9]),
				OverpayToAgency: p.decimal(ReportColumns[10]),
				InternalOverpay: p.decimal(ReportColumns[11]),
			}
			if p.err != nil {
				return nil, fmt.Errorf("invalid totals row in %s: %w", path, p.err)
			}
			sawTotals = true
			continue
		}

		week, err := strconv.Atoi(rec["Week"])
		if err != nil {
			return nil, fmt.Errorf("invalid week %q at %s line %d", rec["Week"], path, table.Origin(i).Line)
		}
		row := domain.DiffRecord{
			Week:            week,
			ProtimeName:     rec[ReportColumns[1]],
			AgencyName:      rec[ReportColumns[2]],
			ProtimeHours:    p.nullDecimal(ReportColumns[3]),
			AgencyHours:     p.nullDecimal(ReportColumns[4]),
			ProtimeInvoice:  p.nullDecimal(ReportColumns[5]),
			AgencyInvoice:   p.nullDecimal(ReportColumns[6]),
			HoursDifference: p.decimal(ReportColumns[7]),
			MinutesDiff:     p.decimal(ReportColumns[8]),
			InvoiceDiff:     p.decimal(ReportColumns[9]),
			OverpayToAgency: p.decimal(ReportColumns[10]),
			InternalOverpay: p.decimal(ReportColumns[11]),
		}
		if p.err != nil {
			return nil, fmt.Errorf("invalid row at %s line %d: %w", path, table.Origin(i).Line, p.err)
		}
		report.Rows = append(report.Rows, row)
	}
	if !sawTotals {
		return nil, fmt.Errorf("report %s has no %q row", path, domain.TotalsWeekLabel)
	}
	report.Summary.ReportedRows = len(report.Rows)
	return report, nil
}

// reportRowParser keeps the first parse error so a row can be read field by
// field and checked once.
type reportRowParser struct {
	rec domain.RawRecord
	err error
}

func (p *reportRowParser) nullDecimal(col string) decimal.NullDecimal {
	raw := p.rec[col]
	if raw == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("column %q: %w", col, err)
		}
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d.Round(2))
}

func (p *reportRowParser) decimal(col string) decimal.Decimal {
	return p.nullDecimal(col).Decimal
}
