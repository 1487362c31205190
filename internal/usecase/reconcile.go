package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"timesheet-reconciliation/internal/domain"
	"timesheet-reconciliation/internal/logging"
)

var minutesPerHour = decimal.NewFromInt(60)

// Reconcile full-outer-joins the two aggregates on (week, normalized name),
// computes the difference columns, keeps rows whose minute difference is
// strictly above threshold (all rows when threshold is unset or not positive)
// and appends column totals of the kept rows. Both inputs must be sorted by
// key, as Aggregate returns them.
//
// Disjoint week spans fail with NoMatchError so a mismatch between the
// exports is never mistaken for a clean report.
func Reconcile(ctx context.Context, protime, agency []domain.AggregatedRecord, threshold decimal.NullDecimal) (*domain.ReportTable, error) {
	log := logging.FromContext(ctx)

	protimeWeeks, agencyWeeks := weekSpan(protime), weekSpan(agency)
	if protimeWeeks == nil && agencyWeeks == nil {
		return nil, &domain.EmptyDatasetError{}
	}
	if protimeWeeks == nil || agencyWeeks == nil || !protimeWeeks.Overlaps(*agencyWeeks) {
		return nil, &domain.NoMatchError{ProtimeWeeks: protimeWeeks, AgencyWeeks: agencyWeeks}
	}

	joined := outerJoin(protime, agency)

	report := &domain.ReportTable{
		Rows: make([]domain.DiffRecord, 0, len(joined)),
		Summary: domain.Summary{
			ProtimeRows:  len(protime),
			AgencyRows:   len(agency),
			ProtimeWeeks: protimeWeeks,
			AgencyWeeks:  agencyWeeks,
			JoinedRows:   len(joined),
		},
	}
	filter := threshold.Valid && threshold.Decimal.IsPositive()
	if filter {
		t := threshold.Decimal
		report.Summary.ThresholdMinutes = &t
	}

	for _, pair := range joined {
		switch {
		case pair.protime != nil && pair.agency != nil:
			report.Summary.MatchedRows++
		case pair.protime != nil:
			report.Summary.OnlyProtime++
		default:
			report.Summary.OnlyAgency++
		}
		for _, side := range []*domain.AggregatedRecord{pair.protime, pair.agency} {
			if side == nil {
				continue
			}
			report.Summary.MissingInvoices += side.MissingInvoices
			if len(side.AmbiguousNames) > 0 {
				log.Warn().
					Int("week", side.Key.Week).
					Str("display_name", side.DisplayName).
					Strs("also_seen_as", side.AmbiguousNames).
					Msg("Several names share one match key; reporting the first")
			}
		}

		row := diff(pair)
		if filter && !row.MinutesDiff.GreaterThan(threshold.Decimal) {
			continue
		}
		report.Rows = append(report.Rows, row)
		report.Totals.Add(row)
	}
	report.Summary.ReportedRows = len(report.Rows)

	log.Info().
		Int("joined_rows", report.Summary.JoinedRows).
		Int("matched", report.Summary.MatchedRows).
		Int("only_protime", report.Summary.OnlyProtime).
		Int("only_agency", report.Summary.OnlyAgency).
		Int("reported_rows", report.Summary.ReportedRows).
		Msg("Reconciled aggregates")

	return report, nil
}

type joinedPair struct {
	key     domain.NormalizedKey
	protime *domain.AggregatedRecord
	agency  *domain.AggregatedRecord
}

// outerJoin merges two key-sorted aggregates into one key-sorted slice with
// exactly one entry per key present on either side.
func outerJoin(protime, agency []domain.AggregatedRecord) []joinedPair {
	out := make([]joinedPair, 0, len(protime)+len(agency))
	i, j := 0, 0
	for i < len(protime) || j < len(agency) {
		switch {
		case j >= len(agency) || (i < len(protime) && protime[i].Key.Less(agency[j].Key)):
			out = append(out, joinedPair{key: protime[i].Key, protime: &protime[i]})
			i++
		case i >= len(protime) || agency[j].Key.Less(protime[i].Key):
			out = append(out, joinedPair{key: agency[j].Key, agency: &agency[j]})
			j++
		default:
			out = append(out, joinedPair{key: protime[i].Key, protime: &protime[i], agency: &agency[j]})
			i++
			j++
		}
	}
	return out
}

// diff computes the difference columns. An absent side counts as zero in the
// arithmetic but stays null in its own columns.
func diff(pair joinedPair) domain.DiffRecord {
	row := domain.DiffRecord{
		Week:           pair.key.Week,
		NormalizedName: pair.key.NormalizedName,
	}
	if p := pair.protime; p != nil {
		row.ProtimeName = p.DisplayName
		row.ProtimeHours = decimal.NewNullDecimal(p.Hours)
		row.ProtimeInvoice = decimal.NewNullDecimal(p.Invoice)
	}
	if a := pair.agency; a != nil {
		row.AgencyName = a.DisplayName
		row.AgencyHours = decimal.NewNullDecimal(a.Hours)
		row.AgencyInvoice = decimal.NewNullDecimal(a.Invoice)
	}

	row.HoursDifference = row.ProtimeHours.Decimal.Sub(row.AgencyHours.Decimal)
	row.MinutesDiff = row.HoursDifference.Abs().Mul(minutesPerHour)
	row.InvoiceDiff = row.ProtimeInvoice.Decimal.Sub(row.AgencyInvoice.Decimal)
	row.OverpayToAgency = decimal.Max(decimal.Zero, row.InvoiceDiff.Neg())
	row.InternalOverpay = decimal.Max(decimal.Zero, row.InvoiceDiff)
	return row
}
