package usecase

import (
	"sort"

	"timesheet-reconciliation/internal/domain"
)

// Aggregate groups rows by (week, normalized name) and sums hours and invoices.
// Rows whose name normalizes to "" are excluded. Sums do not depend on input
// order; the display name of each group is the first one seen. Output is
// sorted by key.
func Aggregate(rows []domain.CleanedRecord, normalizer *NameNormalizer) []domain.AggregatedRecord {
	groups := make(map[domain.NormalizedKey]*domain.AggregatedRecord)
	for _, row := range rows {
		key := domain.NormalizedKey{Week: row.Week, NormalizedName: normalizer.Normalize(row.Name)}
		if key.NormalizedName == "" {
			continue
		}

		agg, ok := groups[key]
		if !ok {
			agg = &domain.AggregatedRecord{Key: key, DisplayName: row.Name}
			groups[key] = agg
		} else if row.Name != agg.DisplayName && !contains(agg.AmbiguousNames, row.Name) {
			agg.AmbiguousNames = append(agg.AmbiguousNames, row.Name)
		}

		agg.Rows++
		agg.Hours = agg.Hours.Add(row.Hours)
		if row.Invoice.Valid {
			agg.Invoice = agg.Invoice.Add(row.Invoice.Decimal)
		} else {
			agg.MissingInvoices++
		}
	}

	out := make([]domain.AggregatedRecord, 0, len(groups))
	for _, agg := range groups {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}

// weekSpan returns the smallest range covering every aggregated week, or nil for no rows.
func weekSpan(rows []domain.AggregatedRecord) *domain.WeekRange {
	if len(rows) == 0 {
		return nil
	}
	span := domain.WeekRange{Start: rows[0].Key.Week, End: rows[0].Key.Week}
	for _, r := range rows[1:] {
		if r.Key.Week < span.Start {
			span.Start = r.Key.Week
		}
		if r.Key.Week > span.End {
			span.End = r.Key.Week
		}
	}
	return &span
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
