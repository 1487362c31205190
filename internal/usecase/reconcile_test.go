package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet-reconciliation/internal/domain"
)

func agg(week int, key, display, hours, invoice string) domain.AggregatedRecord {
	return domain.AggregatedRecord{
		Key:         domain.NormalizedKey{Week: week, NormalizedName: key},
		DisplayName: display,
		Hours:       dec(hours),
		Invoice:     dec(invoice),
		Rows:        1,
	}
}

func threshold(minutes string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(minutes))
}

func TestReconcile_JaneDoeScenario(t *testing.T) {
	protime := []domain.AggregatedRecord{agg(10, "doe jane", "Jane Doe", "40.0", "800.00")}
	agency := []domain.AggregatedRecord{agg(10, "doe jane", "doe jane", "38.5", "770.00")}

	report, err := Reconcile(context.Background(), protime, agency, threshold("60"))
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	row := report.Rows[0]
	assert.Equal(t, 10, row.Week)
	assert.Equal(t, "Jane Doe", row.ProtimeName)
	assert.Equal(t, "doe jane", row.AgencyName)
	assertDecimal(t, "1.5", row.HoursDifference)
	assertDecimal(t, "90", row.MinutesDiff)
	assertDecimal(t, "30", row.InvoiceDiff)
	assertDecimal(t, "30", row.InternalOverpay)
	assertDecimal(t, "0", row.OverpayToAgency)

	assertDecimal(t, "1.5", report.Totals.HoursDifference)
	assertDecimal(t, "30", report.Totals.InternalOverpay)
	assert.Equal(t, 1, report.Summary.MatchedRows)

	report, err = Reconcile(context.Background(), protime, agency, threshold("120"))
	require.NoError(t, err)
	assert.Empty(t, report.Rows)
	assert.True(t, report.Totals.HoursDifference.IsZero())
	assert.True(t, report.Totals.ProtimeHours.IsZero())
	assert.True(t, report.Totals.InvoiceDiff.IsZero())
	assert.Equal(t, 1, report.Summary.JoinedRows)
}

func TestReconcile_OuterJoin(t *testing.T) {
	protime := []domain.AggregatedRecord{
		agg(1, "doe jane", "Jane Doe", "40", "800"),
		agg(2, "doe jane", "Jane Doe", "40", "800"),
	}
	agency := []domain.AggregatedRecord{
		agg(2, "doe jane", "Doe Jane", "40", "820"),
		agg(2, "lee ann", "Ann Lee", "10", "200"),
	}

	report, err := Reconcile(context.Background(), protime, agency, decimal.NullDecimal{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 3)

	onlyProtime := report.Rows[0]
	assert.Equal(t, 1, onlyProtime.Week)
	assert.True(t, onlyProtime.ProtimeHours.Valid)
	assert.False(t, onlyProtime.AgencyHours.Valid)
	assert.False(t, onlyProtime.AgencyInvoice.Valid)
	assert.Empty(t, onlyProtime.AgencyName)
	assertDecimal(t, "40", onlyProtime.HoursDifference)
	assertDecimal(t, "2400", onlyProtime.MinutesDiff)

	matched := report.Rows[1]
	assert.Equal(t, "doe jane", matched.NormalizedName)
	assertDecimal(t, "-20", matched.InvoiceDiff)
	assertDecimal(t, "20", matched.OverpayToAgency)
	assertDecimal(t, "0", matched.InternalOverpay)

	onlyAgency := report.Rows[2]
	assert.False(t, onlyAgency.ProtimeHours.Valid)
	assert.Equal(t, "Ann Lee", onlyAgency.AgencyName)
	assertDecimal(t, "-10", onlyAgency.HoursDifference)
	assertDecimal(t, "600", onlyAgency.MinutesDiff)

	assert.Equal(t, 1, report.Summary.MatchedRows)
	assert.Equal(t, 1, report.Summary.OnlyProtime)
	assert.Equal(t, 1, report.Summary.OnlyAgency)
	assert.Nil(t, report.Summary.ThresholdMinutes)
}

func TestReconcile_EveryKeyAppearsOnce(t *testing.T) {
	protime := []domain.AggregatedRecord{
		agg(1, "a a", "A A", "1", "1"),
		agg(1, "b b", "B B", "1", "1"),
		agg(3, "a a", "A A", "1", "1"),
	}
	agency := []domain.AggregatedRecord{
		agg(1, "b b", "B B", "1", "1"),
		agg(2, "c c", "C C", "1", "1"),
		agg(3, "a a", "A A", "2", "1"),
	}

	report, err := Reconcile(context.Background(), protime, agency, decimal.NullDecimal{})
	require.NoError(t, err)

	seen := map[domain.NormalizedKey]int{}
	for _, r := range report.Rows {
		seen[domain.NormalizedKey{Week: r.Week, NormalizedName: r.NormalizedName}]++
	}
	assert.Len(t, seen, 4)
	for key, n := range seen {
		assert.Equal(t, 1, n, "key %v", key)
	}
}

func TestReconcile_ThresholdIsMonotonic(t *testing.T) {
	var protime, agency []domain.AggregatedRecord
	for i, h := range []string{"40", "39.75", "39", "38", "30", "40.5"} {
		name := string(rune('a'+i)) + " x"
		protime = append(protime, agg(5, name, name, "40", "800"))
		agency = append(agency, agg(5, name, name, h, "800"))
	}

	prev := -1
	for _, minutes := range []string{"0", "10", "15", "30", "60", "120", "600", "10000"} {
		report, err := Reconcile(context.Background(), protime, agency, threshold(minutes))
		require.NoError(t, err)
		if prev >= 0 {
			assert.LessOrEqual(t, len(report.Rows), prev, "threshold %s", minutes)
		}
		prev = len(report.Rows)
	}
}

func TestReconcile_ThresholdIsStrict(t *testing.T) {
	protime := []domain.AggregatedRecord{agg(5, "x y", "X Y", "40", "800")}
	agency := []domain.AggregatedRecord{agg(5, "x y", "X Y", "39", "800")}

	report, err := Reconcile(context.Background(), protime, agency, threshold("60"))
	require.NoError(t, err)
	assert.Empty(t, report.Rows)

	report, err = Reconcile(context.Background(), protime, agency, threshold("59.99"))
	require.NoError(t, err)
	assert.Len(t, report.Rows, 1)
}

func TestReconcile_TotalsAreColumnSums(t *testing.T) {
	protime := []domain.AggregatedRecord{
		agg(1, "a a", "A A", "10.25", "205.10"),
		agg(1, "b b", "B B", "8", "160"),
		agg(2, "a a", "A A", "7.5", "150"),
	}
	agency := []domain.AggregatedRecord{
		agg(1, "a a", "A A", "10", "200"),
		agg(2, "c c", "C C", "3", "60.55"),
	}

	report, err := Reconcile(context.Background(), protime, agency, decimal.NullDecimal{})
	require.NoError(t, err)

	var want domain.TotalsRecord
	sum := decimal.Zero
	for _, r := range report.Rows {
		want.Add(r)
		sum = sum.Add(r.ProtimeHours.Decimal)
	}
	assert.Equal(t, want, report.Totals)
	assertDecimal(t, "25.75", sum)
	assertDecimal(t, "25.75", report.Totals.ProtimeHours)
	assertDecimal(t, "13", report.Totals.AgencyHours)
	assertDecimal(t, "260.55", report.Totals.AgencyInvoice)
}

func TestReconcile_NoMatch(t *testing.T) {
	var protime, agency []domain.AggregatedRecord
	for w := 1; w <= 5; w++ {
		protime = append(protime, agg(w, "doe jane", "Jane Doe", "40", "800"))
	}
	for w := 10; w <= 15; w++ {
		agency = append(agency, agg(w, "doe jane", "Jane Doe", "40", "800"))
	}

	_, err := Reconcile(context.Background(), protime, agency, decimal.NullDecimal{})
	require.ErrorIs(t, err, domain.ErrNoMatch)

	var noMatch *domain.NoMatchError
	require.True(t, errors.As(err, &noMatch))
	assert.Equal(t, &domain.WeekRange{Start: 1, End: 5}, noMatch.ProtimeWeeks)
	assert.Equal(t, &domain.WeekRange{Start: 10, End: 15}, noMatch.AgencyWeeks)
	assert.Contains(t, err.Error(), "weeks 1-5")
	assert.Contains(t, err.Error(), "weeks 10-15")
}

func TestReconcile_EmptySides(t *testing.T) {
	_, err := Reconcile(context.Background(), nil, nil, decimal.NullDecimal{})
	assert.ErrorIs(t, err, domain.ErrEmptyDataset)

	_, err = Reconcile(context.Background(), []domain.AggregatedRecord{agg(1, "a a", "A A", "1", "1")}, nil, decimal.NullDecimal{})
	assert.ErrorIs(t, err, domain.ErrNoMatch)
}
