package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"timesheet-reconciliation/internal/domain"
	"timesheet-reconciliation/internal/logging"
)

// DefaultPartnerAgency is the Temp Agency value of protime rows billed by the agency under reconciliation.
const DefaultPartnerAgency = "OTTO"

// ColumnMapping names the source headers that feed each canonical column.
// Agency is only read by the protime cleaner.
type ColumnMapping struct {
	Week    string `mapstructure:"week"`
	Name    string `mapstructure:"name"`
	Hours   string `mapstructure:"hours"`
	Invoice string `mapstructure:"invoice"`
	Agency  string `mapstructure:"agency"`
}

// DefaultAgencyColumns matches the agency's invoice export.
var DefaultAgencyColumns = ColumnMapping{
	Week:    "Gewerkte week",
	Name:    "Naam Medewerker",
	Hours:   "Uren",
	Invoice: "Nettowaarde",
}

// DefaultProtimeColumns matches the protime timesheet export.
var DefaultProtimeColumns = ColumnMapping{
	Week:    "Week",
	Name:    "Full Name",
	Hours:   "Hours (Dec)",
	Invoice: "Invoice incl ADV",
	Agency:  "Temp Agency",
}

// SourceCleaner harmonizes the raw rows of one source into CleanedRecords.
type SourceCleaner struct {
	source        domain.Source
	columns       ColumnMapping
	partnerAgency string
}

// NewAgencyCleaner creates the cleaner for the staffing agency export.
func NewAgencyCleaner(columns ColumnMapping) *SourceCleaner {
	return &SourceCleaner{source: domain.SourceAgency, columns: columns}
}

// NewProtimeCleaner creates the cleaner for the internal time-tracking export.
// Only rows whose agency column equals partnerAgency are kept.
func NewProtimeCleaner(columns ColumnMapping, partnerAgency string) *SourceCleaner {
	return &SourceCleaner{source: domain.SourceProtime, columns: columns, partnerAgency: partnerAgency}
}

// Source reports which side this cleaner handles.
func (c *SourceCleaner) Source() domain.Source {
	return c.source
}

type cleanStats struct {
	nonNumericWeek int
	outsideWeeks   int
	otherAgency    int
	blankHours     int
	missingInvoice int
}

// Clean renames, coerces and filters the raw rows. Rows whose week is not a
// positive whole number are dropped silently. A present but unparsable Hours
// value fails the whole source with a RowError. An empty result is not an error.
func (c *SourceCleaner) Clean(ctx context.Context, table domain.RawTable, weeks *domain.WeekRange) ([]domain.CleanedRecord, error) {
	log := logging.FromContext(ctx).With().Str("source", string(c.source)).Logger()

	if err := c.checkSchema(table); err != nil {
		return nil, err
	}

	var (
		stats   cleanStats
		cleaned = make([]domain.CleanedRecord, 0, len(table.Rows))
	)
	for i, row := range table.Rows {
		week, ok := parseWeek(row[c.columns.Week])
		if !ok {
			stats.nonNumericWeek++
			continue
		}

		hours, err := parseDecimal(row[c.columns.Hours])
		switch {
		case errors.Is(err, errBlank):
			stats.blankHours++
		case err != nil:
			origin := table.Origin(i)
			return nil, &domain.RowError{
				Source: c.source,
				File:   origin.File,
				Row:    origin.Line,
				Column: c.columns.Hours,
				Value:  row[c.columns.Hours],
			}
		}

		var invoice decimal.NullDecimal
		if v, err := parseDecimal(row[c.columns.Invoice]); err == nil {
			invoice = decimal.NewNullDecimal(v.Round(2))
		}

		if weeks != nil && !weeks.Contains(week) {
			stats.outsideWeeks++
			continue
		}

		rec := domain.CleanedRecord{
			Source:  c.source,
			Week:    week,
			Name:    strings.TrimSpace(row[c.columns.Name]),
			Hours:   hours.Round(2),
			Invoice: invoice,
		}
		if c.source == domain.SourceProtime {
			rec.Agency = strings.TrimSpace(row[c.columns.Agency])
			if rec.Agency != c.partnerAgency {
				stats.otherAgency++
				continue
			}
		}
		if !invoice.Valid {
			stats.missingInvoice++
		}
		cleaned = append(cleaned, rec)
	}

	if stats.blankHours > 0 {
		log.Warn().Int("rows", stats.blankHours).Str("column", c.columns.Hours).Msg("Blank hours treated as zero")
	}
	if stats.missingInvoice > 0 {
		log.Warn().Int("rows", stats.missingInvoice).Str("column", c.columns.Invoice).Msg("Non-numeric invoice values excluded from sums")
	}
	event := log.Info().
		Int("raw_rows", len(table.Rows)).
		Int("dropped_non_numeric_week", stats.nonNumericWeek).
		Int("dropped_outside_weeks", stats.outsideWeeks).
		Int("records", len(cleaned))
	if c.source == domain.SourceProtime {
		event = event.Int("dropped_other_agency", stats.otherAgency)
	}
	if weeks != nil {
		event = event.Stringer("week_filter", weeks)
	}
	event.Msg("Cleaned source data")

	return cleaned, nil
}

func (c *SourceCleaner) checkSchema(table domain.RawTable) error {
	required := []struct{ column, header string }{
		{"Week", c.columns.Week},
		{"Name", c.columns.Name},
		{"Hours", c.columns.Hours},
		{"Invoice", c.columns.Invoice},
	}
	if c.source == domain.SourceProtime {
		required = append(required, struct{ column, header string }{"Agency", c.columns.Agency})
	}
	for _, r := range required {
		if r.header == "" || !table.HasColumn(r.header) {
			return &domain.SchemaError{Source: c.source, Column: r.column, Header: r.header}
		}
	}
	return nil
}
