package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"timesheet-reconciliation/internal/domain"
	"timesheet-reconciliation/internal/logging"
)

// ReportsDir is created inside the output directory to hold generated reports.
const ReportsDir = "Reports"

// ReconciliationUseCase orchestrates loading, cleaning, aggregation,
// reconciliation and writing for one run.
type ReconciliationUseCase struct {
	repo       SourceRepository
	writer     ReportWriter
	protime    *SourceCleaner
	agency     *SourceCleaner
	normalizer *NameNormalizer
	now        func() time.Time
}

// Option customizes a ReconciliationUseCase.
type Option func(*ReconciliationUseCase)

// WithCleaners replaces the default cleaners.
func WithCleaners(protime, agency *SourceCleaner) Option {
	return func(uc *ReconciliationUseCase) {
		uc.protime = protime
		uc.agency = agency
	}
}

// WithNormalizer replaces the default name normalizer.
func WithNormalizer(n *NameNormalizer) Option {
	return func(uc *ReconciliationUseCase) { uc.normalizer = n }
}

// WithClock sets the clock used to timestamp report files.
func WithClock(now func() time.Time) Option {
	return func(uc *ReconciliationUseCase) { uc.now = now }
}

// NewReconciliationUseCase creates a new instance of the usecase.
func NewReconciliationUseCase(repo SourceRepository, writer ReportWriter, opts ...Option) *ReconciliationUseCase {
	uc := &ReconciliationUseCase{
		repo:       repo,
		writer:     writer,
		protime:    NewProtimeCleaner(DefaultProtimeColumns, DefaultPartnerAgency),
		agency:     NewAgencyCleaner(DefaultAgencyColumns),
		normalizer: NewNameNormalizer(false),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Run performs one reconciliation with the given parameters. Errors from any
// stage are returned unmodified so callers can match them with errors.As.
func (uc *ReconciliationUseCase) Run(ctx context.Context, params domain.RunParams) (*domain.RunResult, error) {
	log := logging.FromContext(ctx)

	report, err := uc.Build(ctx, params)
	if err != nil {
		return nil, err
	}

	generatedAt := uc.now()
	path := ReportPath(params.OutputDir, generatedAt, uc.writer.Extension())
	if err := uc.writer.WriteReport(ctx, path, report); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to write report")
		return nil, err
	}
	log.Info().Str("path", path).Int("rows", len(report.Rows)).Msg("Report saved")

	return &domain.RunResult{Report: report, OutputPath: path, GeneratedAt: generatedAt}, nil
}

// Build runs every stage except writing and returns the report table.
func (uc *ReconciliationUseCase) Build(ctx context.Context, params domain.RunParams) (*domain.ReportTable, error) {
	log := logging.FromContext(ctx)

	// Step 1: Load both sources
	protimeRaw, err := uc.load(ctx, log, domain.SourceProtime, params.ProtimeDir)
	if err != nil {
		return nil, err
	}
	agencyRaw, err := uc.load(ctx, log, domain.SourceAgency, params.AgencyDir)
	if err != nil {
		return nil, err
	}

	// Step 2: Clean
	protimeRows, err := uc.protime.Clean(ctx, protimeRaw, params.Weeks)
	if err != nil {
		log.Error().Err(err).Str("source", string(domain.SourceProtime)).Msg("Failed to clean source data")
		return nil, err
	}
	agencyRows, err := uc.agency.Clean(ctx, agencyRaw, params.Weeks)
	if err != nil {
		log.Error().Err(err).Str("source", string(domain.SourceAgency)).Msg("Failed to clean source data")
		return nil, err
	}
	if len(protimeRows) == 0 && len(agencyRows) == 0 {
		err := &domain.EmptyDatasetError{Weeks: params.Weeks}
		log.Error().Err(err).Msg("Nothing to reconcile")
		return nil, err
	}

	// Step 3: Aggregate
	protimeAgg := Aggregate(protimeRows, uc.normalizer)
	agencyAgg := Aggregate(agencyRows, uc.normalizer)
	log.Debug().
		Int("protime_groups", len(protimeAgg)).
		Int("agency_groups", len(agencyAgg)).
		Msg("Aggregated by week and name")

	// Step 4: Reconcile
	report, err := Reconcile(ctx, protimeAgg, agencyAgg, params.Threshold)
	if err != nil {
		log.Error().Err(err).Msg("Reconciliation failed")
		return nil, err
	}
	report.Summary.WeekFilter = params.Weeks
	return report, nil
}

func (uc *ReconciliationUseCase) load(ctx context.Context, log *zerolog.Logger, source domain.Source, dir string) (domain.RawTable, error) {
	table, err := uc.repo.LoadSource(ctx, source, dir)
	if err != nil {
		log.Error().Err(err).Str("source", string(source)).Str("path", dir).Msg("Failed to load source data")
		return domain.RawTable{}, err
	}
	log.Info().
		Str("source", string(source)).
		Int("files", len(table.Files)).
		Int("rows", len(table.Rows)).
		Msg("Loaded source data")
	return table, nil
}

// ReportPath returns <outputDir>/Reports/diff_report_<YYYYMMDD_HHMMSS><ext>.
func ReportPath(outputDir string, at time.Time, ext string) string {
	name := fmt.Sprintf("diff_report_%s%s", at.Format("20060102_150405"), ext)
	return filepath.Join(outputDir, ReportsDir, name)
}
