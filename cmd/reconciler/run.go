package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"timesheet-reconciliation/internal/domain"
	"timesheet-reconciliation/internal/gateway"
	"timesheet-reconciliation/internal/logging"
	"timesheet-reconciliation/internal/runner"
	"timesheet-reconciliation/internal/usecase"
)

// progressInterval is how often a still-running reconciliation is logged.
var progressInterval = 2 * time.Second

func newRunCmd(a *app) *cobra.Command {
	var showRows bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile one Protime folder against one agency folder",
		Example: `  reconciler run --protime ./protime --agency ./otto --threshold 15
  reconciler run --protime ./protime --agency ./otto --start-week 10 --end-week 14 --format csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, showRows)
		},
	}

	flags := cmd.Flags()
	flags.String("protime", "", "folder with Protime timesheet exports (required)")
	flags.String("agency", "", "folder with agency invoice exports (required)")
	flags.String("output", ".", "folder in which the Reports directory is created")
	flags.String("threshold", "", "only report differences above this many minutes (blank reports all)")
	flags.String("start-week", "", "first week to include")
	flags.String("end-week", "", "last week to include")
	flags.String("format", gateway.FormatXLSX, "report format: xlsx or csv")
	flags.String("partner-agency", usecase.DefaultPartnerAgency, "Protime agency value of the agency being reconciled")
	flags.StringSlice("extensions", gateway.DefaultExtensions, "file extensions read from each folder")
	flags.Int("concurrency", gateway.DefaultConcurrency, "files read in parallel per folder")
	flags.Bool("keep-hyphens", false, "treat hyphenated name parts as one token")
	flags.BoolVar(&showRows, "rows", false, "print every reported row, not only the summary")

	for key, flag := range map[string]string{
		"protime":            "protime",
		"agency":             "agency",
		"output":             "output",
		"threshold":          "threshold",
		"start_week":         "start-week",
		"end_week":           "end-week",
		"format":             "format",
		"partner_agency":     "partner-agency",
		"extensions":         "extensions",
		"concurrency":        "concurrency",
		"names.keep_hyphens": "keep-hyphens",
	} {
		mustBind(a.v, key, flags.Lookup(flag))
	}
	return cmd
}

func (a *app) run(cmd *cobra.Command, showRows bool) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)
	s := a.settings

	params, err := s.RunParams()
	if err != nil {
		return err
	}
	writer, err := gateway.NewReportWriter(s.Format)
	if err != nil {
		return err
	}

	repo := gateway.NewFileSourceRepository(
		gateway.WithExtensions(s.Extensions...),
		gateway.WithConcurrency(s.Concurrency),
	)
	uc := usecase.NewReconciliationUseCase(repo, writer,
		usecase.WithCleaners(
			usecase.NewProtimeCleaner(s.Columns.Protime, s.PartnerAgency),
			usecase.NewAgencyCleaner(s.Columns.Agency),
		),
		usecase.WithNormalizer(usecase.NewNameNormalizer(s.Names.KeepHyphens)),
	)

	outcome, err := waitForRun(ctx, runner.New(uc), params)
	if err != nil {
		return err
	}
	if outcome.Err != nil {
		return outcome.Err
	}

	log.Info().
		Str("run_id", outcome.RunID).
		Str("report", outcome.Result.OutputPath).
		Dur("duration", outcome.Duration).
		Msg("Report ready")
	return printResult(cmd.OutOrStdout(), outcome.Result, showRows)
}

// waitForRun starts the run and logs progress until its outcome arrives.
func waitForRun(ctx context.Context, r *runner.Runner, params domain.RunParams) (runner.Outcome, error) {
	log := logging.FromContext(ctx)

	runID, done, err := r.Start(ctx, params)
	if err != nil {
		return runner.Outcome{}, err
	}

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	started := time.Now()
	for {
		select {
		case outcome := <-done:
			return outcome, nil
		case <-ticker.C:
			log.Info().Str("run_id", runID).Dur("elapsed", time.Since(started)).Msg("Still reconciling")
		}
	}
}
