package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"timesheet-reconciliation/internal/domain"
	"timesheet-reconciliation/internal/gateway"
)

// printResult writes the run summary and, when rows is set, the report rows.
func printResult(w io.Writer, result *domain.RunResult, rows bool) error {
	report := result.Report
	if _, err := fmt.Fprintf(w, "Report saved to %s\n\n", result.OutputPath); err != nil {
		return err
	}

	if err := renderTable(w, []string{"Summary", "Value"}, summaryRows(report.Summary)); err != nil {
		return err
	}
	if !rows {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return renderTable(w, gateway.ReportColumns, gateway.ReportRecords(report))
}

func summaryRows(s domain.Summary) [][]string {
	threshold := "none"
	if s.ThresholdMinutes != nil {
		threshold = s.ThresholdMinutes.String() + " min"
	}
	weekFilter := "all"
	if s.WeekFilter != nil {
		weekFilter = s.WeekFilter.String()
	}
	return [][]string{
		{"Protime weeks", describeWeeks(s.ProtimeWeeks)},
		{"Agency weeks", describeWeeks(s.AgencyWeeks)},
		{"Week filter", weekFilter},
		{"Threshold", threshold},
		{"Protime groups", strconv.Itoa(s.ProtimeRows)},
		{"Agency groups", strconv.Itoa(s.AgencyRows)},
		{"Matched", strconv.Itoa(s.MatchedRows)},
		{"Only in Protime", strconv.Itoa(s.OnlyProtime)},
		{"Only at agency", strconv.Itoa(s.OnlyAgency)},
		{"Missing invoices", strconv.Itoa(s.MissingInvoices)},
		{"Reported rows", strconv.Itoa(s.ReportedRows)},
	}
}

func describeWeeks(r *domain.WeekRange) string {
	if r == nil {
		return "-"
	}
	return r.String()
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewTable(w)

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	table.Header(header...)

	for _, row := range rows {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}
