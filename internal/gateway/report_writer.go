package gateway

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"timesheet-reconciliation/internal/domain"
	"timesheet-reconciliation/internal/logging"
	"timesheet-reconciliation/internal/usecase"
)

// ReportSheet is the worksheet name used in XLSX reports.
const ReportSheet = "Differences"

// Report formats accepted by NewReportWriter.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// NewReportWriter returns the writer for the given format.
func NewReportWriter(format string) (usecase.ReportWriter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatXLSX:
		return NewXLSXReportWriter(), nil
	case FormatCSV:
		return NewCSVReportWriter(), nil
	default:
		return nil, domain.NewValidationError("format", format, "must be xlsx or csv")
	}
}

// XLSXReportWriter writes reports as Excel workbooks.
type XLSXReportWriter struct{}

// NewXLSXReportWriter creates a new writer instance.
func NewXLSXReportWriter() *XLSXReportWriter {
	return &XLSXReportWriter{}
}

// Extension implements usecase.ReportWriter.
func (w *XLSXReportWriter) Extension() string { return ".xlsx" }

// WriteReport writes the header, the data rows and the totals row to a single
// sheet. Null values are left as empty cells.
func (w *XLSXReportWriter) WriteReport(ctx context.Context, path string, report *domain.ReportTable) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", ReportSheet); err != nil {
		return fmt.Errorf("failed to name report sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	numberStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("failed to create number style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create totals style: %w", err)
	}

	sw, err := f.NewStreamWriter(ReportSheet)
	if err != nil {
		return fmt.Errorf("failed to open report sheet: %w", err)
	}
	if err := sw.SetColWidth(1, len(ReportColumns), 20); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	header := make([]interface{}, len(ReportColumns))
	for i, name := range ReportColumns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: name}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	row := 2
	for _, r := range report.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeXLSXRow(sw, row, diffCells(r), numberStyle); err != nil {
			return err
		}
		row++
	}
	if err := writeXLSXRow(sw, row, totalsCells(report.Totals), totalStyle); err != nil {
		return err
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush report sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report %s: %w", path, err)
	}
	logging.FromContext(ctx).Debug().Str("path", path).Int("rows", len(report.Rows)).Msg("Wrote XLSX report")
	return nil
}

func writeXLSXRow(sw *excelize.StreamWriter, row int, cells []reportCell, style int) error {
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		switch {
		case i == 0:
			if week, err := strconv.Atoi(c.Text); err == nil {
				values[i] = week
			} else {
				values[i] = c.Text
			}
		case i < firstNumericColumn:
			values[i] = c.Text
		case c.Null:
			values[i] = nil
		default:
			values[i] = excelize.Cell{StyleID: style, Value: c.Value.InexactFloat64()}
		}
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := sw.SetRow(cell, values); err != nil {
		return fmt.Errorf("failed to write report row %d: %w", row, err)
	}
	return nil
}

// CSVReportWriter writes reports as comma separated text.
type CSVReportWriter struct{}

// NewCSVReportWriter creates a new writer instance.
func NewCSVReportWriter() *CSVReportWriter {
	return &CSVReportWriter{}
}

// Extension implements usecase.ReportWriter.
func (w *CSVReportWriter) Extension() string { return ".csv" }

// WriteReport writes the header, data rows and totals row with decimals fixed
// to two places.
func (w *CSVReportWriter) WriteReport(ctx context.Context, path string, report *domain.ReportTable) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(ReportColumns); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	if err := writer.WriteAll(ReportRecords(report)); err != nil {
		return fmt.Errorf("failed to write report rows: %w", err)
	}
	logging.FromContext(ctx).Debug().Str("path", path).Int("rows", len(report.Rows)).Msg("Wrote CSV report")
	return file.Close()
}
