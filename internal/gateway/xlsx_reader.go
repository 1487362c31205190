package gateway

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"timesheet-reconciliation/internal/domain"
)

// readXLSX reads the first worksheet of a workbook into a RawTable. Cells
// are read without number formatting so "38.5" never comes back as "38,50".
func readXLSX(path string) (domain.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.RawTable{}, fmt.Errorf("workbook %s has no worksheets", path)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to read sheet %q from %s: %w", sheets[0], path, err)
	}
	return buildTable(path, rows, nil), nil
}
