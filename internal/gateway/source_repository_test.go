package gateway

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"timesheet-reconciliation/internal/domain"
)

func TestReadTable_CSV(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantColumns []string
		wantRows    []domain.RawRecord
		wantLines   []int
	}{
		{
			name:        "comma separated",
			content:     "Gewerkte week,Naam Medewerker,Uren,Nettowaarde\n10,Jane Doe,38.5,770\n11,John Roe,8,160\n",
			wantColumns: []string{"Gewerkte week", "Naam Medewerker", "Uren", "Nettowaarde"},
			wantRows: []domain.RawRecord{
				{"Gewerkte week": "10", "Naam Medewerker": "Jane Doe", "Uren": "38.5", "Nettowaarde": "770"},
				{"Gewerkte week": "11", "Naam Medewerker": "John Roe", "Uren": "8", "Nettowaarde": "160"},
			},
			wantLines: []int{2, 3},
		},
		{
			name:        "semicolon separated with decimal comma",
			content:     "Week;Full Name;Hours (Dec)\n10;\"Doe, Jane\";38,5\n",
			wantColumns: []string{"Week", "Full Name", "Hours (Dec)"},
			wantRows: []domain.RawRecord{
				{"Week": "10", "Full Name": "Doe, Jane", "Hours (Dec)": "38,5"},
			},
			wantLines: []int{2},
		},
		{
			name:        "byte order mark, padding and blank rows",
			content:     "\ufeff Week , Name \n\n 3 , Ann Lee \n,\n4,Bob\n",
			wantColumns: []string{"Week", "Name"},
			wantRows: []domain.RawRecord{
				{"Week": "3", "Name": "Ann Lee"},
				{"Week": "4", "Name": "Bob"},
			},
			wantLines: []int{3, 5},
		},
		{
			name:        "duplicate headers and ragged rows",
			content:     "Week,Name,Name\n1,A\n2,B,C,extra\n",
			wantColumns: []string{"Week", "Name", "Name.1"},
			wantRows: []domain.RawRecord{
				{"Week": "1", "Name": "A"},
				{"Week": "2", "Name": "B", "Name.1": "C"},
			},
			wantLines: []int{2, 3},
		},
		{
			name:        "empty file",
			content:     "",
			wantColumns: nil,
			wantRows:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "export.csv", tt.content)

			got, err := ReadTable(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantColumns, got.Columns)
			assert.Equal(t, tt.wantRows, got.Rows)
			assert.Equal(t, []string{path}, got.Files)
			for i, line := range tt.wantLines {
				assert.Equal(t, domain.RowOrigin{File: "export.csv", Line: line}, got.Origin(i))
			}
		})
	}
}

func TestReadTable_XLSX(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkbook(t, dir, "protime.xlsx", [][]interface{}{
		{"Week", "Temp Agency", "Full Name", "Hours (Dec)", "Invoice incl ADV"},
		{10, "OTTO", "Jane Doe", 24.5, 480.25},
		{10, "OTTO", "John Roe", 8, nil},
	})

	got, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Week", "Temp Agency", "Full Name", "Hours (Dec)", "Invoice incl ADV"}, got.Columns)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "10", got.Rows[0]["Week"])
	assert.Equal(t, "24.5", got.Rows[0]["Hours (Dec)"])
	assert.Equal(t, "480.25", got.Rows[0]["Invoice incl ADV"])
	assert.Equal(t, "", got.Rows[1]["Invoice incl ADV"])
	assert.Equal(t, domain.RowOrigin{File: "protime.xlsx", Line: 3}, got.Origin(1))
}

func TestReadTable_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadTable(writeFile(t, dir, "notes.txt", "hello"))
	assert.ErrorContains(t, err, "unsupported file type")

	_, err = ReadTable(writeFile(t, dir, "broken.xlsx", "not a zip archive"))
	assert.ErrorContains(t, err, "failed to open workbook")

	_, err = ReadTable(filepath.Join(dir, "missing.csv"))
	assert.ErrorContains(t, err, "failed to open file")
}

func TestFileSourceRepository_LoadSource(t *testing.T) {
	ctx := context.Background()

	t.Run("missing directory", func(t *testing.T) {
		repo := NewFileSourceRepository()
		_, err := repo.LoadSource(ctx, domain.SourceProtime, filepath.Join(t.TempDir(), "nope"))
		require.ErrorIs(t, err, domain.ErrPath)
		assert.Contains(t, err.Error(), "protime")
	})

	t.Run("path is a file", func(t *testing.T) {
		repo := NewFileSourceRepository()
		file := writeFile(t, t.TempDir(), "a.csv", "Week\n1\n")
		_, err := repo.LoadSource(ctx, domain.SourceAgency, file)
		assert.ErrorIs(t, err, domain.ErrPath)
	})

	t.Run("no matching files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "readme.txt", "nothing here")
		writeFile(t, dir, "~$locked.xlsx", "lock")
		require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755))

		repo := NewFileSourceRepository()
		_, err := repo.LoadSource(ctx, domain.SourceAgency, dir)
		require.ErrorIs(t, err, domain.ErrNoFiles)
		assert.Contains(t, err.Error(), ".xlsx")
	})

	t.Run("concatenates files in name order", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "b_week11.csv", "Week,Name,Extra\n11,Jane Doe,x\n")
		writeWorkbook(t, dir, "a_week10.xlsx", [][]interface{}{
			{"Week", "Name"},
			{10, "Jane Doe"},
			{10, "John Roe"},
		})
		writeFile(t, dir, "c_week12.CSV", "Week;Name\n12;Ann Lee\n")
		writeFile(t, dir, "~$a_week10.xlsx", "lock")

		repo := NewFileSourceRepository(WithConcurrency(2))
		got, err := repo.LoadSource(ctx, domain.SourceAgency, dir)
		require.NoError(t, err)

		assert.Equal(t, []string{"Week", "Name", "Extra"}, got.Columns)
		require.Len(t, got.Rows, 4)
		var weeks []string
		for _, r := range got.Rows {
			weeks = append(weeks, r["Week"])
		}
		assert.Equal(t, []string{"10", "10", "11", "12"}, weeks)
		require.Len(t, got.Files, 3)
		assert.Equal(t, "a_week10.xlsx", filepath.Base(got.Files[0]))
		assert.Equal(t, domain.RowOrigin{File: "b_week11.csv", Line: 2}, got.Origin(2))
	})

	t.Run("extension filter", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.csv", "Week\n1\n")
		writeWorkbook(t, dir, "b.xlsx", [][]interface{}{{"Week"}, {2}})

		repo := NewFileSourceRepository(WithExtensions("CSV"))
		got, err := repo.LoadSource(ctx, domain.SourceProtime, dir)
		require.NoError(t, err)
		require.Len(t, got.Rows, 1)
		assert.Equal(t, "1", got.Rows[0]["Week"])
	})

	t.Run("unreadable file fails the source", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.csv", "Week\n1\n")
		writeFile(t, dir, "b.xlsx", "corrupt")

		repo := NewFileSourceRepository()
		_, err := repo.LoadSource(ctx, domain.SourceProtime, dir)
		assert.ErrorContains(t, err, "b.xlsx")
	})

	t.Run("cancelled context", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.csv", "Week\n1\n")
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		repo := NewFileSourceRepository()
		_, err := repo.LoadSource(cctx, domain.SourceProtime, dir)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// Helper functions

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeWorkbook(t *testing.T, dir, name string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := append([]interface{}(nil), row...)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}
	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}
