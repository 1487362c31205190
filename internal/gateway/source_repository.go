package gateway

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"timesheet-reconciliation/internal/domain"
	"timesheet-reconciliation/internal/logging"
)

// DefaultExtensions are the file types picked up from a source directory.
var DefaultExtensions = []string{".xlsx", ".csv"}

// DefaultConcurrency bounds how many files of one source are read at once.
const DefaultConcurrency = 4

// FileSourceRepository implements usecase.SourceRepository for a directory of
// spreadsheet exports.
type FileSourceRepository struct {
	extensions  []string
	concurrency int
}

// RepositoryOption customizes a FileSourceRepository.
type RepositoryOption func(*FileSourceRepository)

// WithExtensions limits the files read to the given extensions.
func WithExtensions(exts ...string) RepositoryOption {
	return func(r *FileSourceRepository) {
		r.extensions = r.extensions[:0]
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			r.extensions = append(r.extensions, ext)
		}
	}
}

// WithConcurrency sets how many files are read in parallel.
func WithConcurrency(n int) RepositoryOption {
	return func(r *FileSourceRepository) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewFileSourceRepository creates a new repository instance.
func NewFileSourceRepository(opts ...RepositoryOption) *FileSourceRepository {
	r := &FileSourceRepository{
		extensions:  append([]string(nil), DefaultExtensions...),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadSource reads every matching file in dir and concatenates the rows in
// file name order. Files are read in parallel; the merge order is fixed so
// the first display name seen for a person does not depend on scheduling.
func (r *FileSourceRepository) LoadSource(ctx context.Context, source domain.Source, dir string) (domain.RawTable, error) {
	log := logging.FromContext(ctx).With().Str("source", string(source)).Str("path", dir).Logger()

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.RawTable{}, &domain.PathError{Source: source, Path: dir, Err: err}
		}
		return domain.RawTable{}, fmt.Errorf("failed to stat %s directory %s: %w", source, dir, err)
	}
	if !info.IsDir() {
		return domain.RawTable{}, &domain.PathError{Source: source, Path: dir, Err: fmt.Errorf("%s is not a directory", dir)}
	}

	files, err := r.matchingFiles(dir)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to list %s directory %s: %w", source, dir, err)
	}
	if len(files) == 0 {
		return domain.RawTable{}, &domain.NoFilesError{Source: source, Path: dir, Extensions: r.extensions}
	}

	tables := make([]domain.RawTable, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table, err := ReadTable(path)
			if err != nil {
				return err
			}
			tables[i] = table
			log.Debug().Str("file", filepath.Base(path)).Int("rows", len(table.Rows)).Msg("Read file")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.RawTable{}, err
	}

	var out domain.RawTable
	for _, t := range tables {
		out.Append(t)
	}
	return out, nil
}

// matchingFiles lists regular files with an accepted extension, sorted by
// name. Office lock files ("~$report.xlsx") are skipped.
func (r *FileSourceRepository) matchingFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		if r.accepts(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (r *FileSourceRepository) accepts(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range r.extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// ReadTable reads one file into a RawTable, choosing the reader by extension.
func ReadTable(path string) (domain.RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	case ".csv":
		return readCSV(path)
	default:
		return domain.RawTable{}, fmt.Errorf("unsupported file type: %s", path)
	}
}

// buildTable turns a header row plus data rows into a RawTable. Duplicate
// headers get a ".1", ".2" suffix; blank rows are skipped. lines holds the
// 1-based file line of each row; when nil the row index is used.
func buildTable(path string, rows [][]string, lines []int) domain.RawTable {
	table := domain.RawTable{Files: []string{path}}
	if len(rows) == 0 {
		return table
	}

	header := make([]string, len(rows[0]))
	seen := make(map[string]int)
	for i, h := range rows[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			continue
		}
		if n := seen[h]; n > 0 {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n)
		} else {
			seen[h] = 1
		}
		header[i] = h
		table.Columns = append(table.Columns, h)
	}

	file := filepath.Base(path)
	for i, row := range rows[1:] {
		rec := make(domain.RawRecord, len(table.Columns))
		blank := true
		for col, cell := range row {
			if col >= len(header) || header[col] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				blank = false
			}
			rec[header[col]] = cell
		}
		if blank {
			continue
		}
		table.Rows = append(table.Rows, rec)
		line := i + 2
		if i+1 < len(lines) {
			line = lines[i+1]
		}
		table.Origins = append(table.Origins, domain.RowOrigin{File: file, Line: line})
	}
	return table
}
