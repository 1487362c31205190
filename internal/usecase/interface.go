package usecase

import (
	"context"

	"timesheet-reconciliation/internal/domain"
)

// SourceRepository loads every matching file of one source directory as a
// single concatenated table. The usecase layer depends on this interface,
// not on a concrete implementation.
//
//go:generate mockgen -destination=mocks/mock_repository.go -source=interface.go
type SourceRepository interface {
	LoadSource(ctx context.Context, source domain.Source, dir string) (domain.RawTable, error)
}

// ReportWriter persists a finished report.
type ReportWriter interface {
	// Extension is the file extension, dot included, of written reports.
	Extension() string
	WriteReport(ctx context.Context, path string, report *domain.ReportTable) error
}
