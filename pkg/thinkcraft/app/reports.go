package app

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/report"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/store"
)

// ReportService runs report use cases.
type ReportService struct {
	repo *Repository[*report.Report]
}

// NewReportService creates the service.
func NewReportService(s store.Store, bus event.Publisher, logger *slog.Logger) *ReportService {
	return &ReportService{repo: NewRepository(s, bus, Codec[*report.Report]{
		Kind:   report.AggregateName,
		Encode: report.Encode,
		Decode: report.Decode,
	}, logger)}
}

// Create creates a report. With fromTemplate the default sections of the
// report type are added.
func (s *ReportService) Create(ctx context.Context, p report.Params, fromTemplate bool) (*report.Report, error) {
	create := report.New
	if fromTemplate {
		create = report.NewFromTemplate
	}
	r, err := create(p)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Get loads a report.
func (s *ReportService) Get(ctx context.Context, id string) (*report.Report, error) {
	return s.repo.Load(ctx, id)
}

// IDs lists stored report ids.
func (s *ReportService) IDs(ctx context.Context) ([]string, error) {
	return s.repo.IDs(ctx)
}

// UpdateTitle renames a report.
func (s *ReportService) UpdateTitle(ctx context.Context, id, title string) (*report.Report, error) {
	return s.repo.Update(ctx, id, func(r *report.Report) error { return r.UpdateTitle(title) })
}

// UpdateDescription changes a report's description.
func (s *ReportService) UpdateDescription(ctx context.Context, id, description string) (*report.Report, error) {
	return s.repo.Update(ctx, id, func(r *report.Report) error { return r.UpdateDescription(description) })
}

// AddSection adds a section and returns it.
func (s *ReportService) AddSection(ctx context.Context, id string, in report.SectionInput) (report.Section, error) {
	var added report.Section
	_, err := s.repo.Update(ctx, id, func(r *report.Report) error {
		var err error
		added, err = r.AddSection(in)
		return err
	})
	return added, err
}

// UpdateSection edits a section and returns the result.
func (s *ReportService) UpdateSection(ctx context.Context, id, sectionID string, patch report.SectionPatch) (report.Section, error) {
	var updated report.Section
	_, err := s.repo.Update(ctx, id, func(r *report.Report) error {
		var err error
		updated, err = r.UpdateSection(sectionID, patch)
		return err
	})
	return updated, err
}

// RemoveSection deletes a section.
func (s *ReportService) RemoveSection(ctx context.Context, id, sectionID string) (*report.Report, error) {
	return s.repo.Update(ctx, id, func(r *report.Report) error { return r.RemoveSection(sectionID) })
}

// MoveSection moves a section to index.
func (s *ReportService) MoveSection(ctx context.Context, id, sectionID string, index int) (*report.Report, error) {
	return s.repo.Update(ctx, id, func(r *report.Report) error { return r.MoveSection(sectionID, index) })
}

// ChangeStatus moves a report to the named status.
func (s *ReportService) ChangeStatus(ctx context.Context, id, status string) (*report.Report, error) {
	next, err := report.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, func(r *report.Report) error { return r.ChangeStatus(next) })
}

// Generate marks a report as generated.
func (s *ReportService) Generate(ctx context.Context, id, generatedBy string) (*report.Report, error) {
	return s.repo.Update(ctx, id, func(r *report.Report) error { return r.Generate(generatedBy) })
}

// Archive archives a report.
func (s *ReportService) Archive(ctx context.Context, id string) (*report.Report, error) {
	return s.repo.Update(ctx, id, func(r *report.Report) error { return r.Archive() })
}
