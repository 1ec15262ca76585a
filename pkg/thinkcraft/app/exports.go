package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/domain"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/pdfexport"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/store"
)

// Artifact is a rendered export file.
type Artifact struct {
	URL       string
	Size      int64
	PageCount int
}

// Renderer produces the file of an export. Rendering itself lives outside
// this module.
type Renderer interface {
	Render(ctx context.Context, x *pdfexport.Export) (Artifact, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, x *pdfexport.Export) (Artifact, error)

// Render implements Renderer.
func (f RendererFunc) Render(ctx context.Context, x *pdfexport.Export) (Artifact, error) {
	return f(ctx, x)
}

// ExportService runs export use cases.
type ExportService struct {
	repo *Repository[*pdfexport.Export]
}

// NewExportService creates the service.
func NewExportService(s store.Store, bus event.Publisher, logger *slog.Logger) *ExportService {
	return &ExportService{repo: NewRepository(s, bus, Codec[*pdfexport.Export]{
		Kind:   pdfexport.AggregateName,
		Encode: pdfexport.Encode,
		Decode: pdfexport.Decode,
	}, logger)}
}

// Create requests an export.
func (s *ExportService) Create(ctx context.Context, p pdfexport.Params) (*pdfexport.Export, error) {
	x, err := pdfexport.New(p)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, x); err != nil {
		return nil, err
	}
	return x, nil
}

// Get loads an export.
func (s *ExportService) Get(ctx context.Context, id string) (*pdfexport.Export, error) {
	return s.repo.Load(ctx, id)
}

// StartProcessing marks an export as being rendered.
func (s *ExportService) StartProcessing(ctx context.Context, id string) (*pdfexport.Export, error) {
	return s.repo.Update(ctx, id, func(x *pdfexport.Export) error { return x.StartProcessing() })
}

// Complete records the rendered file.
func (s *ExportService) Complete(ctx context.Context, id string, a Artifact) (*pdfexport.Export, error) {
	return s.repo.Update(ctx, id, func(x *pdfexport.Export) error { return x.Complete(a.URL, a.Size, a.PageCount) })
}

// Fail records a rendering failure.
func (s *ExportService) Fail(ctx context.Context, id, message string) (*pdfexport.Export, error) {
	return s.repo.Update(ctx, id, func(x *pdfexport.Export) error { return x.Fail(message) })
}

// UpdateTitle renames a pending or failed export.
func (s *ExportService) UpdateTitle(ctx context.Context, id, title string) (*pdfexport.Export, error) {
	return s.repo.Update(ctx, id, func(x *pdfexport.Export) error { return x.UpdateTitle(title) })
}

// UpdateContent replaces the content of a pending or failed export.
func (s *ExportService) UpdateContent(ctx context.Context, id, content string) (*pdfexport.Export, error) {
	return s.repo.Update(ctx, id, func(x *pdfexport.Export) error { return x.UpdateContent(content) })
}

// UpdateOptions replaces the layout options of a pending or failed export.
func (s *ExportService) UpdateOptions(ctx context.Context, id string, opts pdfexport.Options) (*pdfexport.Export, error) {
	return s.repo.Update(ctx, id, func(x *pdfexport.Export) error { return x.UpdateOptions(opts) })
}

// Process runs one export through the renderer: it is marked PROCESSING
// and saved, rendered, then completed or failed. A render error is stored
// on the export and also returned.
func (s *ExportService) Process(ctx context.Context, id string, r Renderer) (*pdfexport.Export, error) {
	x, err := s.StartProcessing(ctx, id)
	if err != nil {
		return x, err
	}

	artifact, renderErr := r.Render(ctx, x)
	if renderErr != nil {
		msg := domain.Truncate(renderErr.Error(), pdfexport.MaxErrorLength-len("..."))
		if strings.TrimSpace(msg) == "" {
			msg = "render failed"
		}
		failed, err := s.Fail(ctx, id, msg)
		if err != nil {
			return x, fmt.Errorf("record render failure: %w", errors.Join(renderErr, err))
		}
		return failed, fmt.Errorf("render export %s: %w", id, renderErr)
	}
	return s.Complete(ctx, id, artifact)
}
