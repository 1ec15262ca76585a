package app

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/businessplan"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/store"
)

// BusinessPlanService runs business plan use cases.
type BusinessPlanService struct {
	repo *Repository[*businessplan.BusinessPlan]
}

// NewBusinessPlanService creates the service.
func NewBusinessPlanService(s store.Store, bus event.Publisher, logger *slog.Logger) *BusinessPlanService {
	return &BusinessPlanService{repo: NewRepository(s, bus, Codec[*businessplan.BusinessPlan]{
		Kind:   businessplan.AggregateName,
		Encode: businessplan.Encode,
		Decode: businessplan.Decode,
	}, logger)}
}

// Create creates an empty draft plan.
func (s *BusinessPlanService) Create(ctx context.Context, p businessplan.Params) (*businessplan.BusinessPlan, error) {
	bp, err := businessplan.New(p)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, bp); err != nil {
		return nil, err
	}
	return bp, nil
}

// Get loads a plan.
func (s *BusinessPlanService) Get(ctx context.Context, id string) (*businessplan.BusinessPlan, error) {
	return s.repo.Load(ctx, id)
}

// GenerateChapter stores generated chapter text, replacing any chapter of
// the same type.
func (s *BusinessPlanService) GenerateChapter(ctx context.Context, id, chapterType, title, content string, tokens int) (businessplan.Chapter, error) {
	var ch businessplan.Chapter
	_, err := s.repo.Update(ctx, id, func(bp *businessplan.BusinessPlan) error {
		var err error
		ch, err = bp.GenerateChapter(chapterType, title, content, tokens)
		return err
	})
	return ch, err
}

// UpdateChapter replaces the content of an existing chapter.
func (s *BusinessPlanService) UpdateChapter(ctx context.Context, id, chapterType, content string, tokens int) (businessplan.Chapter, error) {
	var ch businessplan.Chapter
	_, err := s.repo.Update(ctx, id, func(bp *businessplan.BusinessPlan) error {
		var err error
		ch, err = bp.UpdateChapter(chapterType, content, tokens)
		return err
	})
	return ch, err
}

// DeleteChapter removes a chapter.
func (s *BusinessPlanService) DeleteChapter(ctx context.Context, id, chapterType string) (*businessplan.BusinessPlan, error) {
	return s.repo.Update(ctx, id, func(bp *businessplan.BusinessPlan) error { return bp.DeleteChapter(chapterType) })
}

// UpdateTitle renames a plan.
func (s *BusinessPlanService) UpdateTitle(ctx context.Context, id, title string) (*businessplan.BusinessPlan, error) {
	return s.repo.Update(ctx, id, func(bp *businessplan.BusinessPlan) error { return bp.UpdateTitle(title) })
}

// Complete finalizes a plan and computes its generation cost.
func (s *BusinessPlanService) Complete(ctx context.Context, id string) (*businessplan.BusinessPlan, error) {
	return s.repo.Update(ctx, id, func(bp *businessplan.BusinessPlan) error { return bp.Complete() })
}
