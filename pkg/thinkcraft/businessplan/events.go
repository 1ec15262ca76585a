package businessplan

import (
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
)

// AggregateName identifies business plans in the event catalog and in
// errors.
const AggregateName = "business_plan"

const (
	EventCreated          = "BusinessPlanCreated"
	EventChapterGenerated = "ChapterGenerated"
	EventChapterUpdated   = "ChapterUpdated"
	EventChapterDeleted   = "ChapterDeleted"
	EventTitleUpdated     = "BusinessPlanTitleUpdated"
	EventCompleted        = "BusinessPlanCompleted"
)

// Created is recorded when a plan is started.
type Created struct{ event.Base }

func (e Created) Title() string       { return e.Payload().String("title", "") }
func (e Created) GeneratedBy() string { return e.Payload().String("generatedBy", "") }

// ChapterGenerated is recorded when a chapter is added or regenerated.
type ChapterGenerated struct{ event.Base }

func (e ChapterGenerated) ChapterID() string   { return e.Payload().String("chapterId", "") }
func (e ChapterGenerated) ChapterType() string { return e.Payload().String("chapterType", "") }
func (e ChapterGenerated) Title() string       { return e.Payload().String("title", "") }
func (e ChapterGenerated) Tokens() int         { return e.Payload().Int("tokens", 0) }
func (e ChapterGenerated) Replaced() bool      { return e.Payload().Bool("replaced", false) }

// ChapterUpdated is recorded when chapter content is edited.
type ChapterUpdated struct{ event.Base }

func (e ChapterUpdated) ChapterType() string { return e.Payload().String("chapterType", "") }
func (e ChapterUpdated) OldTokens() int      { return e.Payload().Int("oldTokens", 0) }
func (e ChapterUpdated) Tokens() int         { return e.Payload().Int("tokens", 0) }

// ChapterDeleted is recorded when a chapter is removed.
type ChapterDeleted struct{ event.Base }

func (e ChapterDeleted) ChapterType() string { return e.Payload().String("chapterType", "") }
func (e ChapterDeleted) Tokens() int         { return e.Payload().Int("tokens", 0) }

// TitleUpdated is recorded when the plan is renamed.
type TitleUpdated struct{ event.Base }

func (e TitleUpdated) OldTitle() string { return e.Payload().String("oldTitle", "") }
func (e TitleUpdated) NewTitle() string { return e.Payload().String("newTitle", "") }

// Completed is recorded when the plan is finalized.
type Completed struct{ event.Base }

func (e Completed) OldStatus() string { return e.Payload().String("oldStatus", "") }
func (e Completed) NewStatus() string { return e.Payload().String("newStatus", "") }
func (e Completed) TotalTokens() int  { return e.Payload().Int("totalTokens", 0) }
func (e Completed) Cost() float64     { return e.Payload().Float("cost", 0) }

// Schemas describes every business plan event.
func Schemas() []*event.Schema {
	with := func(keys ...string) []string {
		return append([]string{"businessPlanId", "projectId"}, keys...)
	}
	return []*event.Schema{
		{Name: EventCreated, Aggregate: AggregateName, Description: "A business plan was started",
			Required: with("title"), Tags: []string{"lifecycle"}},
		{Name: EventChapterGenerated, Aggregate: AggregateName, Description: "A chapter was generated",
			Required: with("chapterId", "chapterType", "title", "tokens"), Tags: []string{"content"}},
		{Name: EventChapterUpdated, Aggregate: AggregateName, Description: "A chapter was edited",
			Required: with("chapterId", "chapterType", "tokens"), Tags: []string{"content"}},
		{Name: EventChapterDeleted, Aggregate: AggregateName, Description: "A chapter was deleted",
			Required: with("chapterId", "chapterType"), Tags: []string{"content"}},
		{Name: EventTitleUpdated, Aggregate: AggregateName, Description: "Business plan renamed",
			Required: with("oldTitle", "newTitle"), Tags: []string{"content"}},
		{Name: EventCompleted, Aggregate: AggregateName, Description: "Business plan completed",
			Required: with("oldStatus", "newStatus", "totalTokens", "cost"), Tags: []string{"status", "lifecycle"}},
	}
}

// RegisterEvents adds every business plan event to c.
func RegisterEvents(c *event.Catalog) error {
	for _, s := range Schemas() {
		if err := c.Register(s); err != nil {
			return err
		}
	}
	return nil
}
