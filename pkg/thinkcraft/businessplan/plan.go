package businessplan

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/domain"
	tcerrors "github.com/randalmurphal/thinkcraft/pkg/thinkcraft/errors"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
)

// BusinessPlan is the aggregate root for a generated business plan.
type BusinessPlan struct {
	domain.AggregateRoot

	projectID   string
	title       Title
	status      Status
	chapters    map[ChapterType]Chapter
	generatedBy string
	totalTokens int
	cost        float64
	completedAt time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

// Params holds the inputs for New.
type Params struct {
	ProjectID   string
	Title       string
	GeneratedBy string
}

// New creates a DRAFT plan with no chapters and records BusinessPlanCreated.
func New(p Params) (*BusinessPlan, error) {
	projectID, err := domain.RequireRef("projectId", p.ProjectID)
	if err != nil {
		return nil, err
	}
	title, err := NewTitle(p.Title)
	if err != nil {
		return nil, err
	}
	generatedBy, err := domain.RequireRef("generatedBy", p.GeneratedBy)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bp := &BusinessPlan{
		AggregateRoot: domain.NewAggregateRoot(NewID()),
		projectID:     projectID,
		title:         title,
		status:        StatusDraft,
		chapters:      make(map[ChapterType]Chapter),
		generatedBy:   generatedBy,
		createdAt:     now,
		updatedAt:     now,
	}
	bp.record(EventCreated, func(b event.Base) event.DomainEvent { return Created{b} }, event.Payload{
		"title":       title.Value(),
		"generatedBy": generatedBy,
	})
	return bp, nil
}

func (bp *BusinessPlan) ProjectID() string      { return bp.projectID }
func (bp *BusinessPlan) Title() Title           { return bp.title }
func (bp *BusinessPlan) Status() Status         { return bp.status }
func (bp *BusinessPlan) GeneratedBy() string    { return bp.generatedBy }
func (bp *BusinessPlan) TotalTokens() int       { return bp.totalTokens }
func (bp *BusinessPlan) Cost() float64          { return bp.cost }
func (bp *BusinessPlan) CompletedAt() time.Time { return bp.completedAt }
func (bp *BusinessPlan) CreatedAt() time.Time   { return bp.createdAt }
func (bp *BusinessPlan) UpdatedAt() time.Time   { return bp.updatedAt }
func (bp *BusinessPlan) ChapterCount() int      { return len(bp.chapters) }

// Chapter returns the chapter of the given type.
func (bp *BusinessPlan) Chapter(t ChapterType) (Chapter, bool) {
	c, ok := bp.chapters[t]
	return c, ok
}

// Chapters returns the chapters in document order.
func (bp *BusinessPlan) Chapters() []Chapter {
	out := make([]Chapter, 0, len(bp.chapters))
	for _, t := range ChapterTypes() {
		if c, ok := bp.chapters[t]; ok {
			out = append(out, c)
		}
	}
	return out
}

// GenerateChapter stores a generated chapter. An existing chapter of the
// same type is replaced and its tokens no longer count.
func (bp *BusinessPlan) GenerateChapter(chapterType, title, content string, tokens int) (Chapter, error) {
	if err := bp.requireDraft("generate chapter"); err != nil {
		return Chapter{}, err
	}
	kind, err := ParseChapterType(chapterType)
	if err != nil {
		return Chapter{}, err
	}
	if title == "" {
		title = kind.DisplayName()
	}
	chapterTitle, err := NewChapterTitle(title)
	if err != nil {
		return Chapter{}, err
	}
	chapterContent, err := NewChapterContent(content)
	if err != nil {
		return Chapter{}, err
	}
	if tokens < 0 {
		return Chapter{}, tcerrors.Invalid("tokens", "must not be negative")
	}

	now := time.Now().UTC()
	previous, replaced := bp.chapters[kind]
	c := Chapter{
		id:          domain.NewID(chapterIDPrefix),
		kind:        kind,
		title:       chapterTitle,
		content:     chapterContent,
		tokens:      tokens,
		generatedAt: now,
		updatedAt:   now,
	}
	bp.chapters[kind] = c
	bp.totalTokens += tokens - previous.tokens
	bp.updatedAt = now

	bp.record(EventChapterGenerated, func(b event.Base) event.DomainEvent { return ChapterGenerated{b} }, event.Payload{
		"chapterId":   c.id,
		"chapterType": string(kind),
		"title":       chapterTitle.Value(),
		"tokens":      tokens,
		"replaced":    replaced,
	})
	return c, nil
}

// UpdateChapter replaces the content and token usage of a chapter.
func (bp *BusinessPlan) UpdateChapter(chapterType, content string, tokens int) (Chapter, error) {
	if err := bp.requireDraft("update chapter"); err != nil {
		return Chapter{}, err
	}
	c, err := bp.lookup(chapterType)
	if err != nil {
		return Chapter{}, err
	}
	chapterContent, err := NewChapterContent(content)
	if err != nil {
		return Chapter{}, err
	}
	if tokens < 0 {
		return Chapter{}, tcerrors.Invalid("tokens", "must not be negative")
	}

	oldTokens := c.tokens
	c.content = chapterContent
	c.tokens = tokens
	c.updatedAt = time.Now().UTC()
	bp.chapters[c.kind] = c
	bp.totalTokens += tokens - oldTokens
	bp.updatedAt = c.updatedAt

	bp.record(EventChapterUpdated, func(b event.Base) event.DomainEvent { return ChapterUpdated{b} }, event.Payload{
		"chapterId":   c.id,
		"chapterType": string(c.kind),
		"oldTokens":   oldTokens,
		"tokens":      tokens,
		"wordCount":   c.WordCount(),
	})
	return c, nil
}

// DeleteChapter removes a chapter and its tokens from the total.
func (bp *BusinessPlan) DeleteChapter(chapterType string) error {
	if err := bp.requireDraft("delete chapter"); err != nil {
		return err
	}
	c, err := bp.lookup(chapterType)
	if err != nil {
		return err
	}

	delete(bp.chapters, c.kind)
	bp.totalTokens -= c.tokens
	bp.updatedAt = time.Now().UTC()

	bp.record(EventChapterDeleted, func(b event.Base) event.DomainEvent { return ChapterDeleted{b} }, event.Payload{
		"chapterId":   c.id,
		"chapterType": string(c.kind),
		"tokens":      c.tokens,
	})
	return nil
}

// UpdateTitle renames the plan. Setting the current title is a no-op.
func (bp *BusinessPlan) UpdateTitle(raw string) error {
	if err := bp.requireDraft("update title"); err != nil {
		return err
	}
	title, err := NewTitle(raw)
	if err != nil {
		return err
	}
	if title.Equals(bp.title) {
		return nil
	}

	old := bp.title
	bp.title = title
	bp.updatedAt = time.Now().UTC()
	bp.record(EventTitleUpdated, func(b event.Base) event.DomainEvent { return TitleUpdated{b} }, event.Payload{
		"oldTitle": old.Value(),
		"newTitle": title.Value(),
	})
	return nil
}

// Complete finalizes the plan and prices the tokens it used.
func (bp *BusinessPlan) Complete() error {
	if err := bp.requireDraft("complete"); err != nil {
		return err
	}
	if len(bp.chapters) == 0 {
		return bp.transitionError("complete", "business plan has no chapters")
	}

	old := bp.status
	now := time.Now().UTC()
	bp.status = StatusCompleted
	bp.cost = float64(bp.totalTokens) / 1000 * CostPerThousandTokens
	bp.completedAt = now
	bp.updatedAt = now

	bp.record(EventCompleted, func(b event.Base) event.DomainEvent { return Completed{b} }, event.Payload{
		"oldStatus":    string(old),
		"newStatus":    string(StatusCompleted),
		"totalTokens":  bp.totalTokens,
		"cost":         bp.cost,
		"chapterCount": len(bp.chapters),
	})
	return nil
}

func (bp *BusinessPlan) lookup(chapterType string) (Chapter, error) {
	kind, err := ParseChapterType(chapterType)
	if err != nil {
		return Chapter{}, err
	}
	c, ok := bp.chapters[kind]
	if !ok {
		return Chapter{}, &tcerrors.NotFoundError{Kind: "chapter", ID: string(kind)}
	}
	return c, nil
}

func (bp *BusinessPlan) requireDraft(action string) error {
	if bp.status == StatusCompleted {
		return bp.transitionError(action, "")
	}
	return nil
}

func (bp *BusinessPlan) transitionError(action, reason string) error {
	return &tcerrors.StateTransitionError{
		Aggregate: AggregateName,
		ID:        bp.ID(),
		From:      string(bp.status),
		Action:    action,
		Reason:    reason,
	}
}

func (bp *BusinessPlan) record(name string, wrap func(event.Base) event.DomainEvent, payload event.Payload) {
	payload["businessPlanId"] = bp.ID()
	payload["projectId"] = bp.projectID
	bp.Record(wrap(event.MustNew(name, bp.ID(), payload)))
}

// Snapshot is the serialized form of a BusinessPlan.
type Snapshot struct {
	ID           string            `json:"id"`
	Version      int               `json:"version"`
	ProjectID    string            `json:"projectId"`
	Title        string            `json:"title"`
	Status       Status            `json:"status"`
	Chapters     []ChapterSnapshot `json:"chapters"`
	ChapterCount int               `json:"chapterCount"`
	GeneratedBy  string            `json:"generatedBy"`
	TotalTokens  int               `json:"totalTokens"`
	Cost         float64           `json:"cost"`
	CompletedAt  *time.Time        `json:"completedAt,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// Snapshot returns a copy of the plan state with chapters in document
// order.
func (bp *BusinessPlan) Snapshot() Snapshot {
	chapters := bp.Chapters()
	snaps := make([]ChapterSnapshot, len(chapters))
	for i, c := range chapters {
		snaps[i] = c.snapshot()
	}
	snap := Snapshot{
		ID:           bp.ID(),
		Version:      bp.Version(),
		ProjectID:    bp.projectID,
		Title:        bp.title.Value(),
		Status:       bp.status,
		Chapters:     snaps,
		ChapterCount: len(snaps),
		GeneratedBy:  bp.generatedBy,
		TotalTokens:  bp.totalTokens,
		Cost:         bp.cost,
		CreatedAt:    bp.createdAt,
		UpdatedAt:    bp.updatedAt,
	}
	if !bp.completedAt.IsZero() {
		at := bp.completedAt
		snap.CompletedAt = &at
	}
	return snap
}

// MarshalJSON implements json.Marshaler.
func (bp *BusinessPlan) MarshalJSON() ([]byte, error) {
	return json.Marshal(bp.Snapshot())
}

// Restore reconstitutes a plan from a snapshot without recording events.
// The token total is recomputed from the chapters.
func Restore(snap Snapshot) (*BusinessPlan, error) {
	id, err := ParseID(snap.ID)
	if err != nil {
		return nil, err
	}
	if !snap.Status.Valid() {
		_, err := ParseStatus(string(snap.Status))
		return nil, err
	}
	title, err := NewTitle(snap.Title)
	if err != nil {
		return nil, err
	}
	if snap.Cost < 0 {
		return nil, tcerrors.Invalid("cost", "must not be negative")
	}

	chapters := make(map[ChapterType]Chapter, len(snap.Chapters))
	total := 0
	for _, cs := range snap.Chapters {
		c, err := restoreChapter(cs)
		if err != nil {
			return nil, fmt.Errorf("chapter %s: %w", cs.ID, err)
		}
		if _, dup := chapters[c.kind]; dup {
			return nil, tcerrors.Invalid("chapters", "duplicate chapter type %s", c.kind)
		}
		chapters[c.kind] = c
		total += c.tokens
	}

	bp := &BusinessPlan{
		AggregateRoot: domain.RestoreAggregateRoot(id, snap.Version),
		projectID:     snap.ProjectID,
		title:         title,
		status:        snap.Status,
		chapters:      chapters,
		generatedBy:   snap.GeneratedBy,
		totalTokens:   total,
		cost:          snap.Cost,
		createdAt:     snap.CreatedAt,
		updatedAt:     snap.UpdatedAt,
	}
	if snap.CompletedAt != nil {
		bp.completedAt = *snap.CompletedAt
	}
	return bp, nil
}

// Encode returns the persisted JSON form of bp.
func Encode(bp *BusinessPlan) ([]byte, error) {
	return json.Marshal(bp.Snapshot())
}

// Decode reconstitutes a plan from the output of Encode.
func Decode(data []byte) (*BusinessPlan, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode business plan: %w", err)
	}
	return Restore(snap)
}

