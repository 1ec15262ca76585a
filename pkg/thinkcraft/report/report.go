package report

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/domain"
	tcerrors "github.com/randalmurphal/thinkcraft/pkg/thinkcraft/errors"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
)

// Report is the aggregate root for a project report and its sections.
type Report struct {
	domain.AggregateRoot

	projectID   string
	reportType  Type
	title       Title
	description Description
	status      Status
	sections    []Section // kept in order; sections[i].order == i
	generatedBy string
	generatedAt time.Time
	totalPages  int
	createdAt   time.Time
	updatedAt   time.Time
}

// Params holds the inputs for New.
type Params struct {
	ProjectID   string
	Type        string
	Title       string
	Description string
	CreatedBy   string
}

// New creates a DRAFT report and records ReportCreated.
func New(p Params) (*Report, error) {
	projectID, err := domain.RequireRef("projectId", p.ProjectID)
	if err != nil {
		return nil, err
	}
	reportType, err := ParseType(p.Type)
	if err != nil {
		return nil, err
	}
	title, err := NewTitle(p.Title)
	if err != nil {
		return nil, err
	}
	description, err := NewDescription(p.Description)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r := &Report{
		AggregateRoot: domain.NewAggregateRoot(NewID()),
		projectID:     projectID,
		reportType:    reportType,
		title:         title,
		description:   description,
		status:        StatusDraft,
		createdAt:     now,
		updatedAt:     now,
	}
	r.record(EventCreated, func(b event.Base) event.DomainEvent { return Created{b} }, event.Payload{
		"type":        string(reportType),
		"title":       title.Value(),
		"generatedBy": p.CreatedBy,
	})
	return r, nil
}

// NewFromTemplate creates a report with the default sections of its type.
// It records ReportCreated followed by one ReportSectionAdded per section.
func NewFromTemplate(p Params) (*Report, error) {
	r, err := New(p)
	if err != nil {
		return nil, err
	}
	for _, title := range r.reportType.Template() {
		if _, err := r.AddSection(SectionInput{Title: title}); err != nil {
			return nil, fmt.Errorf("template section %q: %w", title, err)
		}
	}
	return r, nil
}

// Accessors.

func (r *Report) ProjectID() string        { return r.projectID }
func (r *Report) Type() Type               { return r.reportType }
func (r *Report) Title() Title             { return r.title }
func (r *Report) Description() Description { return r.description }
func (r *Report) Status() Status           { return r.status }
func (r *Report) GeneratedBy() string      { return r.generatedBy }
func (r *Report) GeneratedAt() time.Time   { return r.generatedAt }
func (r *Report) TotalPages() int          { return r.totalPages }
func (r *Report) CreatedAt() time.Time     { return r.createdAt }
func (r *Report) UpdatedAt() time.Time     { return r.updatedAt }
func (r *Report) SectionCount() int        { return len(r.sections) }

// Sections returns a copy of the sections in order.
func (r *Report) Sections() []Section {
	return slices.Clone(r.sections)
}

// Section returns the section with the given id.
func (r *Report) Section(id string) (Section, bool) {
	idx := r.sectionIndex(id)
	if idx < 0 {
		return Section{}, false
	}
	return r.sections[idx], true
}

// WordCount returns the total words across all sections.
func (r *Report) WordCount() int {
	total := 0
	for _, s := range r.sections {
		total += s.WordCount()
	}
	return total
}

// UpdateTitle replaces the title. Setting the current title is a no-op.
func (r *Report) UpdateTitle(raw string) error {
	if err := r.requireEditable("update title"); err != nil {
		return err
	}
	title, err := NewTitle(raw)
	if err != nil {
		return err
	}
	if title.Equals(r.title) {
		return nil
	}

	old := r.title
	r.title = title
	r.touch()
	r.record(EventDetailsUpdated, func(b event.Base) event.DomainEvent { return DetailsUpdated{b} }, event.Payload{
		"field":    "title",
		"oldValue": old.Value(),
		"newValue": title.Value(),
	})
	return nil
}

// UpdateDescription replaces the description. Setting the current
// description is a no-op.
func (r *Report) UpdateDescription(raw string) error {
	if err := r.requireEditable("update description"); err != nil {
		return err
	}
	description, err := NewDescription(raw)
	if err != nil {
		return err
	}
	if description.Equals(r.description) {
		return nil
	}

	old := r.description
	r.description = description
	r.touch()
	r.record(EventDetailsUpdated, func(b event.Base) event.DomainEvent { return DetailsUpdated{b} }, event.Payload{
		"field":    "description",
		"oldValue": old.Value(),
		"newValue": description.Value(),
	})
	return nil
}

// AddSection inserts a section at in.Index (or appends) and shifts the
// sections after it.
func (r *Report) AddSection(in SectionInput) (Section, error) {
	if err := r.requireEditable("add section"); err != nil {
		return Section{}, err
	}
	title, err := NewSectionTitle(in.Title)
	if err != nil {
		return Section{}, err
	}
	content, err := NewSectionContent(in.Content)
	if err != nil {
		return Section{}, err
	}
	idx := len(r.sections)
	if in.Index != nil {
		if *in.Index < 0 || *in.Index > len(r.sections) {
			return Section{}, tcerrors.Invalid("orderIndex", "must be between 0 and %d, got %d", len(r.sections), *in.Index)
		}
		idx = *in.Index
	}
	kind := in.Kind
	if kind == "" {
		kind = DefaultSectionKind
	}

	now := time.Now().UTC()
	section := Section{
		id:        domain.NewID(sectionIDPrefix),
		title:     title,
		content:   content,
		kind:      kind,
		createdAt: now,
		updatedAt: now,
	}
	r.sections = slices.Insert(r.sections, idx, section)
	r.reindex()
	r.touch()

	r.record(EventSectionAdded, func(b event.Base) event.DomainEvent { return SectionAdded{b} }, event.Payload{
		"sectionId":   section.id,
		"title":       title.Value(),
		"orderIndex":  idx,
		"sectionType": kind,
	})
	return r.sections[idx], nil
}

// UpdateSection applies patch to the section with the given id. Every
// field of the patch is validated before anything changes.
func (r *Report) UpdateSection(id string, patch SectionPatch) (Section, error) {
	if err := r.requireEditable("update section"); err != nil {
		return Section{}, err
	}
	idx := r.sectionIndex(id)
	if idx < 0 {
		return Section{}, &tcerrors.NotFoundError{Kind: "section", ID: id}
	}

	updated := r.sections[idx]
	var fields []any
	if patch.Title != nil {
		title, err := NewSectionTitle(*patch.Title)
		if err != nil {
			return Section{}, err
		}
		updated.title = title
		fields = append(fields, "title")
	}
	if patch.Content != nil {
		content, err := NewSectionContent(*patch.Content)
		if err != nil {
			return Section{}, err
		}
		updated.content = content
		fields = append(fields, "content")
	}
	target := idx
	if patch.Index != nil {
		if *patch.Index < 0 || *patch.Index >= len(r.sections) {
			return Section{}, tcerrors.Invalid("orderIndex", "must be between 0 and %d, got %d", len(r.sections)-1, *patch.Index)
		}
		if *patch.Index != idx {
			target = *patch.Index
			fields = append(fields, "orderIndex")
		}
	}
	if len(fields) == 0 {
		return r.sections[idx], nil
	}

	updated.updatedAt = time.Now().UTC()
	r.sections[idx] = updated
	if target != idx {
		r.move(idx, target)
	}
	r.touch()

	r.record(EventSectionUpdated, func(b event.Base) event.DomainEvent { return SectionUpdated{b} }, event.Payload{
		"sectionId":  id,
		"fields":     fields,
		"orderIndex": target,
		"wordCount":  updated.WordCount(),
	})
	return r.sections[target], nil
}

// RemoveSection deletes a section and closes the gap in the order.
func (r *Report) RemoveSection(id string) error {
	if err := r.requireEditable("remove section"); err != nil {
		return err
	}
	idx := r.sectionIndex(id)
	if idx < 0 {
		return &tcerrors.NotFoundError{Kind: "section", ID: id}
	}

	removed := r.sections[idx]
	r.sections = slices.Delete(r.sections, idx, idx+1)
	r.reindex()
	r.touch()

	r.record(EventSectionRemoved, func(b event.Base) event.DomainEvent { return SectionRemoved{b} }, event.Payload{
		"sectionId":    id,
		"sectionTitle": removed.title.Value(),
	})
	return nil
}

// MoveSection moves a section to index. Moving to the current position is
// a no-op.
func (r *Report) MoveSection(id string, index int) error {
	if err := r.requireEditable("move section"); err != nil {
		return err
	}
	idx := r.sectionIndex(id)
	if idx < 0 {
		return &tcerrors.NotFoundError{Kind: "section", ID: id}
	}
	if index < 0 || index >= len(r.sections) {
		return tcerrors.Invalid("orderIndex", "must be between 0 and %d, got %d", len(r.sections)-1, index)
	}
	if index == idx {
		return nil
	}

	r.move(idx, index)
	r.touch()

	r.record(EventSectionsReordered, func(b event.Base) event.DomainEvent { return SectionsReordered{b} }, event.Payload{
		"sectionId": id,
		"fromIndex": idx,
		"toIndex":   index,
	})
	return nil
}

// ChangeStatus moves the report to next along the permitted transitions.
func (r *Report) ChangeStatus(next Status) error {
	if !next.Valid() {
		_, err := ParseStatus(string(next))
		return err
	}
	if !r.status.CanTransitionTo(next) {
		return r.transitionError("change status to "+string(next), "")
	}
	r.setStatus(next)
	return nil
}

// Generate marks the report GENERATED and computes its page count.
func (r *Report) Generate(generatedBy string) error {
	if !r.status.CanGenerate() {
		return r.transitionError("generate", "")
	}
	if len(r.sections) == 0 {
		return r.transitionError("generate", "report has no sections")
	}
	by, err := domain.RequireRef("generatedBy", generatedBy)
	if err != nil {
		return err
	}

	old := r.status
	words := r.WordCount()
	r.status = StatusGenerated
	r.generatedBy = by
	r.generatedAt = time.Now().UTC()
	r.totalPages = (words + WordsPerPage - 1) / WordsPerPage
	r.touch()

	r.record(EventGenerated, func(b event.Base) event.DomainEvent { return Generated{b} }, event.Payload{
		"oldStatus":   string(old),
		"newStatus":   string(StatusGenerated),
		"totalPages":  r.totalPages,
		"wordCount":   words,
		"generatedBy": by,
	})
	return nil
}

// Archive moves the report to ARCHIVED from any other status.
func (r *Report) Archive() error {
	if r.status == StatusArchived {
		return r.transitionError("archive", "already archived")
	}
	r.setStatus(StatusArchived)
	return nil
}

func (r *Report) setStatus(next Status) {
	old := r.status
	r.status = next
	r.touch()
	r.record(EventStatusChanged, func(b event.Base) event.DomainEvent { return StatusChanged{b} }, event.Payload{
		"oldStatus": string(old),
		"newStatus": string(next),
	})
}

func (r *Report) requireEditable(action string) error {
	if !r.status.CanEdit() {
		return r.transitionError(action, "")
	}
	return nil
}

func (r *Report) transitionError(action, reason string) error {
	return &tcerrors.StateTransitionError{
		Aggregate: AggregateName,
		ID:        r.ID(),
		From:      string(r.status),
		Action:    action,
		Reason:    reason,
	}
}

func (r *Report) sectionIndex(id string) int {
	return slices.IndexFunc(r.sections, func(s Section) bool { return s.id == id })
}

func (r *Report) move(from, to int) {
	s := r.sections[from]
	r.sections = slices.Delete(r.sections, from, from+1)
	r.sections = slices.Insert(r.sections, to, s)
	r.reindex()
}

func (r *Report) reindex() {
	for i := range r.sections {
		r.sections[i].order = i
	}
}

func (r *Report) touch() {
	r.updatedAt = time.Now().UTC()
}

// record builds the event with the ids every report event carries and
// appends it to the buffer.
func (r *Report) record(name string, wrap func(event.Base) event.DomainEvent, payload event.Payload) {
	payload["reportId"] = r.ID()
	payload["projectId"] = r.projectID
	r.Record(wrap(event.MustNew(name, r.ID(), payload)))
}

// Snapshot is the serialized form of a Report.
type Snapshot struct {
	ID          string            `json:"id"`
	Version     int               `json:"version"`
	ProjectID   string            `json:"projectId"`
	Type        Type              `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      Status            `json:"status"`
	Sections    []SectionSnapshot `json:"sections"`
	GeneratedBy string            `json:"generatedBy,omitempty"`
	GeneratedAt *time.Time        `json:"generatedAt,omitempty"`
	TotalPages  int               `json:"totalPages"`
	WordCount   int               `json:"wordCount"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Snapshot returns a copy of the report state.
func (r *Report) Snapshot() Snapshot {
	sections := make([]SectionSnapshot, len(r.sections))
	for i, s := range r.sections {
		sections[i] = s.snapshot()
	}
	snap := Snapshot{
		ID:          r.ID(),
		Version:     r.Version(),
		ProjectID:   r.projectID,
		Type:        r.reportType,
		Title:       r.title.Value(),
		Description: r.description.Value(),
		Status:      r.status,
		Sections:    sections,
		GeneratedBy: r.generatedBy,
		TotalPages:  r.totalPages,
		WordCount:   r.WordCount(),
		CreatedAt:   r.createdAt,
		UpdatedAt:   r.updatedAt,
	}
	if !r.generatedAt.IsZero() {
		at := r.generatedAt
		snap.GeneratedAt = &at
	}
	return snap
}

// MarshalJSON implements json.Marshaler.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Snapshot())
}

// Restore reconstitutes a report from a snapshot. Every value is
// re-validated and no events are recorded.
func Restore(snap Snapshot) (*Report, error) {
	id, err := ParseID(snap.ID)
	if err != nil {
		return nil, err
	}
	if !snap.Type.Valid() {
		_, err := ParseType(string(snap.Type))
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
	description, err := NewDescription(snap.Description)
	if err != nil {
		return nil, err
	}

	ordered := slices.Clone(snap.Sections)
	slices.SortStableFunc(ordered, func(a, b SectionSnapshot) int { return a.OrderIndex - b.OrderIndex })
	sections := make([]Section, 0, len(ordered))
	for _, ss := range ordered {
		s, err := restoreSection(ss)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", ss.ID, err)
		}
		sections = append(sections, s)
	}

	r := &Report{
		AggregateRoot: domain.RestoreAggregateRoot(id, snap.Version),
		projectID:     snap.ProjectID,
		reportType:    snap.Type,
		title:         title,
		description:   description,
		status:        snap.Status,
		sections:      sections,
		generatedBy:   snap.GeneratedBy,
		totalPages:    snap.TotalPages,
		createdAt:     snap.CreatedAt,
		updatedAt:     snap.UpdatedAt,
	}
	if snap.GeneratedAt != nil {
		r.generatedAt = *snap.GeneratedAt
	}
	r.reindex()
	return r, nil
}

// Decode reconstitutes a report from the output of Encode or MarshalJSON.
func Decode(data []byte) (*Report, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return Restore(snap)
}

// Encode returns the persisted JSON form of r.
func Encode(r *Report) ([]byte, error) {
	return json.Marshal(r.Snapshot())
}
