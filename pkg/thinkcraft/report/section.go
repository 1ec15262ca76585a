package report

import (
	"time"
)

// DefaultSectionKind is used when a section is added without a kind.
const DefaultSectionKind = "content"

// Section is an ordered part of a report. Sections are owned by their
// report and only change through report operations; values handed out by
// the report are copies.
type Section struct {
	id        string
	title     SectionTitle
	content   SectionContent
	order     int
	kind      string
	createdAt time.Time
	updatedAt time.Time
}

func (s Section) ID() string              { return s.id }
func (s Section) Title() SectionTitle     { return s.title }
func (s Section) Content() SectionContent { return s.content }
func (s Section) OrderIndex() int         { return s.order }
func (s Section) Kind() string            { return s.kind }
func (s Section) WordCount() int          { return s.content.WordCount() }
func (s Section) CreatedAt() time.Time    { return s.createdAt }
func (s Section) UpdatedAt() time.Time    { return s.updatedAt }

// SectionInput describes a section to add.
type SectionInput struct {
	Title   string
	Content string
	Kind    string

	// Index is the position to insert at. Nil appends.
	Index *int
}

// SectionPatch describes changes to an existing section. Nil fields are
// left unchanged.
type SectionPatch struct {
	Title   *string
	Content *string
	Index   *int
}

// SectionSnapshot is the serialized form of a Section.
type SectionSnapshot struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	OrderIndex int       `json:"orderIndex"`
	Kind       string    `json:"sectionType"`
	WordCount  int       `json:"wordCount"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (s Section) snapshot() SectionSnapshot {
	return SectionSnapshot{
		ID:         s.id,
		Title:      s.title.Value(),
		Content:    s.content.Value(),
		OrderIndex: s.order,
		Kind:       s.kind,
		WordCount:  s.WordCount(),
		Summary:    s.content.Summary(100),
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	}
}

func restoreSection(snap SectionSnapshot) (Section, error) {
	title, err := NewSectionTitle(snap.Title)
	if err != nil {
		return Section{}, err
	}
	content, err := NewSectionContent(snap.Content)
	if err != nil {
		return Section{}, err
	}
	kind := snap.Kind
	if kind == "" {
		kind = DefaultSectionKind
	}
	return Section{
		id:        snap.ID,
		title:     title,
		content:   content,
		order:     snap.OrderIndex,
		kind:      kind,
		createdAt: snap.CreatedAt,
		updatedAt: snap.UpdatedAt,
	}, nil
}
