package businessplan

import (
	"time"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/domain"
	tcerrors "github.com/randalmurphal/thinkcraft/pkg/thinkcraft/errors"
)

// Chapter is one generated section of a business plan.
type Chapter struct {
	id          string
	kind        ChapterType
	title       ChapterTitle
	content     ChapterContent
	tokens      int
	generatedAt time.Time
	updatedAt   time.Time
}

func (c Chapter) ID() string              { return c.id }
func (c Chapter) Type() ChapterType       { return c.kind }
func (c Chapter) Title() ChapterTitle     { return c.title }
func (c Chapter) Content() ChapterContent { return c.content }
func (c Chapter) Tokens() int             { return c.tokens }
func (c Chapter) GeneratedAt() time.Time  { return c.generatedAt }
func (c Chapter) UpdatedAt() time.Time    { return c.updatedAt }
func (c Chapter) WordCount() int          { return c.content.WordCount() }
func (c Chapter) Summary(n int) string    { return domain.Truncate(c.content.Value(), n) }

// ChapterSnapshot is the serialized form of a Chapter.
type ChapterSnapshot struct {
	ID          string      `json:"id"`
	Type        ChapterType `json:"type"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	Tokens      int         `json:"tokens"`
	GeneratedAt time.Time   `json:"generatedAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (c Chapter) snapshot() ChapterSnapshot {
	return ChapterSnapshot{
		ID:          c.id,
		Type:        c.kind,
		Title:       c.title.Value(),
		Content:     c.content.Value(),
		Tokens:      c.tokens,
		GeneratedAt: c.generatedAt,
		UpdatedAt:   c.updatedAt,
	}
}

func restoreChapter(s ChapterSnapshot) (Chapter, error) {
	id, err := domain.ParseID("chapterId", chapterIDPrefix, s.ID)
	if err != nil {
		return Chapter{}, err
	}
	if !s.Type.Valid() {
		_, err := ParseChapterType(string(s.Type))
		return Chapter{}, err
	}
	title, err := NewChapterTitle(s.Title)
	if err != nil {
		return Chapter{}, err
	}
	content, err := NewChapterContent(s.Content)
	if err != nil {
		return Chapter{}, err
	}
	if s.Tokens < 0 {
		return Chapter{}, tcerrors.Invalid("tokens", "must not be negative")
	}
	return Chapter{
		id:          id,
		kind:        s.Type,
		title:       title,
		content:     content,
		tokens:      s.Tokens,
		generatedAt: s.GeneratedAt,
		updatedAt:   s.UpdatedAt,
	}, nil
}
