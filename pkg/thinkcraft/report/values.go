package report

import (
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/domain"
)

// Length limits in characters.
const (
	MaxTitleLength          = 200
	MaxDescriptionLength    = 2000
	MaxSectionTitleLength   = 150
	MaxSectionContentLength = 10000

	// WordsPerPage is used to estimate the page count on generation.
	WordsPerPage = 250
)

const (
	idPrefix        = "rpt"
	sectionIDPrefix = "sec"
)

// NewID returns a fresh report identifier.
func NewID() string { return domain.NewID(idPrefix) }

// ParseID validates a report identifier.
func ParseID(s string) (string, error) { return domain.ParseID("reportId", idPrefix, s) }

// Title is a report title: trimmed, non-empty, at most 200 characters.
type Title struct{ value string }

// NewTitle validates raw.
func NewTitle(raw string) (Title, error) {
	v, err := domain.Text("title", raw, domain.TextRule{Max: MaxTitleLength})
	if err != nil {
		return Title{}, err
	}
	return Title{value: v}, nil
}

func (t Title) Value() string           { return t.value }
func (t Title) String() string          { return t.value }
func (t Title) Equals(other Title) bool { return t.value == other.value }

func (t Title) MarshalText() ([]byte, error) { return []byte(t.value), nil }

func (t *Title) UnmarshalText(b []byte) error {
	v, err := NewTitle(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Description is an optional report description of at most 2000
// characters.
type Description struct{ value string }

// NewDescription validates raw. An empty description is allowed.
func NewDescription(raw string) (Description, error) {
	v, err := domain.Text("description", raw, domain.TextRule{Max: MaxDescriptionLength, AllowEmpty: true})
	if err != nil {
		return Description{}, err
	}
	return Description{value: v}, nil
}

func (d Description) Value() string                 { return d.value }
func (d Description) String() string                { return d.value }
func (d Description) Equals(other Description) bool { return d.value == other.value }
func (d Description) IsEmpty() bool                 { return d.value == "" }

func (d Description) MarshalText() ([]byte, error) { return []byte(d.value), nil }

func (d *Description) UnmarshalText(b []byte) error {
	v, err := NewDescription(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// SectionTitle is a section heading: trimmed, non-empty, at most 150
// characters.
type SectionTitle struct{ value string }

// NewSectionTitle validates raw.
func NewSectionTitle(raw string) (SectionTitle, error) {
	v, err := domain.Text("sectionTitle", raw, domain.TextRule{Max: MaxSectionTitleLength})
	if err != nil {
		return SectionTitle{}, err
	}
	return SectionTitle{value: v}, nil
}

func (t SectionTitle) Value() string                  { return t.value }
func (t SectionTitle) String() string                 { return t.value }
func (t SectionTitle) Equals(other SectionTitle) bool { return t.value == other.value }

// SectionContent is the body of a section, at most 10000 characters. It
// may be empty while a report is being drafted. Surrounding whitespace is
// preserved.
type SectionContent struct{ value string }

// NewSectionContent validates raw.
func NewSectionContent(raw string) (SectionContent, error) {
	v, err := domain.Text("sectionContent", raw, domain.TextRule{
		Max:        MaxSectionContentLength,
		AllowEmpty: true,
		KeepSpace:  true,
	})
	if err != nil {
		return SectionContent{}, err
	}
	return SectionContent{value: v}, nil
}

func (c SectionContent) Value() string                    { return c.value }
func (c SectionContent) String() string                   { return c.value }
func (c SectionContent) Equals(other SectionContent) bool { return c.value == other.value }

// WordCount returns the number of whitespace-separated words.
func (c SectionContent) WordCount() int { return domain.WordCount(c.value) }

// Summary returns the first n characters, with "..." when truncated.
func (c SectionContent) Summary(n int) string { return domain.Truncate(c.value, n) }
