package pdfexport

import (
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/domain"
	tcerrors "github.com/randalmurphal/thinkcraft/pkg/thinkcraft/errors"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 1_000_000
	MaxErrorLength   = 2000

	MinFontSize    = 8
	MaxFontSize    = 24
	MinLineSpacing = 1.0
	MaxLineSpacing = 3.0
)

const idPrefix = "exp"

// NewID returns a fresh export identifier.
func NewID() string { return domain.NewID(idPrefix) }

// ParseID validates an export identifier.
func ParseID(s string) (string, error) { return domain.ParseID("exportId", idPrefix, s) }

// Format is the output document format.
type Format string

const (
	FormatPDF        Format = "PDF"
	FormatWord       Format = "WORD"
	FormatExcel      Format = "EXCEL"
	FormatPowerPoint Format = "POWERPOINT"
	FormatHTML       Format = "HTML"
	FormatMarkdown   Format = "MARKDOWN"
)

// Formats returns every format.
func Formats() []Format {
	return []Format{FormatPDF, FormatWord, FormatExcel, FormatPowerPoint, FormatHTML, FormatMarkdown}
}

// ParseFormat converts a string into a Format.
func ParseFormat(s string) (Format, error) {
	return domain.ParseEnum("export format", s, Formats())
}

func (f Format) Valid() bool    { return domain.IsMember(f, Formats()) }
func (f Format) String() string { return string(f) }

// UnmarshalText rejects unknown formats when decoding.
func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatPDF:
		return ".pdf"
	case FormatWord:
		return ".docx"
	case FormatExcel:
		return ".xlsx"
	case FormatPowerPoint:
		return ".pptx"
	case FormatHTML:
		return ".html"
	case FormatMarkdown:
		return ".md"
	}
	return ""
}

// DisplayName returns a human-readable label.
func (f Format) DisplayName() string {
	switch f {
	case FormatPDF:
		return "PDF document"
	case FormatWord:
		return "Word document"
	case FormatExcel:
		return "Excel spreadsheet"
	case FormatPowerPoint:
		return "PowerPoint presentation"
	case FormatHTML:
		return "HTML page"
	case FormatMarkdown:
		return "Markdown document"
	}
	return string(f)
}

// Status is the processing state of an export.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Statuses returns every status.
func Statuses() []Status {
	return []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}
}

// ParseStatus converts a string into a Status.
func ParseStatus(s string) (Status, error) {
	return domain.ParseEnum("export status", s, Statuses())
}

func (s Status) Valid() bool    { return domain.IsMember(s, Statuses()) }
func (s Status) String() string { return string(s) }

// UnmarshalText rejects unknown statuses when decoding.
func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// CanProcess reports whether processing may start (or restart).
func (s Status) CanProcess() bool {
	return s == StatusPending || s == StatusFailed
}

// CanUpdate reports whether title, content and options may change.
func (s Status) CanUpdate() bool {
	return s == StatusPending || s == StatusFailed
}

// PageSize is the paper size of the rendered document.
type PageSize string

const (
	PageA4     PageSize = "A4"
	PageA3     PageSize = "A3"
	PageLetter PageSize = "Letter"
	PageLegal  PageSize = "Legal"
)

// PageSizes returns every page size.
func PageSizes() []PageSize { return []PageSize{PageA4, PageA3, PageLetter, PageLegal} }

func (p PageSize) Valid() bool { return domain.IsMember(p, PageSizes()) }

// Orientation is the page orientation.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// Orientations returns every orientation.
func Orientations() []Orientation { return []Orientation{Portrait, Landscape} }

func (o Orientation) Valid() bool { return domain.IsMember(o, Orientations()) }

// Margin is the page margin in millimetres.
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Options controls how the document is rendered.
type Options struct {
	PageSize               PageSize    `json:"pageSize"`
	Orientation            Orientation `json:"orientation"`
	Margin                 Margin      `json:"margin"`
	Header                 string      `json:"header,omitempty"`
	Footer                 string      `json:"footer,omitempty"`
	Watermark              string      `json:"watermark,omitempty"`
	IncludeTableOfContents bool        `json:"includeTableOfContents"`
	IncludePageNumbers     bool        `json:"includePageNumbers"`
	FontSize               int         `json:"fontSize"`
	FontFamily             string      `json:"fontFamily"`
	LineSpacing            float64     `json:"lineSpacing"`
}

// DefaultOptions returns A4 portrait, 12pt Arial, 1.5 line spacing, 20mm
// margins and page numbers on.
func DefaultOptions() Options {
	return Options{
		PageSize:           PageA4,
		Orientation:        Portrait,
		Margin:             Margin{Top: 20, Right: 20, Bottom: 20, Left: 20},
		IncludePageNumbers: true,
		FontSize:           12,
		FontFamily:         "Arial",
		LineSpacing:        1.5,
	}
}

// Validate checks every option against its allowed range.
func (o Options) Validate() error {
	if !o.PageSize.Valid() {
		_, err := domain.ParseEnum("page size", string(o.PageSize), PageSizes())
		return err
	}
	if !o.Orientation.Valid() {
		_, err := domain.ParseEnum("orientation", string(o.Orientation), Orientations())
		return err
	}
	if o.FontSize < MinFontSize || o.FontSize > MaxFontSize {
		return tcerrors.Invalid("fontSize", "must be between %d and %d, got %d", MinFontSize, MaxFontSize, o.FontSize)
	}
	if o.LineSpacing < MinLineSpacing || o.LineSpacing > MaxLineSpacing {
		return tcerrors.Invalid("lineSpacing", "must be between %g and %g, got %g", MinLineSpacing, MaxLineSpacing, o.LineSpacing)
	}
	m := o.Margin
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return tcerrors.Invalid("margin", "must not be negative")
	}
	if o.FontFamily == "" {
		return tcerrors.Invalid("fontFamily", "is required")
	}
	return nil
}

// Title names the export: trimmed, non-empty, at most 200 characters.
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

// Content is the source text of the export, at most 1,000,000 characters.
// It may be empty and keeps its whitespace.
type Content struct{ value string }

// NewContent validates raw.
func NewContent(raw string) (Content, error) {
	v, err := domain.Text("content", raw, domain.TextRule{Max: MaxContentLength, AllowEmpty: true, KeepSpace: true})
	if err != nil {
		return Content{}, err
	}
	return Content{value: v}, nil
}

func (c Content) Value() string             { return c.value }
func (c Content) String() string            { return c.value }
func (c Content) Equals(other Content) bool { return c.value == other.value }
func (c Content) Len() int                  { return len([]rune(c.value)) }
