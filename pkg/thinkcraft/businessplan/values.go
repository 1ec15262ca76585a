package businessplan

import (
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/domain"
)

const (
	MaxTitleLength          = 200
	MaxChapterTitleLength   = 150
	MaxChapterContentLength = 50000

	// CostPerThousandTokens is the generation price used by Complete.
	CostPerThousandTokens = 0.002
)

const (
	idPrefix        = "bp"
	chapterIDPrefix = "ch"
)

// NewID returns a fresh business plan identifier.
func NewID() string { return domain.NewID(idPrefix) }

// ParseID validates a business plan identifier.
func ParseID(s string) (string, error) { return domain.ParseID("businessPlanId", idPrefix, s) }

// Status is the lifecycle state of a business plan.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusCompleted Status = "COMPLETED"
)

// Statuses returns every status.
func Statuses() []Status { return []Status{StatusDraft, StatusCompleted} }

// ParseStatus converts a string into a Status.
func ParseStatus(s string) (Status, error) {
	return domain.ParseEnum("business plan status", s, Statuses())
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

// ChapterType identifies one chapter slot of a plan. A plan holds at most
// one chapter per type.
type ChapterType string

const (
	ChapterExecutiveSummary     ChapterType = "executive_summary"
	ChapterMarketAnalysis       ChapterType = "market_analysis"
	ChapterSolution             ChapterType = "solution"
	ChapterBusinessModel        ChapterType = "business_model"
	ChapterCompetitiveLandscape ChapterType = "competitive_landscape"
	ChapterMarketingStrategy    ChapterType = "marketing_strategy"
	ChapterTeamStructure        ChapterType = "team_structure"
	ChapterFinancialProjection  ChapterType = "financial_projection"
	ChapterRiskAssessment       ChapterType = "risk_assessment"
	ChapterImplementationPlan   ChapterType = "implementation_plan"
	ChapterAppendix             ChapterType = "appendix"
)

// ChapterTypes returns every chapter type in document order.
func ChapterTypes() []ChapterType {
	return []ChapterType{
		ChapterExecutiveSummary,
		ChapterMarketAnalysis,
		ChapterSolution,
		ChapterBusinessModel,
		ChapterCompetitiveLandscape,
		ChapterMarketingStrategy,
		ChapterTeamStructure,
		ChapterFinancialProjection,
		ChapterRiskAssessment,
		ChapterImplementationPlan,
		ChapterAppendix,
	}
}

// ParseChapterType converts a string into a ChapterType.
func ParseChapterType(s string) (ChapterType, error) {
	return domain.ParseEnum("chapter type", s, ChapterTypes())
}

func (c ChapterType) Valid() bool    { return domain.IsMember(c, ChapterTypes()) }
func (c ChapterType) String() string { return string(c) }

// UnmarshalText rejects unknown chapter types when decoding.
func (c *ChapterType) UnmarshalText(b []byte) error {
	v, err := ParseChapterType(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// DisplayName returns the default heading for the chapter.
func (c ChapterType) DisplayName() string {
	switch c {
	case ChapterExecutiveSummary:
		return "Executive Summary"
	case ChapterMarketAnalysis:
		return "Market Analysis"
	case ChapterSolution:
		return "Solution"
	case ChapterBusinessModel:
		return "Business Model"
	case ChapterCompetitiveLandscape:
		return "Competitive Landscape"
	case ChapterMarketingStrategy:
		return "Marketing Strategy"
	case ChapterTeamStructure:
		return "Team Structure"
	case ChapterFinancialProjection:
		return "Financial Projection"
	case ChapterRiskAssessment:
		return "Risk Assessment"
	case ChapterImplementationPlan:
		return "Implementation Plan"
	case ChapterAppendix:
		return "Appendix"
	}
	return string(c)
}

// Title names a plan: trimmed, non-empty, at most 200 characters.
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

// ChapterTitle is trimmed, non-empty, at most 150 characters.
type ChapterTitle struct{ value string }

// NewChapterTitle validates raw.
func NewChapterTitle(raw string) (ChapterTitle, error) {
	v, err := domain.Text("chapterTitle", raw, domain.TextRule{Max: MaxChapterTitleLength})
	if err != nil {
		return ChapterTitle{}, err
	}
	return ChapterTitle{value: v}, nil
}

func (t ChapterTitle) Value() string  { return t.value }
func (t ChapterTitle) String() string { return t.value }

// ChapterContent is non-blank text of at most 50000 characters. Whitespace
// is kept as written.
type ChapterContent struct{ value string }

// NewChapterContent validates raw.
func NewChapterContent(raw string) (ChapterContent, error) {
	v, err := domain.Text("chapterContent", raw, domain.TextRule{Max: MaxChapterContentLength, KeepSpace: true})
	if err != nil {
		return ChapterContent{}, err
	}
	return ChapterContent{value: v}, nil
}

func (c ChapterContent) Value() string  { return c.value }
func (c ChapterContent) String() string { return c.value }

// WordCount returns the number of whitespace-separated words.
func (c ChapterContent) WordCount() int { return domain.WordCount(c.value) }
