package report

import (
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/domain"
)

// Status is the lifecycle state of a report.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusInProgress Status = "IN_PROGRESS"
	StatusGenerated  Status = "GENERATED"
	StatusArchived   Status = "ARCHIVED"
)

// Statuses returns every status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusDraft, StatusInProgress, StatusGenerated, StatusArchived}
}

// ParseStatus converts a stored or user-supplied string into a Status.
func ParseStatus(s string) (Status, error) {
	return domain.ParseEnum("report status", s, Statuses())
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return domain.IsMember(s, Statuses())
}

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

// CanEdit reports whether title, description and sections may change.
func (s Status) CanEdit() bool {
	switch s {
	case StatusDraft, StatusInProgress:
		return true
	case StatusGenerated, StatusArchived:
		return false
	}
	return false
}

// CanGenerate reports whether Generate is allowed.
func (s Status) CanGenerate() bool {
	switch s {
	case StatusDraft, StatusInProgress:
		return true
	case StatusGenerated, StatusArchived:
		return false
	}
	return false
}

// CanTransitionTo reports whether ChangeStatus may move from s to next.
// GENERATED is only reachable through Generate.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusInProgress || next == StatusArchived
	case StatusInProgress:
		return next == StatusDraft || next == StatusArchived
	case StatusGenerated:
		return next == StatusArchived
	case StatusArchived:
		return false
	}
	return false
}

// DisplayName returns a human-readable label.
func (s Status) DisplayName() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusInProgress:
		return "In progress"
	case StatusGenerated:
		return "Generated"
	case StatusArchived:
		return "Archived"
	}
	return string(s)
}

// Type is the kind of report.
type Type string

const (
	TypeProjectSummary Type = "PROJECT_SUMMARY"
	TypeProgress       Type = "PROGRESS_REPORT"
	TypeAnalysis       Type = "ANALYSIS_REPORT"
	TypeFinancial      Type = "FINANCIAL_REPORT"
	TypeTechnical      Type = "TECHNICAL_REPORT"
	TypeMarketing      Type = "MARKETING_REPORT"
	TypeCustom         Type = "CUSTOM_REPORT"
)

// Types returns every report type.
func Types() []Type {
	return []Type{
		TypeProjectSummary, TypeProgress, TypeAnalysis, TypeFinancial,
		TypeTechnical, TypeMarketing, TypeCustom,
	}
}

// ParseType converts a string into a Type.
func ParseType(s string) (Type, error) {
	return domain.ParseEnum("report type", s, Types())
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	return domain.IsMember(t, Types())
}

func (t Type) String() string { return string(t) }

// UnmarshalText rejects unknown types when decoding.
func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// DisplayName returns a human-readable label.
func (t Type) DisplayName() string {
	switch t {
	case TypeProjectSummary:
		return "Project summary"
	case TypeProgress:
		return "Progress report"
	case TypeAnalysis:
		return "Analysis report"
	case TypeFinancial:
		return "Financial report"
	case TypeTechnical:
		return "Technical report"
	case TypeMarketing:
		return "Marketing report"
	case TypeCustom:
		return "Custom report"
	}
	return string(t)
}

// Template returns the default section titles for a new report of type t.
// Custom reports start empty.
func (t Type) Template() []string {
	switch t {
	case TypeProjectSummary:
		return []string{"Overview", "Goals", "Outcomes", "Next Steps"}
	case TypeProgress:
		return []string{"Summary", "Completed Work", "In Progress", "Risks and Blockers", "Next Steps"}
	case TypeAnalysis:
		return []string{"Background", "Methodology", "Findings", "Recommendations"}
	case TypeFinancial:
		return []string{"Summary", "Revenue", "Costs", "Cash Flow", "Outlook"}
	case TypeTechnical:
		return []string{"Overview", "Architecture", "Implementation", "Testing", "Open Issues"}
	case TypeMarketing:
		return []string{"Market Overview", "Target Audience", "Channels", "Campaign Results", "Recommendations"}
	case TypeCustom:
		return nil
	}
	return nil
}
