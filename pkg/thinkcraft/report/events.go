package report

import (
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
)

// AggregateName identifies reports in the event catalog and in errors.
const AggregateName = "report"

// Event names emitted by Report.
const (
	EventCreated           = "ReportCreated"
	EventDetailsUpdated    = "ReportDetailsUpdated"
	EventSectionAdded      = "ReportSectionAdded"
	EventSectionUpdated    = "ReportSectionUpdated"
	EventSectionRemoved    = "ReportSectionRemoved"
	EventSectionsReordered = "ReportSectionsReordered"
	EventStatusChanged     = "ReportStatusChanged"
	EventGenerated         = "ReportGenerated"
)

// Created is recorded when a report is created.
type Created struct{ event.Base }

func (e Created) ProjectID() string   { return e.Payload().String("projectId", "") }
func (e Created) Type() string        { return e.Payload().String("type", "") }
func (e Created) Title() string       { return e.Payload().String("title", "") }
func (e Created) GeneratedBy() string { return e.Payload().String("generatedBy", "") }

// DetailsUpdated is recorded when the title or description changes.
type DetailsUpdated struct{ event.Base }

func (e DetailsUpdated) Field() string    { return e.Payload().String("field", "") }
func (e DetailsUpdated) OldValue() string { return e.Payload().String("oldValue", "") }
func (e DetailsUpdated) NewValue() string { return e.Payload().String("newValue", "") }

// SectionAdded is recorded when a section is inserted.
type SectionAdded struct{ event.Base }

func (e SectionAdded) SectionID() string   { return e.Payload().String("sectionId", "") }
func (e SectionAdded) Title() string       { return e.Payload().String("title", "") }
func (e SectionAdded) OrderIndex() int     { return e.Payload().Int("orderIndex", -1) }
func (e SectionAdded) SectionType() string { return e.Payload().String("sectionType", "") }

// SectionUpdated is recorded when a section's title, content or position
// changes.
type SectionUpdated struct{ event.Base }

func (e SectionUpdated) SectionID() string { return e.Payload().String("sectionId", "") }
func (e SectionUpdated) OrderIndex() int   { return e.Payload().Int("orderIndex", -1) }
func (e SectionUpdated) WordCount() int    { return e.Payload().Int("wordCount", 0) }

// SectionRemoved is recorded when a section is deleted.
type SectionRemoved struct{ event.Base }

func (e SectionRemoved) SectionID() string    { return e.Payload().String("sectionId", "") }
func (e SectionRemoved) SectionTitle() string { return e.Payload().String("sectionTitle", "") }

// SectionsReordered is recorded when a section is moved.
type SectionsReordered struct{ event.Base }

func (e SectionsReordered) SectionID() string { return e.Payload().String("sectionId", "") }
func (e SectionsReordered) FromIndex() int    { return e.Payload().Int("fromIndex", -1) }
func (e SectionsReordered) ToIndex() int      { return e.Payload().Int("toIndex", -1) }

// StatusChanged is recorded by ChangeStatus and Archive.
type StatusChanged struct{ event.Base }

func (e StatusChanged) OldStatus() string { return e.Payload().String("oldStatus", "") }
func (e StatusChanged) NewStatus() string { return e.Payload().String("newStatus", "") }

// Generated is recorded by Generate.
type Generated struct{ event.Base }

func (e Generated) OldStatus() string   { return e.Payload().String("oldStatus", "") }
func (e Generated) NewStatus() string   { return e.Payload().String("newStatus", "") }
func (e Generated) TotalPages() int     { return e.Payload().Int("totalPages", 0) }
func (e Generated) WordCount() int      { return e.Payload().Int("wordCount", 0) }
func (e Generated) GeneratedBy() string { return e.Payload().String("generatedBy", "") }

// Schemas describes every report event.
func Schemas() []*event.Schema {
	common := []string{"reportId", "projectId"}
	with := func(keys ...string) []string {
		return append(append([]string{}, common...), keys...)
	}
	return []*event.Schema{
		{Name: EventCreated, Aggregate: AggregateName, Description: "A report was created",
			Required: with("type", "title"), Tags: []string{"lifecycle"}},
		{Name: EventDetailsUpdated, Aggregate: AggregateName, Description: "Report title or description changed",
			Required: with("field", "newValue"), Tags: []string{"content"}},
		{Name: EventSectionAdded, Aggregate: AggregateName, Description: "A section was added",
			Required: with("sectionId", "title", "orderIndex"), Tags: []string{"content"}},
		{Name: EventSectionUpdated, Aggregate: AggregateName, Description: "A section was edited",
			Required: with("sectionId"), Tags: []string{"content"}},
		{Name: EventSectionRemoved, Aggregate: AggregateName, Description: "A section was removed",
			Required: with("sectionId", "sectionTitle"), Tags: []string{"content"}},
		{Name: EventSectionsReordered, Aggregate: AggregateName, Description: "A section was moved",
			Required: with("sectionId", "fromIndex", "toIndex"), Tags: []string{"content"}},
		{Name: EventStatusChanged, Aggregate: AggregateName, Description: "Report status changed",
			Required: with("oldStatus", "newStatus"), Tags: []string{"status"}},
		{Name: EventGenerated, Aggregate: AggregateName, Description: "Report was generated",
			Required: with("oldStatus", "newStatus", "totalPages", "wordCount"), Tags: []string{"status", "lifecycle"}},
	}
}

// RegisterEvents adds every report event to c.
func RegisterEvents(c *event.Catalog) error {
	for _, s := range Schemas() {
		if err := c.Register(s); err != nil {
			return err
		}
	}
	return nil
}
