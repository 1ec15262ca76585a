package pdfexport

import (
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
)

// AggregateName identifies exports in the event catalog and in errors.
const AggregateName = "export"

const (
	EventCreated           = "ExportCreated"
	EventProcessingStarted = "ExportProcessingStarted"
	EventCompleted         = "ExportCompleted"
	EventFailed            = "ExportFailed"
	EventUpdated           = "ExportUpdated"
)

// Created is recorded when an export is requested.
type Created struct{ event.Base }

func (e Created) Title() string       { return e.Payload().String("title", "") }
func (e Created) Format() string      { return e.Payload().String("format", "") }
func (e Created) RequestedBy() string { return e.Payload().String("requestedBy", "") }

// ProcessingStarted is recorded when rendering begins.
type ProcessingStarted struct{ event.Base }

func (e ProcessingStarted) Format() string    { return e.Payload().String("format", "") }
func (e ProcessingStarted) OldStatus() string { return e.Payload().String("oldStatus", "") }

// Completed is recorded when the rendered file is available.
type Completed struct{ event.Base }

func (e Completed) FileURL() string { return e.Payload().String("fileUrl", "") }
func (e Completed) FileSize() int   { return e.Payload().Int("fileSize", 0) }
func (e Completed) PageCount() int  { return e.Payload().Int("pageCount", 0) }

// Failed is recorded when rendering fails.
type Failed struct{ event.Base }

func (e Failed) ErrorMessage() string { return e.Payload().String("errorMessage", "") }
func (e Failed) OldStatus() string    { return e.Payload().String("oldStatus", "") }

// Updated is recorded when the title, content or options change.
type Updated struct{ event.Base }

func (e Updated) Field() string { return e.Payload().String("field", "") }

// Schemas describes every export event.
func Schemas() []*event.Schema {
	with := func(keys ...string) []string {
		return append([]string{"exportId", "projectId"}, keys...)
	}
	return []*event.Schema{
		{Name: EventCreated, Aggregate: AggregateName, Description: "An export was requested",
			Required: with("title", "format"), Tags: []string{"lifecycle"}},
		{Name: EventProcessingStarted, Aggregate: AggregateName, Description: "Export rendering started",
			Required: with("format", "oldStatus"), Tags: []string{"status"}},
		{Name: EventCompleted, Aggregate: AggregateName, Description: "Export file is ready",
			Required: with("fileUrl", "fileSize", "pageCount"), Tags: []string{"status", "lifecycle"}},
		{Name: EventFailed, Aggregate: AggregateName, Description: "Export rendering failed",
			Required: with("errorMessage", "oldStatus"), Tags: []string{"status"}},
		{Name: EventUpdated, Aggregate: AggregateName, Description: "Export settings changed",
			Required: with("field"), Tags: []string{"content"}},
	}
}

// RegisterEvents adds every export event to c.
func RegisterEvents(c *event.Catalog) error {
	for _, s := range Schemas() {
		if err := c.Register(s); err != nil {
			return err
		}
	}
	return nil
}
