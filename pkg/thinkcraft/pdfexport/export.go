package pdfexport

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/domain"
	tcerrors "github.com/randalmurphal/thinkcraft/pkg/thinkcraft/errors"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
)

// Export is the aggregate root for a document export of a project.
type Export struct {
	domain.AggregateRoot

	projectID    string
	title        Title
	format       Format
	status       Status
	content      Content
	options      Options
	requestedBy  string
	fileURL      string
	fileSize     int64
	pageCount    int
	errorMessage string
	createdAt    time.Time
	updatedAt    time.Time
}

// Params holds the inputs for New. A nil Options means DefaultOptions.
type Params struct {
	ProjectID   string
	Title       string
	Format      string
	Content     string
	Options     *Options
	RequestedBy string
}

// New creates a PENDING export and records ExportCreated.
func New(p Params) (*Export, error) {
	projectID, err := domain.RequireRef("projectId", p.ProjectID)
	if err != nil {
		return nil, err
	}
	title, err := NewTitle(p.Title)
	if err != nil {
		return nil, err
	}
	format, err := ParseFormat(p.Format)
	if err != nil {
		return nil, err
	}
	content, err := NewContent(p.Content)
	if err != nil {
		return nil, err
	}
	opts := DefaultOptions()
	if p.Options != nil {
		opts = *p.Options
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	x := &Export{
		AggregateRoot: domain.NewAggregateRoot(NewID()),
		projectID:     projectID,
		title:         title,
		format:        format,
		status:        StatusPending,
		content:       content,
		options:       opts,
		requestedBy:   p.RequestedBy,
		createdAt:     now,
		updatedAt:     now,
	}
	x.record(EventCreated, func(b event.Base) event.DomainEvent { return Created{b} }, event.Payload{
		"title":       title.Value(),
		"format":      string(format),
		"requestedBy": p.RequestedBy,
	})
	return x, nil
}

func (x *Export) ProjectID() string    { return x.projectID }
func (x *Export) Title() Title         { return x.title }
func (x *Export) Format() Format       { return x.format }
func (x *Export) Status() Status       { return x.status }
func (x *Export) Content() Content     { return x.content }
func (x *Export) Options() Options     { return x.options }
func (x *Export) RequestedBy() string  { return x.requestedBy }
func (x *Export) FileURL() string      { return x.fileURL }
func (x *Export) FileSize() int64      { return x.fileSize }
func (x *Export) PageCount() int       { return x.pageCount }
func (x *Export) ErrorMessage() string { return x.errorMessage }
func (x *Export) CreatedAt() time.Time { return x.createdAt }
func (x *Export) UpdatedAt() time.Time { return x.updatedAt }

// FileName is the title with the extension of the format.
func (x *Export) FileName() string {
	return x.title.Value() + x.format.Extension()
}

// StartProcessing moves a PENDING or FAILED export to PROCESSING. A retry
// clears the previous error.
func (x *Export) StartProcessing() error {
	if !x.status.CanProcess() {
		return x.transitionError("start processing", "")
	}
	old := x.status
	x.status = StatusProcessing
	x.errorMessage = ""
	x.touch()
	x.record(EventProcessingStarted, func(b event.Base) event.DomainEvent { return ProcessingStarted{b} }, event.Payload{
		"format":    string(x.format),
		"oldStatus": string(old),
	})
	return nil
}

// Complete stores the rendered file location and moves the export to
// COMPLETED. It requires PROCESSING.
func (x *Export) Complete(fileURL string, fileSize int64, pageCount int) error {
	if x.status != StatusProcessing {
		return x.transitionError("complete", "export is not processing")
	}
	url, err := domain.Text("fileUrl", fileURL, domain.TextRule{Max: 2048})
	if err != nil {
		return err
	}
	if fileSize < 0 {
		return tcerrors.Invalid("fileSize", "must not be negative")
	}
	if pageCount < 0 {
		return tcerrors.Invalid("pageCount", "must not be negative")
	}

	x.status = StatusCompleted
	x.fileURL = url
	x.fileSize = fileSize
	x.pageCount = pageCount
	x.touch()
	x.record(EventCompleted, func(b event.Base) event.DomainEvent { return Completed{b} }, event.Payload{
		"fileUrl":   url,
		"fileSize":  fileSize,
		"pageCount": pageCount,
	})
	return nil
}

// Fail records a rendering failure. A completed export cannot fail.
func (x *Export) Fail(message string) error {
	if x.status == StatusCompleted {
		return x.transitionError("fail", "export already completed")
	}
	msg, err := domain.Text("errorMessage", message, domain.TextRule{Max: MaxErrorLength})
	if err != nil {
		return err
	}
	old := x.status
	x.status = StatusFailed
	x.errorMessage = msg
	x.touch()
	x.record(EventFailed, func(b event.Base) event.DomainEvent { return Failed{b} }, event.Payload{
		"errorMessage": msg,
		"oldStatus":    string(old),
	})
	return nil
}

// UpdateTitle replaces the title.
func (x *Export) UpdateTitle(raw string) error {
	if err := x.requireUpdatable("update title"); err != nil {
		return err
	}
	title, err := NewTitle(raw)
	if err != nil {
		return err
	}
	if title.Equals(x.title) {
		return nil
	}
	x.title = title
	x.updated("title")
	return nil
}

// UpdateContent replaces the source content.
func (x *Export) UpdateContent(raw string) error {
	if err := x.requireUpdatable("update content"); err != nil {
		return err
	}
	content, err := NewContent(raw)
	if err != nil {
		return err
	}
	if content.Equals(x.content) {
		return nil
	}
	x.content = content
	x.updated("content")
	return nil
}

// UpdateOptions replaces the rendering options.
func (x *Export) UpdateOptions(opts Options) error {
	if err := x.requireUpdatable("update options"); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if opts == x.options {
		return nil
	}
	x.options = opts
	x.updated("options")
	return nil
}

// FileSizeDisplay formats the file size with binary units, e.g. "1.5 KB".
func (x *Export) FileSizeDisplay() string {
	return formatSize(x.fileSize)
}

func formatSize(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	i := 0
	for i < len(units)-1 && n >= int64(1)<<(10*(i+1)) {
		i++
	}
	v := math.Round(float64(n)/float64(int64(1)<<(10*i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + units[i]
}

func (x *Export) updated(field string) {
	x.touch()
	x.record(EventUpdated, func(b event.Base) event.DomainEvent { return Updated{b} }, event.Payload{
		"field": field,
	})
}

func (x *Export) requireUpdatable(action string) error {
	if !x.status.CanUpdate() {
		return x.transitionError(action, "")
	}
	return nil
}

func (x *Export) transitionError(action, reason string) error {
	return &tcerrors.StateTransitionError{
		Aggregate: AggregateName,
		ID:        x.ID(),
		From:      string(x.status),
		Action:    action,
		Reason:    reason,
	}
}

func (x *Export) touch() { x.updatedAt = time.Now().UTC() }

func (x *Export) record(name string, wrap func(event.Base) event.DomainEvent, payload event.Payload) {
	payload["exportId"] = x.ID()
	payload["projectId"] = x.projectID
	x.Record(wrap(event.MustNew(name, x.ID(), payload)))
}

// Snapshot is the serialized form of an Export.
type Snapshot struct {
	ID              string    `json:"id"`
	Version         int       `json:"version"`
	ProjectID       string    `json:"projectId"`
	Title           string    `json:"title"`
	Format          Format    `json:"format"`
	Status          Status    `json:"status"`
	Content         string    `json:"content"`
	Options         Options   `json:"options"`
	RequestedBy     string    `json:"requestedBy,omitempty"`
	FileURL         string    `json:"fileUrl,omitempty"`
	FileSize        int64     `json:"fileSize"`
	FileSizeDisplay string    `json:"fileSizeDisplay"`
	PageCount       int       `json:"pageCount"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Snapshot returns a copy of the export state.
func (x *Export) Snapshot() Snapshot {
	return Snapshot{
		ID:              x.ID(),
		Version:         x.Version(),
		ProjectID:       x.projectID,
		Title:           x.title.Value(),
		Format:          x.format,
		Status:          x.status,
		Content:         x.content.Value(),
		Options:         x.options,
		RequestedBy:     x.requestedBy,
		FileURL:         x.fileURL,
		FileSize:        x.fileSize,
		FileSizeDisplay: x.FileSizeDisplay(),
		PageCount:       x.pageCount,
		ErrorMessage:    x.errorMessage,
		CreatedAt:       x.createdAt,
		UpdatedAt:       x.updatedAt,
	}
}

// MarshalJSON implements json.Marshaler.
func (x *Export) MarshalJSON() ([]byte, error) {
	return json.Marshal(x.Snapshot())
}

// Restore reconstitutes an export from a snapshot without recording events.
func Restore(snap Snapshot) (*Export, error) {
	id, err := ParseID(snap.ID)
	if err != nil {
		return nil, err
	}
	if !snap.Format.Valid() {
		_, err := ParseFormat(string(snap.Format))
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
	content, err := NewContent(snap.Content)
	if err != nil {
		return nil, err
	}
	if err := snap.Options.Validate(); err != nil {
		return nil, err
	}
	if snap.FileSize < 0 || snap.PageCount < 0 {
		return nil, tcerrors.Invalid("fileSize", "file size and page count must not be negative")
	}

	return &Export{
		AggregateRoot: domain.RestoreAggregateRoot(id, snap.Version),
		projectID:     snap.ProjectID,
		title:         title,
		format:        snap.Format,
		status:        snap.Status,
		content:       content,
		options:       snap.Options,
		requestedBy:   snap.RequestedBy,
		fileURL:       snap.FileURL,
		fileSize:      snap.FileSize,
		pageCount:     snap.PageCount,
		errorMessage:  snap.ErrorMessage,
		createdAt:     snap.CreatedAt,
		updatedAt:     snap.UpdatedAt,
	}, nil
}

// Encode returns the persisted JSON form of x.
func Encode(x *Export) ([]byte, error) {
	return json.Marshal(x.Snapshot())
}

// Decode reconstitutes an export from the output of Encode.
func Decode(data []byte) (*Export, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	return Restore(snap)
}
