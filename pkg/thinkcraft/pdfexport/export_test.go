package pdfexport_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tcerrors "github.com/randalmurphal/thinkcraft/pkg/thinkcraft/errors"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/pdfexport"
)

func newExport(t *testing.T) *pdfexport.Export {
	t.Helper()
	x, err := pdfexport.New(pdfexport.Params{
		ProjectID:   "proj-1",
		Title:       "Investor deck",
		Format:      "PDF",
		Content:     "# Summary\n\nBody",
		RequestedBy: "user-1",
	})
	require.NoError(t, err)
	return x
}

func eventNames(events []event.DomainEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.EventName()
	}
	return out
}

func TestNew(t *testing.T) {
	x := newExport(t)

	assert.Equal(t, pdfexport.StatusPending, x.Status())
	assert.Equal(t, pdfexport.FormatPDF, x.Format())
	assert.Equal(t, pdfexport.DefaultOptions(), x.Options())
	assert.Equal(t, "Investor deck.pdf", x.FileName())
	assert.Equal(t, "0 B", x.FileSizeDisplay())

	events := x.PendingEvents()
	require.Len(t, events, 1)
	created := events[0].(pdfexport.Created)
	assert.Equal(t, "Investor deck", created.Title())
	assert.Equal(t, "PDF", created.Format())
	assert.Equal(t, "user-1", created.RequestedBy())
	assert.Equal(t, "proj-1", created.Payload().String("projectId", ""))
	assert.Equal(t, x.ID(), created.Payload().String("exportId", ""))
}

func TestNew_Rejects(t *testing.T) {
	badOpts := pdfexport.DefaultOptions()
	badOpts.FontSize = 30

	tests := []struct {
		name string
		p    pdfexport.Params
	}{
		{"missing project", pdfexport.Params{Title: "t", Format: "PDF"}},
		{"empty title", pdfexport.Params{ProjectID: "p", Title: "  ", Format: "PDF"}},
		{"bad format", pdfexport.Params{ProjectID: "p", Title: "t", Format: "RTF"}},
		{"content too long", pdfexport.Params{ProjectID: "p", Title: "t", Format: "PDF",
			Content: strings.Repeat("a", pdfexport.MaxContentLength+1)}},
		{"bad options", pdfexport.Params{ProjectID: "p", Title: "t", Format: "PDF", Options: &badOpts}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := pdfexport.New(tt.p)
			require.Error(t, err)
			assert.Nil(t, x)
			assert.True(t, tcerrors.IsValidation(err), "got %T", err)
		})
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*pdfexport.Options)
		ok     bool
	}{
		{"defaults", func(*pdfexport.Options) {}, true},
		{"letter landscape", func(o *pdfexport.Options) {
			o.PageSize = pdfexport.PageLetter
			o.Orientation = pdfexport.Landscape
		}, true},
		{"font at bounds", func(o *pdfexport.Options) { o.FontSize = 8 }, true},
		{"font too small", func(o *pdfexport.Options) { o.FontSize = 7 }, false},
		{"font too big", func(o *pdfexport.Options) { o.FontSize = 25 }, false},
		{"spacing at bound", func(o *pdfexport.Options) { o.LineSpacing = 3 }, true},
		{"spacing too small", func(o *pdfexport.Options) { o.LineSpacing = 0.5 }, false},
		{"unknown page size", func(o *pdfexport.Options) { o.PageSize = "B5" }, false},
		{"unknown orientation", func(o *pdfexport.Options) { o.Orientation = "diagonal" }, false},
		{"negative margin", func(o *pdfexport.Options) { o.Margin.Left = -1 }, false},
		{"no font family", func(o *pdfexport.Options) { o.FontFamily = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := pdfexport.DefaultOptions()
			tt.mutate(&o)
			err := o.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLifecycle(t *testing.T) {
	x := newExport(t)
	x.PullDomainEvents()

	require.NoError(t, x.StartProcessing())
	assert.Equal(t, pdfexport.StatusProcessing, x.Status())
	assert.True(t, tcerrors.IsStateTransition(x.StartProcessing()))

	require.NoError(t, x.Complete("https://files.example.com/deck.pdf", 1536, 12))
	assert.Equal(t, pdfexport.StatusCompleted, x.Status())
	assert.Equal(t, "1.5 KB", x.FileSizeDisplay())
	assert.Equal(t, 12, x.PageCount())

	events := x.PullDomainEvents()
	assert.Equal(t, []string{pdfexport.EventProcessingStarted, pdfexport.EventCompleted}, eventNames(events))
	started := events[0].(pdfexport.ProcessingStarted)
	assert.Equal(t, "PENDING", started.OldStatus())
	completed := events[1].(pdfexport.Completed)
	assert.Equal(t, "https://files.example.com/deck.pdf", completed.FileURL())
	assert.Equal(t, 1536, completed.FileSize())
	assert.Equal(t, 12, completed.PageCount())
}

func TestComplete_RequiresProcessing(t *testing.T) {
	x := newExport(t)
	x.PullDomainEvents()

	err := x.Complete("https://f", 1, 1)
	var serr *tcerrors.StateTransitionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "PENDING", serr.From)
	assert.False(t, x.HasPendingEvents())

	require.NoError(t, x.StartProcessing())
	x.PullDomainEvents()
	assert.Error(t, x.Complete("", 1, 1))
	assert.Error(t, x.Complete("https://f", -1, 1))
	assert.Error(t, x.Complete("https://f", 1, -1))
	assert.Equal(t, pdfexport.StatusProcessing, x.Status())
	assert.False(t, x.HasPendingEvents())
}

func TestFailAndRetry(t *testing.T) {
	x := newExport(t)
	require.NoError(t, x.StartProcessing())
	x.PullDomainEvents()

	require.NoError(t, x.Fail("renderer crashed"))
	assert.Equal(t, pdfexport.StatusFailed, x.Status())
	assert.Equal(t, "renderer crashed", x.ErrorMessage())

	events := x.PullDomainEvents()
	require.Len(t, events, 1)
	failed := events[0].(pdfexport.Failed)
	assert.Equal(t, "renderer crashed", failed.ErrorMessage())
	assert.Equal(t, "PROCESSING", failed.OldStatus())

	require.NoError(t, x.UpdateTitle("Investor deck v2"))
	require.NoError(t, x.StartProcessing())
	assert.Empty(t, x.ErrorMessage())
	require.NoError(t, x.Complete("https://f", 10, 1))

	assert.True(t, tcerrors.IsStateTransition(x.Fail("too late")))
	assert.Equal(t, pdfexport.StatusCompleted, x.Status())
}

func TestFail_RequiresMessage(t *testing.T) {
	x := newExport(t)
	assert.True(t, tcerrors.IsValidation(x.Fail("")))
	assert.Equal(t, pdfexport.StatusPending, x.Status())
}

func TestUpdates(t *testing.T) {
	x := newExport(t)
	x.PullDomainEvents()

	require.NoError(t, x.UpdateTitle("New title"))
	require.NoError(t, x.UpdateTitle("New title"))
	require.NoError(t, x.UpdateContent("different"))
	opts := pdfexport.DefaultOptions()
	opts.IncludeTableOfContents = true
	require.NoError(t, x.UpdateOptions(opts))
	require.NoError(t, x.UpdateOptions(opts))

	events := x.PullDomainEvents()
	require.Len(t, events, 3)
	fields := make([]string, len(events))
	for i, e := range events {
		fields[i] = e.(pdfexport.Updated).Field()
	}
	assert.Equal(t, []string{"title", "content", "options"}, fields)
	assert.True(t, x.Options().IncludeTableOfContents)

	bad := opts
	bad.LineSpacing = 4
	assert.Error(t, x.UpdateOptions(bad))
	assert.Equal(t, opts, x.Options())
}

func TestUpdates_RefusedWhileProcessing(t *testing.T) {
	x := newExport(t)
	require.NoError(t, x.StartProcessing())
	x.PullDomainEvents()

	assert.True(t, tcerrors.IsStateTransition(x.UpdateTitle("x")))
	assert.True(t, tcerrors.IsStateTransition(x.UpdateContent("x")))
	assert.True(t, tcerrors.IsStateTransition(x.UpdateOptions(pdfexport.DefaultOptions())))
	assert.False(t, x.HasPendingEvents())
	assert.Equal(t, "Investor deck", x.Title().Value())
}

func TestFileSizeDisplay(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1 MB"},
		{5 * 1024 * 1024 * 1024, "5 GB"},
		{3 * 1024 * 1024 * 1024 * 1024, "3072 GB"},
	}
	for _, tt := range tests {
		x := newExport(t)
		require.NoError(t, x.StartProcessing())
		require.NoError(t, x.Complete("https://f", tt.size, 1))
		assert.Equal(t, tt.want, x.FileSizeDisplay(), "size %d", tt.size)
	}
}

func TestStatusPredicates(t *testing.T) {
	for _, s := range pdfexport.Statuses() {
		want := s == pdfexport.StatusPending || s == pdfexport.StatusFailed
		assert.Equal(t, want, s.CanProcess(), s)
		assert.Equal(t, want, s.CanUpdate(), s)
	}
	for _, f := range pdfexport.Formats() {
		assert.NotEmpty(t, f.Extension(), f)
		assert.NotEqual(t, string(f), f.DisplayName(), f)
	}
}

func TestEncodeDecode(t *testing.T) {
	x := newExport(t)
	require.NoError(t, x.StartProcessing())
	require.NoError(t, x.Complete("https://f/deck.pdf", 2048, 4))

	data, err := pdfexport.Encode(x)
	require.NoError(t, err)
	got, err := pdfexport.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, x.Snapshot(), got.Snapshot())
	assert.False(t, got.HasPendingEvents())

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "2 KB", m["fileSizeDisplay"])
	assert.Equal(t, "COMPLETED", m["status"])
}

func TestRestore_Rejects(t *testing.T) {
	valid := newExport(t).Snapshot()

	tests := []struct {
		name   string
		mutate func(*pdfexport.Snapshot)
	}{
		{"bad id", func(s *pdfexport.Snapshot) { s.ID = "export_1" }},
		{"bad format", func(s *pdfexport.Snapshot) { s.Format = "RTF" }},
		{"bad status", func(s *pdfexport.Snapshot) { s.Status = "QUEUED" }},
		{"bad options", func(s *pdfexport.Snapshot) { s.Options.FontSize = 2 }},
		{"negative size", func(s *pdfexport.Snapshot) { s.FileSize = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := valid
			tt.mutate(&snap)
			_, err := pdfexport.Restore(snap)
			assert.Error(t, err)
		})
	}

	_, err := pdfexport.Decode([]byte(`{"status":"WHATEVER"}`))
	assert.Error(t, err)
}

func TestRegisterEvents(t *testing.T) {
	catalog := event.NewCatalog()
	require.NoError(t, pdfexport.RegisterEvents(catalog))

	x := newExport(t)
	require.NoError(t, x.UpdateTitle("changed"))
	require.NoError(t, x.StartProcessing())
	require.NoError(t, x.Fail("boom"))
	require.NoError(t, x.StartProcessing())
	require.NoError(t, x.Complete("https://f", 1, 1))

	for _, e := range x.PullDomainEvents() {
		assert.NoError(t, catalog.Validate(e), e.EventName())
	}
}
