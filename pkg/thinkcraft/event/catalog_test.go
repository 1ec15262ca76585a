package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
)

func testCatalog(t *testing.T) *event.Catalog {
	t.Helper()
	c := event.NewCatalog()
	c.MustRegister(
		&event.Schema{Name: "ReportCreated", Aggregate: "report", Required: []string{"title"}, Tags: []string{"lifecycle"}},
		&event.Schema{Name: "ReportArchived", Aggregate: "report", Tags: []string{"status"}},
		&event.Schema{Name: "ShareRevoked", Aggregate: "share", Tags: []string{"status"}},
	)
	return c
}

func TestCatalog_Lookup(t *testing.T) {
	c := testCatalog(t)

	assert.True(t, c.Has("ReportCreated"))
	assert.False(t, c.Has("ReportDeleted"))

	s, ok := c.Get("ShareRevoked")
	require.True(t, ok)
	assert.Equal(t, "share", s.Aggregate)

	assert.Equal(t, []string{"ReportArchived", "ReportCreated", "ShareRevoked"}, c.Names())
	assert.Equal(t, []string{"ReportArchived", "ReportCreated"}, c.ByAggregate("report"))
	assert.Equal(t, []string{"ReportArchived", "ShareRevoked"}, c.ByTag("status"))
	assert.Empty(t, c.ByAggregate("nothing"))
}

func TestCatalog_Register(t *testing.T) {
	c := testCatalog(t)

	assert.ErrorIs(t, c.Register(&event.Schema{}), event.ErrUnnamedEvent)
	assert.ErrorIs(t, c.Register(nil), event.ErrUnnamedEvent)

	err := c.Register(&event.Schema{Name: "ReportCreated", Aggregate: "share"})
	assert.ErrorContains(t, err, "already registered by report")

	// Same owner may re-register.
	require.NoError(t, c.Register(&event.Schema{Name: "ReportCreated", Aggregate: "report"}))

	assert.Panics(t, func() {
		c.MustRegister(&event.Schema{Name: "ShareRevoked", Aggregate: "report"})
	})
}

func TestCatalog_Validate(t *testing.T) {
	c := testCatalog(t)

	ok := event.MustNew("ReportCreated", "r1", event.Payload{"title": "Q3"})
	assert.NoError(t, c.Validate(ok))

	missing := event.MustNew("ReportCreated", "r1", nil)
	assert.ErrorContains(t, c.Validate(missing), `missing payload key "title"`)

	unknown := event.MustNew("Nope", "r1", nil)
	assert.ErrorIs(t, c.Validate(unknown), event.ErrUnknownEvent)
}
