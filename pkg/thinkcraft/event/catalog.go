package event

import (
	"fmt"
	"slices"
	"sort"
	"sync"
)

// Schema describes one event name.
type Schema struct {
	// Name is the event name (e.g., "ReportGenerated").
	Name string

	// Aggregate is the kind of aggregate that emits it (e.g., "report").
	Aggregate string

	// Description explains the event's purpose.
	Description string

	// Required lists payload keys every instance must carry.
	Required []string

	// Tags enable grouping (e.g., "status", "audit").
	Tags []string
}

// Validate checks that evt conforms to the schema.
func (s *Schema) Validate(evt DomainEvent) error {
	if evt.EventName() != s.Name {
		return fmt.Errorf("event name mismatch: expected %s, got %s", s.Name, evt.EventName())
	}
	payload := evt.Payload()
	for _, key := range s.Required {
		if !payload.Has(key) {
			return fmt.Errorf("event %s: missing payload key %q", s.Name, key)
		}
	}
	return nil
}

// Catalog is the set of event names known to the process.
type Catalog struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{schemas: make(map[string]*Schema)}
}

// Register adds a schema. Registering the same name twice with a different
// aggregate is an error; re-registering an identical owner replaces it.
func (c *Catalog) Register(schema *Schema) error {
	if schema == nil || schema.Name == "" {
		return ErrUnnamedEvent
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.schemas[schema.Name]; ok && existing.Aggregate != schema.Aggregate {
		return fmt.Errorf("event %s already registered by %s", schema.Name, existing.Aggregate)
	}
	c.schemas[schema.Name] = schema
	return nil
}

// MustRegister registers schemas and panics on error.
func (c *Catalog) MustRegister(schemas ...*Schema) {
	for _, s := range schemas {
		if err := c.Register(s); err != nil {
			panic(err)
		}
	}
}

// Get returns the schema for name.
func (c *Catalog) Get(name string) (*Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.schemas[name]
	return s, ok
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Validate checks evt against its registered schema.
func (c *Catalog) Validate(evt DomainEvent) error {
	s, ok := c.Get(evt.EventName())
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, evt.EventName())
	}
	return s.Validate(evt)
}

// Names returns all registered names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByAggregate returns the names emitted by one aggregate kind, sorted.
func (c *Catalog) ByAggregate(aggregate string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var names []string
	for name, s := range c.schemas {
		if s.Aggregate == aggregate {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ByTag returns the names carrying tag, sorted.
func (c *Catalog) ByTag(tag string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var names []string
	for name, s := range c.schemas {
		if slices.Contains(s.Tags, tag) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
