// Package app wires aggregates to persistence and the event bus.
//
// Every use case follows the same shape: load the aggregate, run one
// operation on it, save it. Saving writes the snapshot first and only then
// drains the pending events and publishes them, so subscribers never see an
// event whose state change was not stored. When the write fails the events
// stay in the aggregate's buffer and nothing is published.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/domain"
	tcerrors "github.com/randalmurphal/thinkcraft/pkg/thinkcraft/errors"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/observability"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/store"
)

// Codec converts an aggregate to and from its stored form.
type Codec[A domain.Aggregate] struct {
	// Kind names the aggregate in the store and in errors.
	Kind   string
	Encode func(A) ([]byte, error)
	Decode func([]byte) (A, error)
}

// Repository loads and saves one kind of aggregate.
type Repository[A domain.Aggregate] struct {
	store  store.Store
	bus    event.Publisher
	codec  Codec[A]
	logger *slog.Logger
}

// NewRepository creates a repository. A nil logger disables logging.
func NewRepository[A domain.Aggregate](s store.Store, bus event.Publisher, codec Codec[A], logger *slog.Logger) *Repository[A] {
	return &Repository[A]{
		store:  s,
		bus:    bus,
		codec:  codec,
		logger: observability.EnrichLogger(logger, codec.Kind+"_repository"),
	}
}

// Load reconstitutes the aggregate with the given id. The result has no
// pending events.
func (r *Repository[A]) Load(ctx context.Context, id string) (A, error) {
	var zero A
	rec, err := r.store.Load(ctx, r.codec.Kind, id)
	if errors.Is(err, store.ErrNotFound) {
		return zero, &tcerrors.NotFoundError{Kind: r.codec.Kind, ID: id}
	}
	if err != nil {
		return zero, fmt.Errorf("load %s %s: %w", r.codec.Kind, id, err)
	}
	a, err := r.codec.Decode(rec.Data)
	if err != nil {
		return zero, fmt.Errorf("decode %s %s: %w", r.codec.Kind, id, err)
	}
	return a, nil
}

// Save persists a and publishes its pending events. An aggregate without
// pending events is left untouched.
//
// The write is guarded by the version a was loaded at; if another writer
// saved in between, Save returns a *errors.ConflictError and a keeps its
// events.
func (r *Repository[A]) Save(ctx context.Context, a A) error {
	pending := a.PendingEvents()
	if len(pending) == 0 {
		return nil
	}

	data, err := r.codec.Encode(a)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", r.codec.Kind, a.ID(), err)
	}
	rec := store.Record{
		Kind:    r.codec.Kind,
		ID:      a.ID(),
		Version: a.Version(),
		Data:    data,
	}
	if err := r.store.Save(ctx, rec, a.Version()-len(pending)); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return &tcerrors.ConflictError{Kind: r.codec.Kind, ID: a.ID()}
		}
		return fmt.Errorf("save %s %s: %w", r.codec.Kind, a.ID(), err)
	}

	events := a.PullDomainEvents()
	if err := r.bus.PublishAll(ctx, events...); err != nil {
		// The state is stored; only dispatch failed.
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "publish after save failed",
				slog.String("aggregate_id", a.ID()),
				slog.Int("events", len(events)),
				slog.String("error", err.Error()),
			)
		}
		return fmt.Errorf("publish %s %s events: %w", r.codec.Kind, a.ID(), err)
	}
	return nil
}

// Update loads the aggregate, applies fn and saves the result.
//
// When fn fails the aggregate is still saved if the failed operation
// recorded events (a share that expires on access, for instance); fn's
// error is returned either way.
func (r *Repository[A]) Update(ctx context.Context, id string, fn func(A) error) (A, error) {
	a, err := r.Load(ctx, id)
	if err != nil {
		return a, err
	}
	opErr := fn(a)
	if err := r.Save(ctx, a); err != nil {
		return a, errors.Join(opErr, err)
	}
	return a, opErr
}

// IDs returns the ids of every stored aggregate of this kind, sorted.
func (r *Repository[A]) IDs(ctx context.Context) ([]string, error) {
	infos, err := r.store.List(ctx, r.codec.Kind)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.codec.Kind, err)
	}
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
	}
	return ids, nil
}

// Delete removes the stored aggregate. No event is published.
func (r *Repository[A]) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, r.codec.Kind, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", r.codec.Kind, id, err)
	}
	return nil
}
