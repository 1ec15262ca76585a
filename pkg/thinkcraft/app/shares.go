package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tcerrors "github.com/randalmurphal/thinkcraft/pkg/thinkcraft/errors"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/share"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/store"
)

// ShareService runs share link use cases.
type ShareService struct {
	repo    *Repository[*share.Share]
	now     func() time.Time
	baseURL string
	logger  *slog.Logger
}

// NewShareService creates the service. clock defaults to time.Now.
func NewShareService(s store.Store, bus event.Publisher, logger *slog.Logger, clock func() time.Time, baseURL string) *ShareService {
	if clock == nil {
		clock = time.Now
	}
	return &ShareService{
		repo: NewRepository(s, bus, Codec[*share.Share]{
			Kind:   share.AggregateName,
			Encode: share.Encode,
			Decode: share.Decode,
		}, logger),
		now:     clock,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Create creates a share link.
func (s *ShareService) Create(ctx context.Context, p share.Params) (*share.Share, error) {
	sh, err := share.New(p, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// Get loads a share.
func (s *ShareService) Get(ctx context.Context, id string) (*share.Share, error) {
	return s.repo.Load(ctx, id)
}

// Link returns the public URL of a share.
func (s *ShareService) Link(ctx context.Context, id string) (string, error) {
	sh, err := s.repo.Load(ctx, id)
	if err != nil {
		return "", err
	}
	return sh.Link(s.baseURL), nil
}

// Access opens a share. A share found past its expiry is stored as
// expired before the refusal is returned.
func (s *ShareService) Access(ctx context.Context, id, password string) (share.Grant, error) {
	var grant share.Grant
	_, err := s.repo.Update(ctx, id, func(sh *share.Share) error {
		var err error
		grant, err = sh.Access(password, s.now())
		return err
	})
	return grant, err
}

// Revoke disables a share.
func (s *ShareService) Revoke(ctx context.Context, id string) (*share.Share, error) {
	return s.repo.Update(ctx, id, func(sh *share.Share) error { return sh.Revoke(s.now()) })
}

// UpdatePermission changes what a share allows.
func (s *ShareService) UpdatePermission(ctx context.Context, id, permission string) (*share.Share, error) {
	return s.repo.Update(ctx, id, func(sh *share.Share) error { return sh.UpdatePermission(permission, s.now()) })
}

// UpdateExpiry sets or, with a zero time, clears the expiry.
func (s *ShareService) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) (*share.Share, error) {
	return s.repo.Update(ctx, id, func(sh *share.Share) error { return sh.UpdateExpiry(expiresAt, s.now()) })
}

// UpdatePassword sets or, with "", removes the password.
func (s *ShareService) UpdatePassword(ctx context.Context, id, password string) (*share.Share, error) {
	return s.repo.Update(ctx, id, func(sh *share.Share) error { return sh.UpdatePassword(password, s.now()) })
}

// Stats returns usage statistics of a share.
func (s *ShareService) Stats(ctx context.Context, id string) (share.Stats, error) {
	sh, err := s.repo.Load(ctx, id)
	if err != nil {
		return share.Stats{}, err
	}
	return sh.Stats(s.now()), nil
}

// ExpireDue moves every usable share whose expiry has passed to EXPIRED
// and returns how many were expired. A share changed concurrently is
// skipped; the next sweep picks it up.
func (s *ShareService) ExpireDue(ctx context.Context) (int, error) {
	ids, err := s.repo.IDs(ctx)
	if err != nil {
		return 0, err
	}

	expired := 0
	var errs []error
	for _, id := range ids {
		now := s.now()
		sh, err := s.repo.Load(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !sh.Status().Usable() || !sh.HasExpiry() || !now.After(sh.ExpiresAt()) {
			continue
		}
		sh.Expire(now)
		if err := s.repo.Save(ctx, sh); err != nil {
			if tcerrors.IsConflict(err) {
				if s.logger != nil {
					s.logger.InfoContext(ctx, "share changed during expiry sweep", slog.String("share_id", id))
				}
				continue
			}
			errs = append(errs, err)
			continue
		}
		expired++
	}
	return expired, errors.Join(errs...)
}
