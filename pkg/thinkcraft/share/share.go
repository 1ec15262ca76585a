package share

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/domain"
	tcerrors "github.com/randalmurphal/thinkcraft/pkg/thinkcraft/errors"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
)

const (
	linkLength   = 16
	linkAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// HashCost is the bcrypt cost used for new passwords. Tests lower it.
var HashCost = bcrypt.DefaultCost

// Share is the aggregate root for a link granting access to a resource.
type Share struct {
	domain.AggregateRoot

	resourceID     string
	resourceType   ResourceType
	link           string
	title          Title
	description    Description
	permission     Permission
	status         Status
	passwordHash   []byte
	expiresAt      time.Time
	accessCount    int
	lastAccessedAt time.Time
	createdBy      string
	createdAt      time.Time
	updatedAt      time.Time
}

// Params holds the inputs for New. An empty Permission means READ and a
// zero ExpiresAt means the link never expires.
type Params struct {
	ResourceID   string
	ResourceType string
	Title        string
	Description  string
	Permission   string
	Password     string
	ExpiresAt    time.Time
	CreatedBy    string
}

// Grant is what a successful Access hands back to the caller.
type Grant struct {
	ShareID      string
	ResourceID   string
	ResourceType ResourceType
	Permission   Permission
	AccessCount  int
}

// New creates a share and records ShareCreated.
func New(p Params, now time.Time) (*Share, error) {
	resourceID, err := domain.RequireRef("resourceId", p.ResourceID)
	if err != nil {
		return nil, err
	}
	resourceType, err := ParseResourceType(p.ResourceType)
	if err != nil {
		return nil, err
	}
	title, err := NewTitle(p.Title)
	if err != nil {
		return nil, err
	}
	description, err := NewDescription(p.Description)
	if err != nil {
		return nil, err
	}
	permission := PermissionRead
	if p.Permission != "" {
		if permission, err = ParsePermission(p.Permission); err != nil {
			return nil, err
		}
	}
	createdBy, err := domain.RequireRef("createdBy", p.CreatedBy)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(p.Password)
	if err != nil {
		return nil, err
	}
	link, err := newLink()
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	s := &Share{
		AggregateRoot: domain.NewAggregateRoot(NewID()),
		resourceID:    resourceID,
		resourceType:  resourceType,
		link:          link,
		title:         title,
		description:   description,
		permission:    permission,
		passwordHash:  hash,
		createdBy:     createdBy,
		createdAt:     now,
		updatedAt:     now,
	}
	if !p.ExpiresAt.IsZero() {
		s.expiresAt = p.ExpiresAt.UTC()
	}
	s.status = s.openStatus()
	if s.pastExpiry(now) && s.status == StatusActive {
		s.status = StatusExpired
	}

	s.record(EventCreated, func(b event.Base) event.DomainEvent { return Created{b} }, event.Payload{
		"permission":  string(permission),
		"hasPassword": s.HasPassword(),
		"hasExpiry":   s.HasExpiry(),
		"createdBy":   createdBy,
	})
	return s, nil
}

// Accessors.

func (s *Share) ResourceID() string         { return s.resourceID }
func (s *Share) ResourceType() ResourceType { return s.resourceType }
func (s *Share) ShareLink() string          { return s.link }
func (s *Share) Title() Title               { return s.title }
func (s *Share) Description() Description   { return s.description }
func (s *Share) Permission() Permission     { return s.permission }
func (s *Share) Status() Status             { return s.status }
func (s *Share) ExpiresAt() time.Time       { return s.expiresAt }
func (s *Share) AccessCount() int           { return s.accessCount }
func (s *Share) LastAccessedAt() time.Time  { return s.lastAccessedAt }
func (s *Share) CreatedBy() string          { return s.createdBy }
func (s *Share) CreatedAt() time.Time       { return s.createdAt }
func (s *Share) UpdatedAt() time.Time       { return s.updatedAt }
func (s *Share) HasPassword() bool          { return len(s.passwordHash) > 0 }
func (s *Share) HasExpiry() bool            { return !s.expiresAt.IsZero() }

// Link returns the public URL of the share under baseURL.
func (s *Share) Link(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/share/" + s.link
}

// CheckPassword reports whether password opens the share. Shares without a
// password accept anything.
func (s *Share) CheckPassword(password string) bool {
	if !s.HasPassword() {
		return true
	}
	return bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
}

// IsValid reports whether the share could be accessed at now, ignoring the
// password. It never changes state.
func (s *Share) IsValid(now time.Time) bool {
	return s.status.Usable() && !s.pastExpiry(now)
}

// Access checks the share and the password and counts the visit. When the
// expiry has passed since the last check the share moves to EXPIRED,
// ShareExpired is recorded and an error is still returned.
func (s *Share) Access(password string, now time.Time) (Grant, error) {
	if !s.status.Usable() {
		return Grant{}, s.transitionError("access", "")
	}
	if s.pastExpiry(now) {
		s.expire(now)
		return Grant{}, s.transitionError("access", "share has expired")
	}
	if !s.CheckPassword(password) {
		return Grant{}, tcerrors.Invalid("password", "incorrect password")
	}

	s.accessCount++
	s.lastAccessedAt = now.UTC()
	s.updatedAt = s.lastAccessedAt
	s.record(EventAccessed, func(b event.Base) event.DomainEvent { return Accessed{b} }, event.Payload{
		"accessCount": s.accessCount,
	})
	return Grant{
		ShareID:      s.ID(),
		ResourceID:   s.resourceID,
		ResourceType: s.resourceType,
		Permission:   s.permission,
		AccessCount:  s.accessCount,
	}, nil
}

// Revoke disables the link for good.
func (s *Share) Revoke(now time.Time) error {
	if s.status == StatusRevoked {
		return s.transitionError("revoke", "already revoked")
	}
	old := s.status
	s.status = StatusRevoked
	s.updatedAt = now.UTC()
	s.record(EventRevoked, func(b event.Base) event.DomainEvent { return Revoked{b} }, event.Payload{
		"oldStatus": string(old),
	})
	return nil
}

// Expire moves the share to EXPIRED. It does nothing when the share is
// already expired or revoked.
func (s *Share) Expire(now time.Time) {
	if s.status == StatusExpired || s.status == StatusRevoked {
		return
	}
	s.expire(now)
}

// UpdatePermission changes what the link allows.
func (s *Share) UpdatePermission(raw string, now time.Time) error {
	if err := s.requireNotRevoked("update permission"); err != nil {
		return err
	}
	next, err := ParsePermission(raw)
	if err != nil {
		return err
	}
	if next == s.permission {
		return nil
	}
	old := s.permission
	s.permission = next
	s.updatedAt = now.UTC()
	s.record(EventPermissionUpdated, func(b event.Base) event.DomainEvent { return PermissionUpdated{b} }, event.Payload{
		"oldPermission": string(old),
		"newPermission": string(next),
	})
	return nil
}

// UpdateExpiry sets a new expiry, or clears it when expiresAt is zero. A
// past expiry expires the share; a future or cleared expiry reopens an
// expired share.
func (s *Share) UpdateExpiry(expiresAt, now time.Time) error {
	if err := s.requireNotRevoked("update expiry"); err != nil {
		return err
	}
	old := s.status
	s.expiresAt = time.Time{}
	if !expiresAt.IsZero() {
		s.expiresAt = expiresAt.UTC()
	}
	switch {
	case s.pastExpiry(now):
		s.status = StatusExpired
	case s.status == StatusExpired:
		s.status = s.openStatus()
	}
	s.updatedAt = now.UTC()

	payload := event.Payload{
		"hasExpiry": s.HasExpiry(),
		"oldStatus": string(old),
		"status":    string(s.status),
	}
	if s.HasExpiry() {
		payload["expiresAt"] = s.expiresAt.Format(time.RFC3339)
	}
	s.record(EventExpiryUpdated, func(b event.Base) event.DomainEvent { return ExpiryUpdated{b} }, payload)
	return nil
}

// UpdatePassword sets a new password, or removes it when password is
// empty. An expired share stays expired.
func (s *Share) UpdatePassword(password string, now time.Time) error {
	if err := s.requireNotRevoked("update password"); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	s.passwordHash = hash
	if s.status != StatusExpired {
		s.status = s.openStatus()
	}
	s.updatedAt = now.UTC()
	s.record(EventPasswordUpdated, func(b event.Base) event.DomainEvent { return PasswordUpdated{b} }, event.Payload{
		"hasPassword": s.HasPassword(),
		"status":      string(s.status),
	})
	return nil
}

// Stats summarizes usage of the share as seen at now.
type Stats struct {
	AccessCount         int        `json:"accessCount"`
	LastAccessedAt      *time.Time `json:"lastAccessedAt"`
	DaysSinceCreated    int        `json:"daysSinceCreated"`
	DaysSinceLastAccess *int       `json:"daysSinceLastAccess"`
	IsExpired           bool       `json:"isExpired"`
	DaysUntilExpiry     *int       `json:"daysUntilExpiry"`
}

// Stats computes usage figures. Day counts are whole days, rounded down.
func (s *Share) Stats(now time.Time) Stats {
	st := Stats{
		AccessCount:      s.accessCount,
		DaysSinceCreated: days(now.Sub(s.createdAt)),
		IsExpired:        s.status == StatusExpired || s.pastExpiry(now),
	}
	if !s.lastAccessedAt.IsZero() {
		at := s.lastAccessedAt
		st.LastAccessedAt = &at
		d := days(now.Sub(at))
		st.DaysSinceLastAccess = &d
	}
	if s.HasExpiry() {
		d := max(days(s.expiresAt.Sub(now)), 0)
		st.DaysUntilExpiry = &d
	}
	return st
}

func days(d time.Duration) int {
	return int(d / (24 * time.Hour))
}

func (s *Share) expire(now time.Time) {
	old := s.status
	s.status = StatusExpired
	s.updatedAt = now.UTC()
	s.record(EventExpired, func(b event.Base) event.DomainEvent { return Expired{b} }, event.Payload{
		"oldStatus": string(old),
	})
}

// openStatus is the status of a usable share given its password.
func (s *Share) openStatus() Status {
	if s.HasPassword() {
		return StatusPasswordProtected
	}
	return StatusActive
}

func (s *Share) pastExpiry(now time.Time) bool {
	return s.HasExpiry() && now.After(s.expiresAt)
}

func (s *Share) requireNotRevoked(action string) error {
	if s.status == StatusRevoked {
		return s.transitionError(action, "")
	}
	return nil
}

func (s *Share) transitionError(action, reason string) error {
	return &tcerrors.StateTransitionError{
		Aggregate: AggregateName,
		ID:        s.ID(),
		From:      string(s.status),
		Action:    action,
		Reason:    reason,
	}
}

func (s *Share) record(name string, wrap func(event.Base) event.DomainEvent, payload event.Payload) {
	payload["shareId"] = s.ID()
	payload["resourceId"] = s.resourceID
	payload["resourceType"] = string(s.resourceType)
	s.Record(wrap(event.MustNew(name, s.ID(), payload)))
}

func hashPassword(password string) ([]byte, error) {
	if password == "" {
		return nil, nil
	}
	if len(password) > MaxPasswordBytes {
		return nil, tcerrors.Invalid("password", "must be at most %d bytes", MaxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func newLink() (string, error) {
	limit := big.NewInt(int64(len(linkAlphabet)))
	var b strings.Builder
	b.Grow(linkLength)
	for range linkLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate share link: %w", err)
		}
		b.WriteByte(linkAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// Snapshot is the persisted form of a Share, including the password hash.
type Snapshot struct {
	ID             string       `json:"id"`
	Version        int          `json:"version"`
	ResourceID     string       `json:"resourceId"`
	ResourceType   ResourceType `json:"resourceType"`
	ShareLink      string       `json:"shareLink"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Permission     Permission   `json:"permission"`
	Status         Status       `json:"status"`
	PasswordHash   string       `json:"passwordHash,omitempty"`
	ExpiresAt      *time.Time   `json:"expiresAt,omitempty"`
	AccessCount    int          `json:"accessCount"`
	LastAccessedAt *time.Time   `json:"lastAccessedAt,omitempty"`
	CreatedBy      string       `json:"createdBy"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// Snapshot returns a copy of the share state.
func (s *Share) Snapshot() Snapshot {
	snap := Snapshot{
		ID:           s.ID(),
		Version:      s.Version(),
		ResourceID:   s.resourceID,
		ResourceType: s.resourceType,
		ShareLink:    s.link,
		Title:        s.title.Value(),
		Description:  s.description.Value(),
		Permission:   s.permission,
		Status:       s.status,
		PasswordHash: string(s.passwordHash),
		AccessCount:  s.accessCount,
		CreatedBy:    s.createdBy,
		CreatedAt:    s.createdAt,
		UpdatedAt:    s.updatedAt,
	}
	if s.HasExpiry() {
		at := s.expiresAt
		snap.ExpiresAt = &at
	}
	if !s.lastAccessedAt.IsZero() {
		at := s.lastAccessedAt
		snap.LastAccessedAt = &at
	}
	return snap
}

// view is the public JSON projection. It never carries the hash.
type view struct {
	ID           string       `json:"id"`
	ResourceID   string       `json:"resourceId"`
	ResourceType ResourceType `json:"resourceType"`
	ShareLink    string       `json:"shareLink"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Permission   Permission   `json:"permission"`
	Status       Status       `json:"status"`
	HasPassword  bool         `json:"hasPassword"`
	ExpiresAt    *time.Time   `json:"expiresAt"`
	CreatedBy    string       `json:"createdBy"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	IsValid      bool         `json:"isValid"`
	Stats        Stats        `json:"stats"`
}

// MarshalJSON implements json.Marshaler with the public projection.
func (s *Share) MarshalJSON() ([]byte, error) {
	now := time.Now().UTC()
	snap := s.Snapshot()
	return json.Marshal(view{
		ID:           snap.ID,
		ResourceID:   snap.ResourceID,
		ResourceType: snap.ResourceType,
		ShareLink:    snap.ShareLink,
		Title:        snap.Title,
		Description:  snap.Description,
		Permission:   snap.Permission,
		Status:       snap.Status,
		HasPassword:  s.HasPassword(),
		ExpiresAt:    snap.ExpiresAt,
		CreatedBy:    snap.CreatedBy,
		CreatedAt:    snap.CreatedAt,
		UpdatedAt:    snap.UpdatedAt,
		IsValid:      s.IsValid(now),
		Stats:        s.Stats(now),
	})
}

// Restore reconstitutes a share from a snapshot without recording events.
func Restore(snap Snapshot) (*Share, error) {
	id, err := ParseID(snap.ID)
	if err != nil {
		return nil, err
	}
	if !snap.ResourceType.Valid() {
		_, err := ParseResourceType(string(snap.ResourceType))
		return nil, err
	}
	if !snap.Permission.Valid() {
		_, err := ParsePermission(string(snap.Permission))
		return nil, err
	}
	if !snap.Status.Valid() {
		_, err := ParseStatus(string(snap.Status))
		return nil, err
	}
	if len(snap.ShareLink) != linkLength {
		return nil, tcerrors.Invalid("shareLink", "must be %d characters", linkLength)
	}
	title, err := NewTitle(snap.Title)
	if err != nil {
		return nil, err
	}
	description, err := NewDescription(snap.Description)
	if err != nil {
		return nil, err
	}
	if snap.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(snap.PasswordHash)); err != nil {
			return nil, errors.Join(tcerrors.Invalid("passwordHash", "not a bcrypt hash"), err)
		}
	}

	s := &Share{
		AggregateRoot: domain.RestoreAggregateRoot(id, snap.Version),
		resourceID:    snap.ResourceID,
		resourceType:  snap.ResourceType,
		link:          snap.ShareLink,
		title:         title,
		description:   description,
		permission:    snap.Permission,
		status:        snap.Status,
		accessCount:   snap.AccessCount,
		createdBy:     snap.CreatedBy,
		createdAt:     snap.CreatedAt,
		updatedAt:     snap.UpdatedAt,
	}
	if snap.PasswordHash != "" {
		s.passwordHash = []byte(snap.PasswordHash)
	}
	if snap.ExpiresAt != nil {
		s.expiresAt = *snap.ExpiresAt
	}
	if snap.LastAccessedAt != nil {
		s.lastAccessedAt = *snap.LastAccessedAt
	}
	return s, nil
}

// Encode returns the persisted JSON form of s.
func Encode(s *Share) ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// Decode reconstitutes a share from the output of Encode.
func Decode(data []byte) (*Share, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode share: %w", err)
	}
	return Restore(snap)
}
