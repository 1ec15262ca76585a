package share

import (
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/domain"
)

// Length limits in characters.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000

	// MaxPasswordBytes is the longest password bcrypt accepts.
	MaxPasswordBytes = 72
)

const idPrefix = "shr"

// NewID returns a fresh share identifier.
func NewID() string { return domain.NewID(idPrefix) }

// ParseID validates a share identifier.
func ParseID(s string) (string, error) { return domain.ParseID("shareId", idPrefix, s) }

// Status is the lifecycle state of a share.
type Status string

const (
	StatusActive            Status = "ACTIVE"
	StatusPasswordProtected Status = "PASSWORD_PROTECTED"
	StatusExpired           Status = "EXPIRED"
	StatusRevoked           Status = "REVOKED"
)

// Statuses returns every status.
func Statuses() []Status {
	return []Status{StatusActive, StatusPasswordProtected, StatusExpired, StatusRevoked}
}

// ParseStatus converts a string into a Status.
func ParseStatus(s string) (Status, error) {
	return domain.ParseEnum("share status", s, Statuses())
}

func (s Status) Valid() bool    { return domain.IsMember(s, Statuses()) }
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

// Usable reports whether a share in this status can be accessed at all.
func (s Status) Usable() bool {
	switch s {
	case StatusActive, StatusPasswordProtected:
		return true
	case StatusExpired, StatusRevoked:
		return false
	}
	return false
}

// Permission is what the holder of a share link may do.
type Permission string

const (
	PermissionRead    Permission = "READ"
	PermissionComment Permission = "COMMENT"
	PermissionWrite   Permission = "WRITE"
	PermissionAdmin   Permission = "ADMIN"
)

// Permissions returns every permission from least to most privileged.
func Permissions() []Permission {
	return []Permission{PermissionRead, PermissionComment, PermissionWrite, PermissionAdmin}
}

// ParsePermission converts a string into a Permission.
func ParsePermission(s string) (Permission, error) {
	return domain.ParseEnum("share permission", s, Permissions())
}

func (p Permission) Valid() bool    { return domain.IsMember(p, Permissions()) }
func (p Permission) String() string { return string(p) }

// UnmarshalText rejects unknown permissions when decoding.
func (p *Permission) UnmarshalText(b []byte) error {
	v, err := ParsePermission(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p Permission) level() int {
	switch p {
	case PermissionRead:
		return 1
	case PermissionComment:
		return 2
	case PermissionWrite:
		return 3
	case PermissionAdmin:
		return 4
	}
	return 0
}

// Allows reports whether p grants at least required.
func (p Permission) Allows(required Permission) bool {
	return p.level() >= required.level() && required.level() > 0
}

// ResourceType is the kind of entity a share points at.
type ResourceType string

const (
	ResourceProject      ResourceType = "PROJECT"
	ResourceReport       ResourceType = "REPORT"
	ResourceBusinessPlan ResourceType = "BUSINESS_PLAN"
	ResourceExport       ResourceType = "EXPORT"
)

// ResourceTypes returns every resource type.
func ResourceTypes() []ResourceType {
	return []ResourceType{ResourceProject, ResourceReport, ResourceBusinessPlan, ResourceExport}
}

// ParseResourceType converts a string into a ResourceType.
func ParseResourceType(s string) (ResourceType, error) {
	return domain.ParseEnum("share resource type", s, ResourceTypes())
}

func (r ResourceType) Valid() bool    { return domain.IsMember(r, ResourceTypes()) }
func (r ResourceType) String() string { return string(r) }

// UnmarshalText rejects unknown resource types when decoding.
func (r *ResourceType) UnmarshalText(b []byte) error {
	v, err := ParseResourceType(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Title names a share: trimmed, non-empty, at most 200 characters.
type Title struct{ value string }

// NewTitle validates raw.
func NewTitle(raw string) (Title, error) {
	v, err := domain.Text("title", raw, domain.TextRule{Max: MaxTitleLength})
	if err != nil {
		return Title{}, err
	}
	return Title{value: v}, nil
}

func (t Title) Value() string           { return t.value }
func (t Title) String() string          { return t.value }
func (t Title) Equals(other Title) bool { return t.value == other.value }

func (t Title) MarshalText() ([]byte, error) { return []byte(t.value), nil }

func (t *Title) UnmarshalText(b []byte) error {
	v, err := NewTitle(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Description is an optional note shown to recipients, at most 1000
// characters.
type Description struct{ value string }

// NewDescription validates raw. Empty is allowed.
func NewDescription(raw string) (Description, error) {
	v, err := domain.Text("description", raw, domain.TextRule{Max: MaxDescriptionLength, AllowEmpty: true})
	if err != nil {
		return Description{}, err
	}
	return Description{value: v}, nil
}

func (d Description) Value() string                 { return d.value }
func (d Description) String() string                { return d.value }
func (d Description) Equals(other Description) bool { return d.value == other.value }
