package share

import (
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
)

// AggregateName identifies shares in the event catalog and in errors.
const AggregateName = "share"

// Event names emitted by Share.
const (
	EventCreated           = "ShareCreated"
	EventAccessed          = "ShareAccessed"
	EventRevoked           = "ShareRevoked"
	EventExpired           = "ShareExpired"
	EventPermissionUpdated = "SharePermissionUpdated"
	EventExpiryUpdated     = "ShareExpiryUpdated"
	EventPasswordUpdated   = "SharePasswordUpdated"
)

// Created is recorded when a share link is created.
type Created struct{ event.Base }

func (e Created) ResourceID() string   { return e.Payload().String("resourceId", "") }
func (e Created) ResourceType() string { return e.Payload().String("resourceType", "") }
func (e Created) Permission() string   { return e.Payload().String("permission", "") }
func (e Created) HasPassword() bool    { return e.Payload().Bool("hasPassword", false) }
func (e Created) HasExpiry() bool      { return e.Payload().Bool("hasExpiry", false) }
func (e Created) CreatedBy() string    { return e.Payload().String("createdBy", "") }

// Accessed is recorded on every successful access.
type Accessed struct{ event.Base }

func (e Accessed) AccessCount() int { return e.Payload().Int("accessCount", 0) }

// Revoked is recorded when the link is revoked.
type Revoked struct{ event.Base }

// Expired is recorded when the share moves to EXPIRED.
type Expired struct{ event.Base }

// PermissionUpdated is recorded when the permission changes.
type PermissionUpdated struct{ event.Base }

func (e PermissionUpdated) OldPermission() string { return e.Payload().String("oldPermission", "") }
func (e PermissionUpdated) NewPermission() string { return e.Payload().String("newPermission", "") }

// ExpiryUpdated is recorded when the expiry is set or cleared.
type ExpiryUpdated struct{ event.Base }

func (e ExpiryUpdated) HasExpiry() bool   { return e.Payload().Bool("hasExpiry", false) }
func (e ExpiryUpdated) OldStatus() string { return e.Payload().String("oldStatus", "") }
func (e ExpiryUpdated) Status() string    { return e.Payload().String("status", "") }

// PasswordUpdated is recorded when the password is set or removed.
type PasswordUpdated struct{ event.Base }

func (e PasswordUpdated) HasPassword() bool { return e.Payload().Bool("hasPassword", false) }
func (e PasswordUpdated) Status() string    { return e.Payload().String("status", "") }

// Schemas describes every share event.
func Schemas() []*event.Schema {
	with := func(keys ...string) []string {
		return append([]string{"shareId", "resourceId", "resourceType"}, keys...)
	}
	return []*event.Schema{
		{Name: EventCreated, Aggregate: AggregateName, Description: "A share link was created",
			Required: with("permission", "hasPassword", "hasExpiry"), Tags: []string{"lifecycle"}},
		{Name: EventAccessed, Aggregate: AggregateName, Description: "A share link was used",
			Required: with("accessCount"), Tags: []string{"access"}},
		{Name: EventRevoked, Aggregate: AggregateName, Description: "A share link was revoked",
			Required: with(), Tags: []string{"status"}},
		{Name: EventExpired, Aggregate: AggregateName, Description: "A share link expired",
			Required: with(), Tags: []string{"status"}},
		{Name: EventPermissionUpdated, Aggregate: AggregateName, Description: "Share permission changed",
			Required: with("oldPermission", "newPermission"), Tags: []string{"settings"}},
		{Name: EventExpiryUpdated, Aggregate: AggregateName, Description: "Share expiry changed",
			Required: with("hasExpiry", "oldStatus", "status"), Tags: []string{"settings"}},
		{Name: EventPasswordUpdated, Aggregate: AggregateName, Description: "Share password changed",
			Required: with("hasPassword", "status"), Tags: []string{"settings"}},
	}
}

// RegisterEvents adds every share event to c.
func RegisterEvents(c *event.Catalog) error {
	for _, s := range Schemas() {
		if err := c.Register(s); err != nil {
			return err
		}
	}
	return nil
}
