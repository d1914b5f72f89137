package events

import (
	"context"
	"time"
)

// Event types published on the access-control topic. Consumers (audit
// trail, cache invalidation in other services) key off Type.
const (
	EventUserRegistered    = "user.registered"
	EventUserRoleAssigned  = "user.role_assigned"
	EventUserRoleRemoved   = "user.role_removed"
	EventUserGrantAdded    = "user.grant_added"
	EventUserGrantRemoved  = "user.grant_removed"
	EventRoleCreated       = "role.created"
	EventRoleDeleted       = "role.deleted"
	EventRoleGrantAttached = "role.grant_attached"
	EventRoleGrantDetached = "role.grant_detached"
	EventGrantCreated      = "grant.created"
	EventGrantUpdated      = "grant.updated"
	EventGrantDeleted      = "grant.deleted"
	EventSchoolProvisioned = "school.provisioned"
	EventEnrollmentCreated = "enrollment.created"
	EventEnrollmentUpdated = "enrollment.status_changed"
)

// Event is the envelope every published message shares.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// EventPublisher abstracts the broker so services and tests do not
// depend on Kafka directly.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, data interface{}) error
	Close() error
}
