// Package audit defines the audit trail of security and data-changing actions.
package audit

import (
	"context"
	"time"

	id "floodrelief/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers changes to personal data: accounts and owned records.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers authentication failures, denials and privilege changes.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity such as logins and logouts.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// AccountID is the account the action concerns; zero for anonymous callers.
	AccountID id.AccountID
	// ActorID is set when an admin acts on someone else's account or record.
	ActorID id.AccountID
	// Subject names the affected entity, e.g. "donation:12".
	Subject   string
	Action    string
	Reason    string
	RequestID string
	ClientIP  string
}

type AuditEvent string

const (
	// Account events
	EventAccountRegistered AuditEvent = "account_registered"
	EventAdminGranted      AuditEvent = "admin_granted"
	EventAdminRevoked      AuditEvent = "admin_revoked"

	// Session events
	EventLoginSucceeded AuditEvent = "login_succeeded"
	EventAuthFailed     AuditEvent = "auth_failed"
	EventSessionEnded   AuditEvent = "session_ended"

	// Record events
	EventRecordCreated    AuditEvent = "record_created"
	EventRecordUpdated    AuditEvent = "record_updated"
	EventRecordDeleted    AuditEvent = "record_deleted"
	EventPermissionDenied AuditEvent = "permission_denied"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventAccountRegistered: CategoryCompliance,
	EventRecordCreated:     CategoryCompliance,
	EventRecordUpdated:     CategoryCompliance,
	EventRecordDeleted:     CategoryCompliance,

	EventAuthFailed:       CategorySecurity,
	EventPermissionDenied: CategorySecurity,
	EventAdminGranted:     CategorySecurity,
	EventAdminRevoked:     CategorySecurity,

	EventLoginSucceeded: CategoryOperations,
	EventSessionEnded:   CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store is the queryable audit trail.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAccount(ctx context.Context, accountID id.AccountID) ([]Event, error)
	// ListRecent returns up to limit events, newest first.
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
