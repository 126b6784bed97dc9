package model

import (
	"time"

	"github.com/google/uuid"
)

// PortalUser is one recorded lifecycle operation on a portal user.
type PortalUser struct {
	ID             int64     `json:"id,omitempty"`
	UserID         int64     `json:"userId" validate:"required,min=1"`
	OrganizationID int64     `json:"organizationId" validate:"required,min=1"`
	Username       string    `json:"username" validate:"required,max=100"`
	Email          string    `json:"email" validate:"required,email,max=255"`
	FirstName      string    `json:"firstName,omitempty" validate:"max=100"`
	LastName       string    `json:"lastName,omitempty" validate:"max=100"`
	Status         string    `json:"status" validate:"required,portaluserstatus"`
	OperationType  string    `json:"operationType" validate:"required,operationtype"`
	CreatedAt      time.Time `json:"createdDt" validate:"notfuture"`
	CreatedBy      string    `json:"createdBy,omitempty" validate:"max=100"`
	Notes          string    `json:"notes,omitempty" validate:"max=500"`
}

// PortalUserFilter holds the optional criteria of a portal user search.
// Username and Email match as case-insensitive substrings.
type PortalUserFilter struct {
	OrganizationID *int64
	Status         string
	OperationType  string
	Username       string
	Email          string
	Start          time.Time
	End            time.Time
}

// UserEvent is the payload published when a portal user changes.
type UserEvent struct {
	EventID        string    `json:"eventId" validate:"required"`
	EventType      string    `json:"eventType" validate:"required,eventtype"`
	UserID         int64     `json:"userId" validate:"required,min=1"`
	OrganizationID int64     `json:"organizationId" validate:"required,min=1"`
	Username       string    `json:"username" validate:"required,max=100"`
	Email          string    `json:"email" validate:"required,email,max=255"`
	FirstName      string    `json:"firstName,omitempty" validate:"max=100"`
	LastName       string    `json:"lastName,omitempty" validate:"max=100"`
	Status         string    `json:"status,omitempty" validate:"omitempty,portaluserstatus"`
	EventTimestamp time.Time `json:"eventTimestamp" validate:"notfuture"`
	TriggeredBy    string    `json:"triggeredBy,omitempty" validate:"max=100"`
	SourceService  string    `json:"sourceService,omitempty" validate:"max=50"`
	CorrelationID  string    `json:"correlationId" validate:"max=50"`
	AdditionalData string    `json:"additionalData,omitempty" validate:"max=500"`
}

// WithDefaults returns a copy with the event id, correlation id and timestamp
// filled when absent.
func (e UserEvent) WithDefaults(now time.Time) UserEvent {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.CorrelationID == "" {
		e.CorrelationID = uuid.NewString()
	}
	if e.EventTimestamp.IsZero() {
		e.EventTimestamp = now
	}
	return e
}

// PortalUser converts the event into the record stored for it.
func (e UserEvent) PortalUser() PortalUser {
	status := e.Status
	if status == "" {
		status = string(StatusPending)
	}
	var op string
	if t, err := ParseEventType(e.EventType); err == nil {
		op = string(t.OperationType())
	}
	return PortalUser{
		UserID:         e.UserID,
		OrganizationID: e.OrganizationID,
		Username:       e.Username,
		Email:          e.Email,
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		Status:         status,
		OperationType:  op,
		CreatedAt:      e.EventTimestamp,
		CreatedBy:      e.TriggeredBy,
		Notes:          e.AdditionalData,
	}
}
