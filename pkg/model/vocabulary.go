package model

import (
	"strings"

	"github.com/openrangelabs/middleware/pkg/apperrors"
)

// UserLogType classifies a user activity entry.
type UserLogType string

const (
	UserLogLogin    UserLogType = "LOGIN"
	UserLogLogout   UserLogType = "LOGOUT"
	UserLogCreate   UserLogType = "CREATE"
	UserLogUpdate   UserLogType = "UPDATE"
	UserLogDelete   UserLogType = "DELETE"
	UserLogView     UserLogType = "VIEW"
	UserLogDownload UserLogType = "DOWNLOAD"
	UserLogUpload   UserLogType = "UPLOAD"
	UserLogError    UserLogType = "ERROR"
	UserLogAudit    UserLogType = "AUDIT"
)

var UserLogTypes = []UserLogType{
	UserLogLogin, UserLogLogout, UserLogCreate, UserLogUpdate, UserLogDelete,
	UserLogView, UserLogDownload, UserLogUpload, UserLogError, UserLogAudit,
}

var userLogTypeDescriptions = map[UserLogType]string{
	UserLogLogin:    "User login event",
	UserLogLogout:   "User logout event",
	UserLogCreate:   "Resource creation",
	UserLogUpdate:   "Resource update",
	UserLogDelete:   "Resource deletion",
	UserLogView:     "Resource view/read",
	UserLogDownload: "File download",
	UserLogUpload:   "File upload",
	UserLogError:    "Error event",
	UserLogAudit:    "Audit event",
}

func ParseUserLogType(s string) (UserLogType, error) {
	t := UserLogType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := userLogTypeDescriptions[t]; !ok {
		return "", apperrors.NewInvalidValue("user log type", s)
	}
	return t, nil
}

func IsValidUserLogType(s string) bool {
	_, err := ParseUserLogType(s)
	return err == nil
}

func (t UserLogType) String() string      { return string(t) }
func (t UserLogType) Code() string        { return string(t) }
func (t UserLogType) Description() string { return userLogTypeDescriptions[t] }

// PortalUserStatus is the account state recorded with a portal user event.
type PortalUserStatus string

const (
	StatusActive    PortalUserStatus = "ACTIVE"
	StatusInactive  PortalUserStatus = "INACTIVE"
	StatusPending   PortalUserStatus = "PENDING"
	StatusSuspended PortalUserStatus = "SUSPENDED"
)

var PortalUserStatuses = []PortalUserStatus{StatusActive, StatusInactive, StatusPending, StatusSuspended}

func ParsePortalUserStatus(s string) (PortalUserStatus, error) {
	st := PortalUserStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range PortalUserStatuses {
		if v == st {
			return st, nil
		}
	}
	return "", apperrors.NewInvalidValue("portal user status", s)
}

func IsValidPortalUserStatus(s string) bool {
	_, err := ParsePortalUserStatus(s)
	return err == nil
}

func (s PortalUserStatus) String() string { return string(s) }

// OperationType is the lifecycle operation a portal user record describes.
type OperationType string

const (
	OperationCreate     OperationType = "CREATE"
	OperationUpdate     OperationType = "UPDATE"
	OperationDelete     OperationType = "DELETE"
	OperationActivate   OperationType = "ACTIVATE"
	OperationDeactivate OperationType = "DEACTIVATE"
)

var OperationTypes = []OperationType{OperationCreate, OperationUpdate, OperationDelete, OperationActivate, OperationDeactivate}

func ParseOperationType(s string) (OperationType, error) {
	op := OperationType(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range OperationTypes {
		if v == op {
			return op, nil
		}
	}
	return "", apperrors.NewInvalidValue("operation type", s)
}

func IsValidOperationType(s string) bool {
	_, err := ParseOperationType(s)
	return err == nil
}

func (o OperationType) String() string { return string(o) }

// EventType names a user lifecycle event published on the create-user exchange.
type EventType string

const (
	EventUserCreated     EventType = "USER_CREATED"
	EventUserUpdated     EventType = "USER_UPDATED"
	EventUserDeleted     EventType = "USER_DELETED"
	EventUserActivated   EventType = "USER_ACTIVATED"
	EventUserDeactivated EventType = "USER_DEACTIVATED"
)

var eventOperations = map[EventType]OperationType{
	EventUserCreated:     OperationCreate,
	EventUserUpdated:     OperationUpdate,
	EventUserDeleted:     OperationDelete,
	EventUserActivated:   OperationActivate,
	EventUserDeactivated: OperationDeactivate,
}

func ParseEventType(s string) (EventType, error) {
	e := EventType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := eventOperations[e]; !ok {
		return "", apperrors.NewInvalidValue("event type", s)
	}
	return e, nil
}

func IsValidEventType(s string) bool {
	_, err := ParseEventType(s)
	return err == nil
}

func (e EventType) String() string { return string(e) }

// OperationType returns the portal user operation recorded for the event.
func (e EventType) OperationType() OperationType { return eventOperations[e] }
