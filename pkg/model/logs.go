package model

import "time"

// UserLog is a user activity entry. Its identity is (UserID, CreatedAt).
type UserLog struct {
	UserID         int64     `json:"userId" validate:"required,min=1"`
	CreatedAt      time.Time `json:"createdDt" validate:"notfuture"`
	OrganizationID int64     `json:"organizationId" validate:"required,min=1"`
	Description    string    `json:"description,omitempty" validate:"max=255"`
	Type           string    `json:"type,omitempty" validate:"omitempty,userlogtype"`
}

// UserLogKey is the composite identity of a UserLog.
type UserLogKey struct {
	UserID    int64
	CreatedAt time.Time
}

func (l UserLog) Key() UserLogKey {
	return UserLogKey{UserID: l.UserID, CreatedAt: l.CreatedAt}
}

// SystemLog is an application log event. ID is assigned by the store.
type SystemLog struct {
	ID              int64     `json:"id,omitempty"`
	Timestamp       time.Time `json:"timestamp" validate:"notfuture"`
	ServiceName     string    `json:"serviceName" validate:"required,max=100"`
	HostName        string    `json:"hostName,omitempty" validate:"max=255"`
	LogLevel        string    `json:"logLevel" validate:"required,loglevel"`
	LoggerName      string    `json:"loggerName,omitempty" validate:"max=255"`
	ThreadName      string    `json:"threadName,omitempty" validate:"max=255"`
	Message         string    `json:"message" validate:"required"`
	StackTrace      string    `json:"stackTrace,omitempty"`
	MDCData         string    `json:"mdcData,omitempty"`
	CorrelationID   string    `json:"correlationId,omitempty" validate:"max=50"`
	UserID          *int64    `json:"userId,omitempty" validate:"omitempty,min=1"`
	OrganizationID  *int64    `json:"organizationId,omitempty" validate:"omitempty,min=1"`
	RequestURI      string    `json:"requestUri,omitempty" validate:"max=500"`
	RequestMethod   string    `json:"requestMethod,omitempty" validate:"omitempty,httpmethod"`
	ResponseStatus  *int      `json:"responseStatus,omitempty" validate:"omitempty,min=100,max=599"`
	ExecutionTimeMs *int64    `json:"executionTimeMs,omitempty" validate:"omitempty,min=0"`
	Environment     string    `json:"environment,omitempty" validate:"omitempty,max=50,environment"`
	Version         string    `json:"version,omitempty" validate:"max=50"`
}

// SortOrder orders results by timestamp.
type SortOrder int

const (
	Descending SortOrder = iota
	Ascending
)

func (o SortOrder) SQL() string {
	if o == Ascending {
		return "ASC"
	}
	return "DESC"
}

// SystemLogFilter holds the optional criteria of a multi-criteria search.
// Zero values are not filtered. Start and End are required.
type SystemLogFilter struct {
	ServiceName    string
	LogLevel       string
	UserID         *int64
	OrganizationID *int64
	SearchTerm     string
	Start          time.Time
	End            time.Time
}
