package web

import (
	"strconv"
	"strings"

	"github.com/openrangelabs/middleware/pkg/apperrors"
)

// Status is an HTTP response status code.
type Status int

const (
	StatusOK                  Status = 200
	StatusCreated             Status = 201
	StatusAccepted            Status = 202
	StatusNoContent           Status = 204
	StatusMovedPermanently    Status = 301
	StatusFound               Status = 302
	StatusNotModified         Status = 304
	StatusBadRequest          Status = 400
	StatusUnauthorized        Status = 401
	StatusForbidden           Status = 403
	StatusNotFound            Status = 404
	StatusMethodNotAllowed    Status = 405
	StatusConflict            Status = 409
	StatusUnprocessableEntity Status = 422
	StatusTooManyRequests     Status = 429
	StatusInternalServerError Status = 500
	StatusNotImplemented      Status = 501
	StatusBadGateway          Status = 502
	StatusServiceUnavailable  Status = 503
	StatusGatewayTimeout      Status = 504
)

type statusInfo struct {
	reason      string
	description string
}

var statusTable = map[Status]statusInfo{
	StatusOK:                  {"OK", "Request succeeded"},
	StatusCreated:             {"Created", "Resource created successfully"},
	StatusAccepted:            {"Accepted", "Request accepted for processing"},
	StatusNoContent:           {"No Content", "Request succeeded with no content"},
	StatusMovedPermanently:    {"Moved Permanently", "Resource moved permanently"},
	StatusFound:               {"Found", "Resource found at different location"},
	StatusNotModified:         {"Not Modified", "Resource not modified"},
	StatusBadRequest:          {"Bad Request", "Invalid request syntax"},
	StatusUnauthorized:        {"Unauthorized", "Authentication required"},
	StatusForbidden:           {"Forbidden", "Access denied"},
	StatusNotFound:            {"Not Found", "Resource not found"},
	StatusMethodNotAllowed:    {"Method Not Allowed", "HTTP method not supported"},
	StatusConflict:            {"Conflict", "Request conflicts with current state"},
	StatusUnprocessableEntity: {"Unprocessable Entity", "Validation errors"},
	StatusTooManyRequests:     {"Too Many Requests", "Rate limit exceeded"},
	StatusInternalServerError: {"Internal Server Error", "Server encountered an error"},
	StatusNotImplemented:      {"Not Implemented", "Functionality not implemented"},
	StatusBadGateway:          {"Bad Gateway", "Invalid response from upstream"},
	StatusServiceUnavailable:  {"Service Unavailable", "Service temporarily unavailable"},
	StatusGatewayTimeout:      {"Gateway Timeout", "Upstream server timeout"},
}

// StatusFromCode looks a code up in the known table.
func StatusFromCode(code int) (Status, error) {
	s := Status(code)
	if _, ok := statusTable[s]; !ok {
		return 0, apperrors.NewInvalidValue("HTTP status code", strconv.Itoa(code))
	}
	return s, nil
}

// ParseStatus accepts a numeric code or a reason phrase such as "not found".
func ParseStatus(s string) (Status, error) {
	trimmed := strings.TrimSpace(s)
	if code, err := strconv.Atoi(trimmed); err == nil {
		return StatusFromCode(code)
	}
	for st, info := range statusTable {
		if strings.EqualFold(info.reason, trimmed) {
			return st, nil
		}
	}
	return 0, apperrors.NewInvalidValue("HTTP status", s)
}

func IsValidStatus(code int) bool {
	_, ok := statusTable[Status(code)]
	return ok
}

func (s Status) Code() int           { return int(s) }
func (s Status) Reason() string      { return statusTable[s].reason }
func (s Status) Description() string { return statusTable[s].description }

func (s Status) IsSuccess() bool     { return s >= 200 && s < 300 }
func (s Status) IsRedirection() bool { return s >= 300 && s < 400 }
func (s Status) IsClientError() bool { return s >= 400 && s < 500 }
func (s Status) IsServerError() bool { return s >= 500 && s < 600 }
func (s Status) IsError() bool       { return s.IsClientError() || s.IsServerError() }

// Category is the class label of the code, e.g. "4xx Client Error".
func (s Status) Category() string {
	switch {
	case s.IsSuccess():
		return "2xx Success"
	case s.IsRedirection():
		return "3xx Redirection"
	case s.IsClientError():
		return "4xx Client Error"
	case s.IsServerError():
		return "5xx Server Error"
	}
	return "Unknown"
}

func (s Status) String() string {
	if reason := s.Reason(); reason != "" {
		return strconv.Itoa(int(s)) + " " + reason
	}
	return strconv.Itoa(int(s))
}
