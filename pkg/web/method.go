// Package web holds the HTTP method and status vocabularies.
package web

import (
	"strings"

	"github.com/openrangelabs/middleware/pkg/apperrors"
)

// Method is an HTTP request method.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
	MethodConnect Method = "CONNECT"
)

var Methods = []Method{
	MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch,
	MethodHead, MethodOptions, MethodTrace, MethodConnect,
}

var methodDescriptions = map[Method]string{
	MethodGet:     "Retrieve data",
	MethodPost:    "Create new resource",
	MethodPut:     "Update/replace resource",
	MethodDelete:  "Delete resource",
	MethodPatch:   "Partial update",
	MethodHead:    "Get headers only",
	MethodOptions: "Get allowed methods",
	MethodTrace:   "Diagnostic trace",
	MethodConnect: "Establish tunnel",
}

func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := methodDescriptions[m]; !ok {
		return "", apperrors.NewInvalidValue("HTTP method", s)
	}
	return m, nil
}

func IsValidMethod(s string) bool {
	_, err := ParseMethod(s)
	return err == nil
}

func (m Method) String() string      { return string(m) }
func (m Method) Description() string { return methodDescriptions[m] }

// Idempotent reports whether repeating the request has the same effect as
// sending it once.
func (m Method) Idempotent() bool {
	switch m {
	case MethodGet, MethodPut, MethodDelete, MethodHead, MethodOptions, MethodTrace:
		return true
	}
	return false
}

// HasRequestBody reports whether the method normally carries a body.
func (m Method) HasRequestBody() bool {
	switch m {
	case MethodPost, MethodPut, MethodPatch:
		return true
	}
	return false
}
