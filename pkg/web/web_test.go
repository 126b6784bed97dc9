package web

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusClassesAreExclusive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	count := func(flags ...bool) int {
		n := 0
		for _, f := range flags {
			if f {
				n++
			}
		}
		return n
	}

	properties.Property("2xx is success only", prop.ForAll(
		func(code int) bool {
			s := Status(code)
			return s.IsSuccess() && count(s.IsRedirection(), s.IsClientError(), s.IsServerError()) == 0 && !s.IsError()
		},
		gen.IntRange(200, 299),
	))
	properties.Property("3xx is redirection only", prop.ForAll(
		func(code int) bool {
			s := Status(code)
			return s.IsRedirection() && count(s.IsSuccess(), s.IsClientError(), s.IsServerError()) == 0
		},
		gen.IntRange(300, 399),
	))
	properties.Property("4xx is client error only", prop.ForAll(
		func(code int) bool {
			s := Status(code)
			return s.IsClientError() && s.IsError() && count(s.IsSuccess(), s.IsRedirection(), s.IsServerError()) == 0
		},
		gen.IntRange(400, 499),
	))
	properties.Property("5xx is server error only", prop.ForAll(
		func(code int) bool {
			s := Status(code)
			return s.IsServerError() && s.IsError() && count(s.IsSuccess(), s.IsRedirection(), s.IsClientError()) == 0
		},
		gen.IntRange(500, 599),
	))

	properties.TestingRun(t)
}

func TestStatusTable(t *testing.T) {
	s, err := StatusFromCode(404)
	require.NoError(t, err)
	assert.Equal(t, "Not Found", s.Reason())
	assert.Equal(t, "404 Not Found", s.String())
	assert.Equal(t, "4xx Client Error", s.Category())

	assert.Equal(t, "5xx Server Error", StatusServiceUnavailable.Category())
	assert.Equal(t, "Unknown", Status(99).Category())

	_, err = StatusFromCode(418)
	assert.EqualError(t, err, "invalid HTTP status code: 418")

	s, err = ParseStatus(" too many requests ")
	require.NoError(t, err)
	assert.Equal(t, StatusTooManyRequests, s)
}

func TestMethodFlags(t *testing.T) {
	idempotent := map[Method]bool{
		MethodGet: true, MethodPut: true, MethodDelete: true, MethodHead: true,
		MethodOptions: true, MethodTrace: true,
	}
	body := map[Method]bool{MethodPost: true, MethodPut: true, MethodPatch: true}

	for _, m := range Methods {
		assert.Equal(t, idempotent[m], m.Idempotent(), m.String())
		assert.Equal(t, body[m], m.HasRequestBody(), m.String())
		assert.NotEmpty(t, m.Description())
	}

	m, err := ParseMethod(" patch")
	require.NoError(t, err)
	assert.Equal(t, MethodPatch, m)
	assert.False(t, IsValidMethod("FETCH"))
}
