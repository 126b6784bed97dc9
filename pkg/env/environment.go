// Package env names the deployment environments a service can run in.
package env

import (
	"strings"

	"github.com/openrangelabs/middleware/pkg/apperrors"
)

type Environment string

const (
	Development Environment = "development"
	Testing     Environment = "testing"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

var All = []Environment{Development, Testing, Staging, Production}

var meta = map[Environment]struct {
	alias       string
	description string
}{
	Development: {"dev", "Development environment"},
	Testing:     {"test", "Testing environment"},
	Staging:     {"stage", "Staging environment"},
	Production:  {"prod", "Production environment"},
}

// Parse accepts the full code or its short alias, in any case.
func Parse(s string) (Environment, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for e, m := range meta {
		if string(e) == v || m.alias == v {
			return e, nil
		}
	}
	return "", apperrors.NewInvalidValue("environment", s)
}

func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func (e Environment) String() string      { return string(e) }
func (e Environment) Alias() string       { return meta[e].alias }
func (e Environment) Description() string { return meta[e].description }

func (e Environment) IsProductionLike() bool  { return e == Production || e == Staging }
func (e Environment) IsDevelopmentLike() bool { return e == Development || e == Testing }
