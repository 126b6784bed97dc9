package inputs

import (
	"maps"

	"github.com/openrangelabs/middleware/pkg/apperrors"
)

// Target names the store an input writes to.
type Target string

const (
	TargetUserLog    Target = "user_log"
	TargetSystemLog  Target = "system_log"
	TargetPortalUser Target = "portal_user"
)

var Targets = []Target{TargetUserLog, TargetSystemLog, TargetPortalUser}

func ParseTarget(s string) (Target, error) {
	for _, t := range Targets {
		if string(t) == s {
			return t, nil
		}
	}
	return "", apperrors.NewInvalidValue("input target", s)
}

// InputSpec describes an input instance to be created at startup.
type InputSpec struct {
	Type        string
	Target      Target
	Description string
	Config      Config
}

// ConfigWithDescription returns a copy of Config with description set.
func (s InputSpec) ConfigWithDescription() Config {
	cfg := make(Config, len(s.Config)+1)
	maps.Copy(cfg, s.Config)
	if s.Description != "" {
		cfg["description"] = s.Description
	}
	return cfg
}
