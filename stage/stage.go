// Package stage names the deployment environment a process runs in. The
// value is reported as the deployment.environment resource attribute of
// exported traces.
package stage

import (
	"errors"
	"fmt"
	"strings"
)

// Stage is a deployment environment.
type Stage string

// ErrUnrecognizedStage is returned when parsing an unknown stage name.
var ErrUnrecognizedStage = errors.New("unrecognized stage")

const (
	// Unknown means the stage was never configured.
	Unknown Stage = "unknown"
	// Local is a developer machine.
	Local Stage = "local"
	// Test is a test run.
	Test Stage = "test"
	// Dev is the shared development environment.
	Dev Stage = "dev"
	// Staging mirrors production.
	Staging Stage = "staging"
	// Prod is production.
	Prod Stage = "prod"
)

// Parse resolves a stage name, case-insensitively.
func Parse(s string) (Stage, error) {
	switch st := Stage(strings.ToLower(strings.TrimSpace(s))); st {
	case Local, Test, Dev, Staging, Prod:
		return st, nil
	default:
		return Unknown, fmt.Errorf("%w: %q", ErrUnrecognizedStage, s)
	}
}

// UnmarshalText lets env parsers decode a Stage directly.
func (s *Stage) UnmarshalText(text []byte) error {
	st, err := Parse(string(text))
	if err != nil {
		return err
	}

	*s = st

	return nil
}

func (s Stage) String() string {
	if s == "" {
		return string(Unknown)
	}

	return string(s)
}
