// Package config defines the format-agnostic representation of a grid: the
// declarative description of steps and their dependencies that the builder
// turns into an executable graph.
package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
)

// Model is the unified representation of the loaded configuration.
type Model struct {
	Grid *Grid
}

// Grid represents the user's execution graph definition.
type Grid struct {
	Steps []*Step
}

// Step is the format-agnostic representation of a `step` block. Name is
// unique within a grid and is how depends_on entries refer to a step.
type Step struct {
	RunnerType string
	Name       string
	Arguments  hcl.Body // nil when the step has no arguments block
	DependsOn  []string
	Input      map[string]string // optional typed contract for the merged upstream record
}

// Loader translates configuration sources into the unified model.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}
