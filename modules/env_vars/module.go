// Package env_vars provides a runner that exposes the process environment.
package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/vk/taskgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Args defines the arguments for the env_vars runner.
type Args struct {
	Prefix string `hcl:"prefix,optional"` // only variables with this prefix are returned
}

// OnRunEnvVars is the handler for the 'env_vars' runner. It returns the
// environment as a record so downstream steps can merge it into their input.
func OnRunEnvVars(ctx context.Context, upstream any, args *Args) (any, error) {
	envMap := make(map[string]any)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) != 2 {
			continue
		}
		if args.Prefix != "" && !strings.HasPrefix(pair[0], args.Prefix) {
			continue
		}
		envMap[pair[0]] = pair[1]
	}

	return envMap, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("env_vars", &registry.Runner{
		NewArgs: func() any { return new(Args) },
		Fn:      OnRunEnvVars,
	})
}
