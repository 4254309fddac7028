// Package print provides a runner that prints its upstream value.
package print

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/taskgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Args defines the arguments for the print runner.
type Args struct {
	Prefix string `hcl:"prefix,optional"`
}

// OnRunPrint is the handler for the 'print' runner. It prints the merged
// upstream value and passes it through unchanged, so a print step can be
// spliced into a chain without changing what flows downstream.
func OnRunPrint(ctx context.Context, upstream any, args *Args) (any, error) {
	slog.Info("Printing upstream value.")

	prefix := args.Prefix
	if prefix != "" {
		fmt.Printf("%s:\n", prefix)
	}

	switch v := upstream.(type) {
	case nil:
		fmt.Println("      (null)")
	case map[string]any:
		// Sort keys for consistent output.
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("      %s = %v\n", k, v[k])
		}
	default:
		fmt.Printf("      %v\n", v)
	}

	return upstream, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("print", &registry.Runner{
		NewArgs: func() any { return new(Args) },
		Fn:      OnRunPrint,
	})
}
