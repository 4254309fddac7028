// Package builder turns a loaded config model and a runner registry into an
// executable graph of vertices.
package builder

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/dag"
	"github.com/vk/taskgrid/internal/registry"
	"github.com/vk/taskgrid/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Graph is the built execution graph. Vertices are keyed by step name;
// Roots are the steps with no dependencies, which a wave starts from.
type Graph struct {
	Vertices map[string]*dag.Vertex
	Roots    []*dag.Vertex
}

// Build constructs a validated graph from a config model. Structural errors
// in depends_on (unknown steps, duplicate edges, cycles) surface here, before
// any execution.
func Build(ctx context.Context, model *config.Model, reg *registry.Registry) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting graph construction.")

	graph := &Graph{Vertices: make(map[string]*dag.Vertex)}

	// First pass: create a vertex per step.
	for _, s := range model.Grid.Steps {
		runner, ok := reg.Runner(s.RunnerType)
		if !ok {
			return nil, fmt.Errorf("step '%s': unknown runner type '%s'", s.Name, s.RunnerType)
		}
		work, err := bindWork(runner, s)
		if err != nil {
			return nil, err
		}
		opts := []dag.Option{dag.WithName(s.Name)}
		if len(s.Input) > 0 {
			validate, err := inputValidator(s)
			if err != nil {
				return nil, err
			}
			opts = append(opts, dag.WithValidator(validate))
		}
		graph.Vertices[s.Name] = dag.NewVertex(work, opts...)
	}
	logger.Debug("Build: vertex creation complete.", "count", len(graph.Vertices))

	// Second pass: link depends_on edges, dependency -> step.
	for _, s := range model.Grid.Steps {
		child := graph.Vertices[s.Name]
		for _, dep := range s.DependsOn {
			parent, ok := graph.Vertices[dep]
			if !ok {
				return nil, fmt.Errorf("step '%s': depends_on references unknown step '%s'", s.Name, dep)
			}
			if err := parent.AddChild(child); err != nil {
				return nil, fmt.Errorf("linking '%s' -> '%s': %w", dep, s.Name, err)
			}
		}
		if len(s.DependsOn) == 0 {
			graph.Roots = append(graph.Roots, child)
		}
	}
	logger.Debug("Build: linking complete.", "roots", len(graph.Roots))

	return graph, nil
}

// inputValidator turns a step's `input` contract into a record validator for
// its merged upstream value.
func inputValidator(s *config.Step) (dag.Validator, error) {
	attrs := make(map[string]cty.Type, len(s.Input))
	for attr, typeName := range s.Input {
		ty, err := schema.ParseType(typeName)
		if err != nil {
			return nil, fmt.Errorf("step '%s': input attribute %q: %w", s.Name, attr, err)
		}
		attrs[attr] = ty
	}
	return schema.Record(attrs), nil
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// bindWork closes a runner handler over a step's decoded arguments. The
// arguments body is decoded once at build time so that configuration errors
// are reported before the wave starts.
func bindWork(runner *registry.Runner, s *config.Step) (dag.Work, error) {
	var args any
	if runner.NewArgs != nil {
		args = runner.NewArgs()
		if s.Arguments != nil {
			if diags := gohcl.DecodeBody(s.Arguments, nil, args); diags.HasErrors() {
				return nil, fmt.Errorf("step '%s': decoding arguments: %w", s.Name, diags)
			}
		}
	}

	fn := reflect.ValueOf(runner.Fn)
	fnType := fn.Type()

	return func(ctx context.Context, upstream any) (any, error) {
		callArgs := make([]reflect.Value, 3)
		callArgs[0] = reflect.ValueOf(ctx)
		if upstream == nil {
			callArgs[1] = reflect.Zero(anyType)
		} else {
			callArgs[1] = reflect.ValueOf(upstream)
		}
		if args == nil {
			callArgs[2] = reflect.Zero(fnType.In(2))
		} else {
			callArgs[2] = reflect.ValueOf(args)
		}

		results := fn.Call(callArgs)
		out, errResult := results[0].Interface(), results[1].Interface()
		if errResult != nil {
			return nil, errResult.(error)
		}
		return out, nil
	}, nil
}
