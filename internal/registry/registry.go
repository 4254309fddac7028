// Package registry holds the Go runner handlers a grid's steps can invoke.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
)

// Module is the interface that all builtin modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Runner holds the compiled Go parts of a runner type.
//
// Fn must be a function of the shape
//
//	func(ctx context.Context, upstream any, args *T) (any, error)
//
// where *T is the value produced by NewArgs and decoded from the step's
// `arguments` block. Upstream is the merged fan-in value from the step's
// dependencies (nil for a source step).
type Runner struct {
	NewArgs func() any
	Fn      any
}

// Registry maps runner type names to their registered handlers for a single
// application instance.
type Registry struct {
	runners map[string]*Runner
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{runners: make(map[string]*Runner)}
}

// RegisterRunner registers a handler under a runner type name. Registering
// the same name twice is a programmer error and panics.
func (r *Registry) RegisterRunner(name string, runner *Runner) {
	if _, exists := r.runners[name]; exists {
		panic(fmt.Sprintf("runner with name '%s' already registered", name))
	}
	slog.Debug("Registering runner.", "name", name)
	r.runners[name] = runner
}

// Runner looks up a handler by runner type name.
func (r *Registry) Runner(name string) (*Runner, bool) {
	runner, ok := r.runners[name]
	return runner, ok
}

// Validate checks the loaded grid against the registered handlers: every
// step must name a known runner type, and every registered handler must have
// a callable shape. Mismatches here are configuration errors, caught before
// any graph is built.
func (r *Registry) Validate(ctx context.Context, model *config.Model) error {
	logger := ctxlog.FromContext(ctx)

	for name, runner := range r.runners {
		if err := checkRunnerShape(runner); err != nil {
			return fmt.Errorf("runner '%s': %w", name, err)
		}
	}

	if model == nil || model.Grid == nil {
		return nil
	}
	for _, step := range model.Grid.Steps {
		if _, ok := r.runners[step.RunnerType]; !ok {
			return fmt.Errorf("step '%s': unknown runner type '%s'", step.Name, step.RunnerType)
		}
	}
	logger.Debug("Registry validation passed.", "runners", len(r.runners))
	return nil
}

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	anyType = reflect.TypeOf((*any)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// checkRunnerShape verifies Fn against the documented handler signature.
func checkRunnerShape(runner *Runner) error {
	if runner.Fn == nil {
		return fmt.Errorf("handler function is nil")
	}
	fn := reflect.TypeOf(runner.Fn)
	if fn.Kind() != reflect.Func {
		return fmt.Errorf("handler is %s, want func", fn.Kind())
	}
	if fn.NumIn() != 3 || fn.NumOut() != 2 {
		return fmt.Errorf("handler must be func(ctx, upstream, args) (any, error)")
	}
	if fn.In(0) != ctxType {
		return fmt.Errorf("handler's first parameter must be context.Context")
	}
	if fn.In(1) != anyType {
		return fmt.Errorf("handler's second parameter must be any")
	}
	if fn.In(2).Kind() != reflect.Ptr {
		return fmt.Errorf("handler's third parameter must be a pointer to the args struct")
	}
	if fn.Out(0) != anyType || fn.Out(1) != errType {
		return fmt.Errorf("handler must return (any, error)")
	}
	if runner.NewArgs != nil {
		args := runner.NewArgs()
		if reflect.TypeOf(args) != fn.In(2) {
			return fmt.Errorf("NewArgs returns %T, handler expects %s", args, fn.In(2))
		}
	}
	return nil
}
