// Package http_request provides a runner that performs an HTTP request and
// returns the response as a record.
package http_request

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"resty.dev/v3"

	"github.com/vk/taskgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Args defines the arguments for the http_request runner.
type Args struct {
	URL    string `hcl:"url"`
	Method string `hcl:"method,optional"`
	Body   string `hcl:"body,optional"`
}

// OnRunHttpRequest is the handler for the 'http_request' runner. The response
// is returned as a record with status_code and body, so downstream steps can
// merge it with sibling results.
func OnRunHttpRequest(ctx context.Context, upstream any, args *Args) (any, error) {
	method := strings.ToUpper(args.Method)
	if method == "" {
		method = "GET"
	}
	slog.Info("Making HTTP request.", "method", method, "url", args.URL)

	client := resty.New()
	defer client.Close()

	req := client.R().SetContext(ctx)
	if args.Body != "" {
		req.SetBody(args.Body)
	}

	res, err := req.Execute(method, args.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	slog.Info("Received HTTP response.", "status", res.Status())

	return map[string]any{
		"status_code": res.StatusCode(),
		"body":        res.String(),
	}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("http_request", &registry.Runner{
		NewArgs: func() any { return new(Args) },
		Fn:      OnRunHttpRequest,
	})
}
