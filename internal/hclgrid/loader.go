// Package hclgrid loads grid definitions written in HCL and translates them
// into the format-agnostic config model.
package hclgrid

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
)

// stepArgs holds the raw body of a step's `arguments` block. Decoding is
// deferred to the builder, which knows the runner's argument struct.
type stepArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// step mirrors a `step` block in a grid file.
type step struct {
	RunnerType string            `hcl:"runner_type,label"`
	Name       string            `hcl:"step_name,label"`
	Arguments  *stepArgs         `hcl:"arguments,block"`
	DependsOn  []string          `hcl:"depends_on,optional"`
	Input      map[string]string `hcl:"input,optional"`
}

// gridFile is the top-level structure of a single .hcl grid file.
type gridFile struct {
	Steps []*step  `hcl:"step,block"`
	Body  hcl.Body `hcl:",remain"`
}

// Loader parses .hcl grid files. It implements config.Loader.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a loader with a fresh parser (the parser caches parsed
// files and owns their source ranges for diagnostics).
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load reads every grid file under the given paths (files or directories,
// searched recursively for the .hcl extension) and merges them into one
// model. Step names must be unique across all loaded files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, path := range paths {
		found, err := collectGridFiles(path)
		if err != nil {
			return nil, fmt.Errorf("collecting grid files from %q: %w", path, err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl grid files found under %s", strings.Join(paths, ", "))
	}
	logger.Debug("Collected grid files.", "count", len(files))

	grid := &config.Grid{}
	seen := make(map[string]string)
	for _, file := range files {
		hclFile, diags := l.parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %s: %w", file, diags)
		}

		var gf gridFile
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &gf); diags.HasErrors() {
			return nil, fmt.Errorf("decoding %s: %w", file, diags)
		}

		for _, s := range gf.Steps {
			if prev, dup := seen[s.Name]; dup {
				return nil, fmt.Errorf("duplicate step name %q (first defined in %s, again in %s)", s.Name, prev, file)
			}
			seen[s.Name] = file
			grid.Steps = append(grid.Steps, translateStep(s))
		}
	}
	logger.Debug("Grid translation complete.", "steps", len(grid.Steps))

	return &config.Model{Grid: grid}, nil
}

// translateStep converts the HCL-specific step schema into the agnostic model.
func translateStep(s *step) *config.Step {
	out := &config.Step{
		RunnerType: s.RunnerType,
		Name:       s.Name,
		DependsOn:  s.DependsOn,
		Input:      s.Input,
	}
	if s.Arguments != nil {
		out.Arguments = s.Arguments.Body
	}
	return out
}

// collectGridFiles resolves a path to the .hcl files beneath it. A file path
// is returned as-is; a directory is walked recursively.
func collectGridFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".hcl") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
