package hclgrid

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGrid(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadSingleFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeGrid(t, dir, "main.hcl", `
		step "print" "hello" {
			arguments {
				prefix = "greeting"
			}
		}

		step "print" "after" {
			depends_on = ["hello"]
		}
	`)

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, model.Grid)
	require.Len(t, model.Grid.Steps, 2)

	hello := model.Grid.Steps[0]
	assert.Equal(t, "print", hello.RunnerType)
	assert.Equal(t, "hello", hello.Name)
	assert.NotNil(t, hello.Arguments)
	assert.Empty(t, hello.DependsOn)

	after := model.Grid.Steps[1]
	assert.Equal(t, "after", after.Name)
	assert.Nil(t, after.Arguments)
	assert.Equal(t, []string{"hello"}, after.DependsOn)
}

func TestLoadInputContract(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeGrid(t, dir, "main.hcl", `
		step "print" "typed" {
			input = {
				host = "string"
				port = "number"
			}
		}
	`)

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, model.Grid.Steps, 1)
	assert.Equal(t, map[string]string{"host": "string", "port": "number"}, model.Grid.Steps[0].Input)
}

func TestLoadDirectoryMergesFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeGrid(t, dir, "a.hcl", `step "print" "A" {}`)
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0700))
	writeGrid(t, sub, "b.hcl", `step "print" "B" {}`)
	// Non-HCL files are ignored.
	writeGrid(t, dir, "README.md", "not a grid")

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, model.Grid.Steps, 2)
}

func TestLoadDuplicateStepName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeGrid(t, dir, "a.hcl", `step "print" "same" {}`)
	writeGrid(t, dir, "b.hcl", `step "env_vars" "same" {}`)

	_, err := NewLoader().Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate step name "same"`)
}

func TestLoadSyntaxError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeGrid(t, dir, "broken.hcl", `step "print" "A" {`)

	_, err := NewLoader().Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestLoadNoFilesFound(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().Load(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .hcl grid files found")
}

func TestLoadMissingPath(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
