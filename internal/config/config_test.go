package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestLoadWithRoot_NoFiles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	root := t.TempDir()

	cfg, err := LoadWithRoot(root)
	require.NoError(t, err)
	assert.Equal(t, Defaults(root), cfg)
}

func TestLoadWithRoot_ProjectOverridesGlobal(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	root := t.TempDir()

	writeFile(t, filepath.Join(home, FileName), `
search {
    parallel 2
    ignore_case true
}
output {
    color "never"
}
exclude "**/global/**"
`)
	writeFile(t, filepath.Join(root, FileName), `
search {
    parallel 6
}
exclude "**/project/**"
`)

	cfg, err := LoadWithRoot(root)
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Search.Parallel)
	assert.True(t, cfg.Search.IgnoreCase)
	assert.Equal(t, "never", cfg.Output.Color)
	assert.Equal(t, []string{"**/global/**", "**/project/**"}, cfg.Exclude)
	assert.Equal(t, []string{filepath.Join(home, FileName), filepath.Join(root, FileName)}, cfg.Sources)
}

func TestLoadWithRoot_RelativeProjectRoot(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "project {\n    root \"src\"\n}\n")

	cfg, err := LoadWithRoot(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src"), cfg.Project.Root)
}

func TestLoadWithRoot_ParseError(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "walk {")

	_, err := LoadWithRoot(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), FileName)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "gx.kdl")
	writeFile(t, path, "project {\n    root \"..\"\n}\noutput {\n    format \"cscope\"\n}\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Project.Root)
	assert.Equal(t, "cscope", cfg.Output.Format)

	_, err = LoadFile(filepath.Join(dir, "missing.kdl"))
	assert.Error(t, err)
}

func TestEnrichExclusions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.log\nbuild/\n")
	writeFile(t, filepath.Join(root, "Cargo.toml"), "[package]\nname = \"x\"\n")

	cfg := Defaults(root)
	cfg.Exclude = []string{"**/*.log"}
	require.NoError(t, cfg.EnrichExclusions())
	assert.Equal(t, []string{"**/*.log", "**/*.log/**", "**/build/**", "**/target/**"}, cfg.Exclude)

	cfg = Defaults(root)
	cfg.Walk.RespectGitignore = false
	cfg.Walk.DetectBuildArtifacts = false
	require.NoError(t, cfg.EnrichExclusions())
	assert.Empty(t, cfg.Exclude)
}

func TestSkipOptions(t *testing.T) {
	cfg := Defaults("/src")
	cfg.Walk.AcceptDotfiles = true
	cfg.Exclude = []string{"**/x/**"}

	opts := cfg.SkipOptions()
	assert.True(t, opts.AcceptDotfiles)
	assert.Equal(t, []string{"**/x/**"}, opts.Exclude)
}
