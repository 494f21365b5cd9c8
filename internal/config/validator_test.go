package config

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gxerrors "github.com/standardbeagle/gxref/internal/errors"
)

func TestValidateAndSetDefaults(t *testing.T) {
	cfg := Defaults("/src")
	require.NoError(t, ValidateConfig(cfg))

	cfg.Search.Parallel = 0
	cfg.Search.MaxNodes = 0
	cfg.Search.MapThreshold = 0
	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, max(1, runtime.NumCPU()-1), cfg.Search.Parallel)
	assert.Equal(t, Defaults("").Search.MaxNodes, cfg.Search.MaxNodes)
	assert.Positive(t, cfg.Search.MapThreshold)
}

func TestValidateConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty root", func(c *Config) { c.Project.Root = "" }, "project.root"},
		{"bad skip glob", func(c *Config) { c.Skip = "[abc" }, "skip"},
		{"bad exclude", func(c *Config) { c.Exclude = []string{"[x"} }, "exclude"},
		{"bad langmap", func(c *Config) { c.Langmap = "c" }, "langmap"},
		{"max nodes", func(c *Config) { c.Search.MaxNodes = 1 }, "search.max_nodes"},
		{"huge max nodes", func(c *Config) { c.Search.MaxNodes = 1 << 50 }, "search.max_nodes"},
		{"negative parallel", func(c *Config) { c.Search.Parallel = -1 }, "search.parallel"},
		{"huge parallel", func(c *Config) { c.Search.Parallel = maxParallel + 1 }, "search.parallel"},
		{"negative threshold", func(c *Config) { c.Search.MapThreshold = -1 }, "search.map_threshold"},
		{"target", func(c *Config) { c.Search.Target = "binaries" }, "target"},
		{"io", func(c *Config) { c.Search.IO = "dma" }, "io"},
		{"format", func(c *Config) { c.Output.Format = "xml" }, "format"},
		{"color", func(c *Config) { c.Output.Color = "rainbow" }, "color"},
		{"path style", func(c *Config) { c.Output.PathStyle = "shortest" }, "output.path_style"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults("/src")
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			var cfgErr *gxerrors.ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}
