package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKDL_Empty(t *testing.T) {
	cfg := Defaults("/src")
	require.NoError(t, parseKDL("", cfg))
	assert.Equal(t, Defaults("/src"), cfg)
}

func TestParseKDL_AllSections(t *testing.T) {
	content := `
project {
    root "sub"
}
skip "HTML/" "*.o"
langmap "c:.c.h,go:.go"
walk {
    accept_dotfiles true
    skip_unreadable true
    respect_gitignore false
    detect_build_artifacts false
}
search {
    ignore_case true
    max_nodes 100
    parallel 4
    target "all"
    io "mmap"
    map_threshold "1MB"
}
output {
    format "ctags-x"
    color "never"
    path_style "relative"
}
exclude "**/testdata/**" "**/*.pb.go"
`
	cfg := Defaults("/src")
	require.NoError(t, parseKDL(content, cfg))

	assert.Equal(t, "sub", cfg.Project.Root)
	assert.Equal(t, "HTML/,*.o", cfg.Skip)
	assert.Equal(t, "c:.c.h,go:.go", cfg.Langmap)
	assert.Equal(t, Walk{AcceptDotfiles: true, SkipUnreadable: true}, cfg.Walk)
	assert.Equal(t, Search{
		IgnoreCase:   true,
		MaxNodes:     100,
		Parallel:     4,
		Target:       "all",
		IO:           "mmap",
		MapThreshold: 1024 * 1024,
	}, cfg.Search)
	assert.Equal(t, Output{Format: "ctags-x", Color: "never", PathStyle: "relative"}, cfg.Output)
	assert.Equal(t, []string{"**/testdata/**", "**/*.pb.go"}, cfg.Exclude)
}

func TestParseKDL_Layering(t *testing.T) {
	cfg := Defaults("/src")
	require.NoError(t, parseKDL(`
search {
    parallel 8
}
exclude "**/a/**"
`, cfg))
	require.NoError(t, parseKDL(`
search {
    ignore_case true
}
exclude "**/b/**"
`, cfg))

	assert.Equal(t, 8, cfg.Search.Parallel, "untouched values survive")
	assert.True(t, cfg.Search.IgnoreCase)
	assert.Equal(t, []string{"**/a/**", "**/b/**"}, cfg.Exclude)
}

func TestParseKDL_MapThresholdNumber(t *testing.T) {
	cfg := Defaults("/src")
	require.NoError(t, parseKDL("search {\n    map_threshold 4096\n}\n", cfg))
	assert.Equal(t, int64(4096), cfg.Search.MapThreshold)

	err := parseKDL("search {\n    map_threshold \"lots\"\n}\n", cfg)
	assert.Error(t, err)
}

func TestParseKDL_Invalid(t *testing.T) {
	err := parseKDL("search {", Defaults("/src"))
	assert.Error(t, err)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10", 10},
		{"10B", 10},
		{"64KB", 64 * 1024},
		{"2mb", 2 * 1024 * 1024},
		{" 1GB ", 1024 * 1024 * 1024},
	}
	for _, tt := range tests {
		got, err := parseSize(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseSize("KB")
	assert.Error(t, err)
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "YES", "1", "on"} {
		assert.True(t, parseBool(s), s)
	}
	for _, s := range []string{"false", "no", "", "maybe"} {
		assert.False(t, parseBool(s), s)
	}
}
