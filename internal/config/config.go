package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/standardbeagle/gxref/internal/content"
	"github.com/standardbeagle/gxref/internal/debug"
	"github.com/standardbeagle/gxref/internal/fgrep"
	"github.com/standardbeagle/gxref/internal/langmap"
	"github.com/standardbeagle/gxref/internal/skip"
)

// FileName is the per-project and per-user configuration file.
const FileName = ".gxref.kdl"

// Config holds every setting the front end needs to build a search.
type Config struct {
	Project Project
	Skip    string
	Langmap string
	Walk    Walk
	Search  Search
	Output  Output
	Exclude []string

	// Sources lists the files that contributed, in load order.
	Sources []string
}

type Project struct {
	Root string
}

// Walk controls candidate enumeration.
type Walk struct {
	AcceptDotfiles       bool
	SkipUnreadable       bool
	RespectGitignore     bool
	DetectBuildArtifacts bool
}

// Search controls the scan.
type Search struct {
	IgnoreCase   bool
	MaxNodes     int
	Parallel     int
	Target       string
	IO           string
	MapThreshold int64
}

type Output struct {
	Format    string
	Color     string
	PathStyle string
}

// Defaults returns the built-in configuration rooted at root.
func Defaults(root string) *Config {
	return &Config{
		Project: Project{Root: root},
		Skip:    skip.DefaultSkip,
		Langmap: langmap.DefaultLangmap,
		Walk: Walk{
			RespectGitignore:     true,
			DetectBuildArtifacts: true,
		},
		Search: Search{
			MaxNodes:     fgrep.DefaultMaxNodes,
			Parallel:     1,
			Target:       "source",
			IO:           content.StrategyAuto.String(),
			MapThreshold: content.DefaultMapThreshold,
		},
		Output: Output{
			Format:    "grep",
			Color:     "auto",
			PathStyle: "through",
		},
	}
}

// Load loads configuration for the current directory.
func Load() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return LoadWithRoot(wd)
}

// LoadWithRoot applies ~/.gxref.kdl and then <root>/.gxref.kdl over the
// defaults. Later files override scalars; exclude blocks accumulate.
func LoadWithRoot(root string) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	cfg := Defaults(absRoot)

	if home, err := os.UserHomeDir(); err == nil {
		global := filepath.Join(home, FileName)
		if global != filepath.Join(absRoot, FileName) {
			if err := cfg.applyFileIfExists(global, absRoot); err != nil {
				return nil, err
			}
		}
	}
	if err := cfg.applyFileIfExists(filepath.Join(absRoot, FileName), absRoot); err != nil {
		return nil, err
	}

	debug.LogConfig("loaded root=%s sources=%v\n", cfg.Project.Root, cfg.Sources)
	return cfg, nil
}

// LoadFile applies a single explicit configuration file over the defaults.
// A relative project root in the file resolves against the file's directory.
func LoadFile(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(abs)
	cfg := Defaults(dir)
	if err := cfg.ApplyFile(abs, dir); err != nil {
		return nil, err
	}
	debug.LogConfig("loaded %s root=%s\n", abs, cfg.Project.Root)
	return cfg, nil
}

func (c *Config) applyFileIfExists(path, base string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return c.ApplyFile(path, base)
}

// ApplyFile parses a KDL file onto c. A relative project root in the file is
// resolved against base.
func (c *Config) ApplyFile(path, base string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	before := c.Project.Root
	if err := parseKDL(string(data), c); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if c.Project.Root != before && !filepath.IsAbs(c.Project.Root) {
		c.Project.Root = filepath.Join(base, c.Project.Root)
	}
	c.Project.Root = filepath.Clean(c.Project.Root)
	c.Sources = append(c.Sources, path)
	return nil
}

// EnrichExclusions adds .gitignore and build-artifact exclusions for the
// project root, as enabled by the walk section. Call it after command line
// overrides are applied.
func (c *Config) EnrichExclusions() error {
	if c.Walk.RespectGitignore {
		gp := NewGitignoreParser()
		if err := gp.LoadGitignore(c.Project.Root); err != nil {
			return fmt.Errorf("failed to read .gitignore: %w", err)
		}
		c.Exclude = append(c.Exclude, gp.GetExclusionPatterns()...)
	}
	if c.Walk.DetectBuildArtifacts {
		c.Exclude = append(c.Exclude, NewBuildArtifactDetector(c.Project.Root).DetectOutputDirectories()...)
	}
	c.Exclude = DeduplicatePatterns(c.Exclude)
	debug.LogConfig("exclusions: %v\n", c.Exclude)
	return nil
}

// SkipOptions returns the skip matcher options the walk section implies.
func (c *Config) SkipOptions() skip.Options {
	return skip.Options{AcceptDotfiles: c.Walk.AcceptDotfiles, Exclude: c.Exclude}
}
