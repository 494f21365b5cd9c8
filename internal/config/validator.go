package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/standardbeagle/gxref/internal/content"
	gxerrors "github.com/standardbeagle/gxref/internal/errors"
	"github.com/standardbeagle/gxref/internal/langmap"
	"github.com/standardbeagle/gxref/internal/output"
	"github.com/standardbeagle/gxref/internal/search"
	"github.com/standardbeagle/gxref/internal/skip"
	"github.com/standardbeagle/gxref/pkg/pathutil"
)

// maxParallel caps search.parallel; each worker holds one batch of open files.
const maxParallel = 256

// maxNodes caps search.max_nodes at 4M states, about 64 MiB of arena.
const maxNodes = 1 << 22

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults.
// The skip list, language map and exclusions are compiled so that mistakes
// surface before any directory is read.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if cfg.Project.Root == "" {
		return gxerrors.NewConfigError("project.root", "", errors.New("project root cannot be empty"))
	}

	if _, err := skip.Compile(cfg.Skip, cfg.SkipOptions()); err != nil {
		return err
	}
	if _, err := langmap.Parse(cfg.Langmap); err != nil {
		return err
	}

	v.setSmartDefaults(cfg)

	if err := v.validateSearchConfig(&cfg.Search); err != nil {
		return err
	}
	return v.validateOutputConfig(&cfg.Output)
}

func (v *Validator) validateSearchConfig(s *Search) error {
	if s.MaxNodes < 2 || s.MaxNodes > maxNodes {
		return gxerrors.NewConfigError("search.max_nodes", fmt.Sprint(s.MaxNodes),
			fmt.Errorf("must be between 2 and %d", maxNodes))
	}
	if s.Parallel < 1 || s.Parallel > maxParallel {
		return gxerrors.NewConfigError("search.parallel", fmt.Sprint(s.Parallel),
			fmt.Errorf("must be between 1 and %d", maxParallel))
	}
	if s.MapThreshold < 0 {
		return gxerrors.NewConfigError("search.map_threshold", fmt.Sprint(s.MapThreshold),
			errors.New("cannot be negative"))
	}
	if _, err := search.ParseTarget(s.Target); err != nil {
		return err
	}
	if _, err := content.ParseStrategy(s.IO); err != nil {
		return err
	}
	return nil
}

func (v *Validator) validateOutputConfig(o *Output) error {
	if _, err := output.ParseFormat(o.Format); err != nil {
		return err
	}
	if _, err := output.ParseColorMode(o.Color); err != nil {
		return err
	}
	if _, err := pathutil.ParseStyle(o.PathStyle); err != nil {
		return gxerrors.NewConfigError("output.path_style", o.PathStyle, err)
	}
	return nil
}

// setSmartDefaults fills values left at zero.
func (v *Validator) setSmartDefaults(cfg *Config) {
	// parallel 0 means one worker per core, leaving one for the walk
	if cfg.Search.Parallel == 0 {
		cfg.Search.Parallel = max(1, runtime.NumCPU()-1)
	}
	if cfg.Search.MaxNodes == 0 {
		cfg.Search.MaxNodes = Defaults("").Search.MaxNodes
	}
	if cfg.Search.MapThreshold == 0 {
		cfg.Search.MapThreshold = content.DefaultMapThreshold
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
