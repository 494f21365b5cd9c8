package config

import (
	"encoding/json"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/gxref/internal/debug"
)

// BuildArtifactDetector finds build output directories declared by the
// project's build files, so generated copies of sources are not searched.
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a new build artifact detector
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories returns doublestar patterns such as
// "**/target/**" for every output directory it can find.
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	var dirs []string
	dirs = append(dirs, bad.detectRustOutputs()...)
	dirs = append(dirs, bad.detectPythonOutputs()...)
	dirs = append(dirs, bad.detectJavaScriptOutputs()...)

	var patterns []string
	for _, d := range dirs {
		if p := dirPattern(d); p != "" {
			patterns = append(patterns, p)
		}
	}
	debug.LogConfig("build artifacts under %s: %v\n", bad.projectRoot, patterns)
	return DeduplicatePatterns(patterns)
}

// dirPattern turns a configured output directory into an exclusion. Paths
// that leave the project are ignored.
func dirPattern(dir string) string {
	dir = path.Clean(filepath.ToSlash(strings.TrimSpace(dir)))
	dir = strings.TrimPrefix(dir, "./")
	if dir == "." || dir == "" || strings.HasPrefix(dir, "../") || dir == ".." || path.IsAbs(dir) {
		return ""
	}
	return "**/" + dir + "/**"
}

type cargoConfig struct {
	Build struct {
		TargetDir string `toml:"target-dir"`
	} `toml:"build"`
}

// detectRustOutputs reports target/ for Cargo projects, or the target-dir
// set in .cargo/config.toml.
func (bad *BuildArtifactDetector) detectRustOutputs() []string {
	if _, err := os.Stat(filepath.Join(bad.projectRoot, "Cargo.toml")); err != nil {
		return nil
	}
	var cfg cargoConfig
	if data, err := os.ReadFile(filepath.Join(bad.projectRoot, ".cargo", "config.toml")); err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			debug.LogConfig("cannot parse .cargo/config.toml: %v\n", err)
		}
	}
	if cfg.Build.TargetDir != "" {
		return []string{cfg.Build.TargetDir}
	}
	return []string{"target"}
}

type pyproject struct {
	BuildSystem struct {
		BuildBackend string `toml:"build-backend"`
	} `toml:"build-system"`
}

// detectPythonOutputs reports build/ for projects with a PEP 517 backend.
func (bad *BuildArtifactDetector) detectPythonOutputs() []string {
	data, err := os.ReadFile(filepath.Join(bad.projectRoot, "pyproject.toml"))
	if err != nil {
		return nil
	}
	var py pyproject
	if err := toml.Unmarshal(data, &py); err != nil {
		debug.LogConfig("cannot parse pyproject.toml: %v\n", err)
		return nil
	}
	if py.BuildSystem.BuildBackend == "" {
		return nil
	}
	return []string{"build"}
}

// detectJavaScriptOutputs reads tsconfig.json compilerOptions.outDir and
// --outDir flags in package.json scripts.
func (bad *BuildArtifactDetector) detectJavaScriptOutputs() []string {
	var dirs []string

	var tsconfig struct {
		CompilerOptions struct {
			OutDir string `json:"outDir"`
		} `json:"compilerOptions"`
	}
	if data, err := os.ReadFile(filepath.Join(bad.projectRoot, "tsconfig.json")); err == nil {
		if json.Unmarshal(data, &tsconfig) == nil && tsconfig.CompilerOptions.OutDir != "" {
			dirs = append(dirs, tsconfig.CompilerOptions.OutDir)
		}
	}

	var pkg struct {
		Scripts map[string]string `json:"scripts"`
	}
	if data, err := os.ReadFile(filepath.Join(bad.projectRoot, "package.json")); err == nil {
		if json.Unmarshal(data, &pkg) == nil {
			for _, name := range slices.Sorted(maps.Keys(pkg.Scripts)) {
				dirs = append(dirs, outDirFlags(pkg.Scripts[name])...)
			}
		}
	}
	return dirs
}

// outDirFlags extracts the values of --outDir and --outDir= in a command.
func outDirFlags(script string) []string {
	var dirs []string
	fields := strings.Fields(script)
	for i, f := range fields {
		switch {
		case (f == "--outDir" || f == "-outDir") && i+1 < len(fields):
			dirs = append(dirs, strings.Trim(fields[i+1], `"'`))
		case strings.HasPrefix(f, "--outDir="):
			dirs = append(dirs, strings.Trim(strings.TrimPrefix(f, "--outDir="), `"'`))
		}
	}
	return dirs
}

// DeduplicatePatterns removes duplicate exclusion patterns, keeping the
// first occurrence.
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}
	return result
}
