package version

import (
	"runtime/debug"
	"sync"
)

// Version is the current semantic version of gxref.
const Version = "0.1.0"

// GitCommit and BuildDate are set with -ldflags "-X ...".
var (
	GitCommit = "unknown"
	BuildDate = "development"
)

// Info returns version information as a string
func Info() string {
	return Version
}

// FullInfo returns detailed version information
func FullInfo() string {
	return "gxref " + Version + " (commit: " + Commit() + ", built: " + BuildDate + ")"
}

var (
	commit     string
	commitOnce sync.Once
)

// Commit returns GitCommit, or the VCS revision recorded by the Go toolchain
// when no ldflags were given.
func Commit() string {
	commitOnce.Do(func() {
		commit = GitCommit
		if commit != "unknown" {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				commit = s.Value
				if len(commit) > 12 {
					commit = commit[:12]
				}
			}
		}
	})
	return commit
}
