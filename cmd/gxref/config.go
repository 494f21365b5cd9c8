package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/gxref/internal/config"
	"github.com/standardbeagle/gxref/internal/skip"
	"github.com/standardbeagle/gxref/pkg/pathutil"
)

func configShowCommand(c *cli.Context) error {
	cfg, err := prepare(c, func(*cli.Context, *config.Config) {})
	if err != nil {
		return err
	}
	m, err := skip.Compile(cfg.Skip, cfg.SkipOptions())
	if err != nil {
		return err
	}
	writeKDL(c.App.Writer, cfg, m)
	return nil
}

// writeKDL prints cfg in the format parseKDL reads, so the output can seed a
// project file.
func writeKDL(w io.Writer, cfg *config.Config, m *skip.Matcher) {
	fmt.Fprintln(w, "// Effective gxref configuration")
	for _, src := range cfg.Sources {
		fmt.Fprintf(w, "// loaded from %s\n", pathutil.ToRelative(src, cfg.Project.Root))
	}
	fmt.Fprintf(w, "// skip expression: %s\n\n", m)

	fmt.Fprintf(w, "project {\n    root %s\n}\n\n", quote(cfg.Project.Root))
	fmt.Fprintf(w, "skip %s\n", quote(cfg.Skip))
	fmt.Fprintf(w, "langmap %s\n\n", quote(cfg.Langmap))

	fmt.Fprintf(w, `walk {
    accept_dotfiles %t
    skip_unreadable %t
    respect_gitignore %t
    detect_build_artifacts %t
}

`, cfg.Walk.AcceptDotfiles, cfg.Walk.SkipUnreadable, cfg.Walk.RespectGitignore, cfg.Walk.DetectBuildArtifacts)

	fmt.Fprintf(w, `search {
    ignore_case %t
    max_nodes %d
    parallel %d
    target %s
    io %s
    map_threshold %d
}

`, cfg.Search.IgnoreCase, cfg.Search.MaxNodes, cfg.Search.Parallel,
		quote(cfg.Search.Target), quote(cfg.Search.IO), cfg.Search.MapThreshold)

	fmt.Fprintf(w, `output {
    format %s
    color %s
    path_style %s
}
`, quote(cfg.Output.Format), quote(cfg.Output.Color), quote(cfg.Output.PathStyle))

	if len(cfg.Exclude) > 0 {
		quoted := make([]string, len(cfg.Exclude))
		for i, p := range cfg.Exclude {
			quoted[i] = quote(p)
		}
		fmt.Fprintf(w, "\nexclude %s\n", strings.Join(quoted, " "))
	}
}

// quote produces a KDL string literal for printable text.
func quote(s string) string {
	return strconv.Quote(s)
}
