package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/gxref/internal/config"
	"github.com/standardbeagle/gxref/internal/content"
	"github.com/standardbeagle/gxref/internal/debug"
	gxerrors "github.com/standardbeagle/gxref/internal/errors"
	"github.com/standardbeagle/gxref/internal/fgrep"
	"github.com/standardbeagle/gxref/internal/langmap"
	"github.com/standardbeagle/gxref/internal/output"
	"github.com/standardbeagle/gxref/internal/search"
	"github.com/standardbeagle/gxref/internal/skip"
	"github.com/standardbeagle/gxref/internal/walk"
	"github.com/standardbeagle/gxref/pkg/pathutil"
)

// candidateFlags select and enumerate candidate files. grep and list share them.
func candidateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "file-list",
			Aliases: []string{"f"},
			Usage:   "Read candidate paths from a file, one per line (- for stdin)",
		},
		&cli.BoolFlag{
			Name:    "source",
			Aliases: []string{"o"},
			Usage:   "Only source files (the default)",
		},
		&cli.BoolFlag{
			Name:    "other",
			Aliases: []string{"O"},
			Usage:   "Only files that are not source files",
		},
		&cli.BoolFlag{
			Name:    "all",
			Aliases: []string{"a"},
			Usage:   "Source and other files",
		},
		&cli.StringFlag{
			Name:  "skip",
			Usage: "Comma separated skip list (e.g., 'HTML/,*.o,tags')",
		},
		&cli.BoolFlag{
			Name:  "dotfiles",
			Usage: "Accept files and directories whose names start with a dot",
		},
		&cli.BoolFlag{
			Name:  "skip-unreadable",
			Usage: "Warn about unreadable files instead of failing",
		},
		&cli.StringFlag{
			Name:  "path-style",
			Usage: "Print paths as through, relative or absolute",
		},
	}
}

func grepCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:    "ignore-case",
			Aliases: []string{"i"},
			Usage:   "Ignore ASCII letter case",
		},
		&cli.BoolFlag{
			Name:    "invert-match",
			Aliases: []string{"v"},
			Usage:   "Select lines that contain none of the patterns",
		},
		&cli.BoolFlag{
			Name:    "files-with-matches",
			Aliases: []string{"l"},
			Usage:   "Print only the names of files with a selected line",
		},
		&cli.StringSliceFlag{
			Name:    "patterns",
			Aliases: []string{"e"},
			Usage:   "Pattern to search for; may be repeated (grep -e)",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format: " + formatNames(),
		},
		&cli.StringFlag{
			Name:  "color",
			Usage: "Color output: auto, always, never",
		},
		&cli.StringFlag{
			Name:  "io",
			Usage: "File reading: auto, mmap, read",
		},
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "Files scanned at once (0 = one per CPU)",
		},
		&cli.IntFlag{
			Name:  "max-nodes",
			Usage: "Automaton state budget",
		},
	}
	return &cli.Command{
		Name:                   "grep",
		Aliases:                []string{"g"},
		Usage:                  "Print lines containing any of the literal patterns",
		ArgsUsage:              "PATTERN...",
		UseShortOptionHandling: true,
		Flags:                  append(flags, candidateFlags()...),
		Action:                 grepAction,
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:                   "list",
		Aliases:                []string{"ls"},
		Usage:                  "Print the candidate files a search would scan",
		UseShortOptionHandling: true,
		Flags: append(candidateFlags(), &cli.BoolFlag{
			Name:    "long",
			Aliases: []string{"L"},
			Usage:   "Prefix each path with its class",
		}),
		Action: listAction,
	}
}

func formatNames() string {
	names := make([]string, len(output.Formats))
	for i, f := range output.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// applyCandidateFlags copies explicitly set flags over cfg.
func applyCandidateFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("skip") {
		cfg.Skip = c.String("skip")
	}
	if c.IsSet("dotfiles") {
		cfg.Walk.AcceptDotfiles = c.Bool("dotfiles")
	}
	if c.IsSet("skip-unreadable") {
		cfg.Walk.SkipUnreadable = c.Bool("skip-unreadable")
	}
	if c.IsSet("path-style") {
		cfg.Output.PathStyle = c.String("path-style")
	}
	switch {
	case c.Bool("all"):
		cfg.Search.Target = search.TargetAll.String()
	case c.Bool("other"):
		cfg.Search.Target = search.TargetOther.String()
	case c.Bool("source"):
		cfg.Search.Target = search.TargetSource.String()
	}
}

func applyGrepFlags(c *cli.Context, cfg *config.Config) {
	applyCandidateFlags(c, cfg)
	if c.IsSet("ignore-case") {
		cfg.Search.IgnoreCase = c.Bool("ignore-case")
	}
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	// -l prints names only, whatever the configured format
	if c.Bool("files-with-matches") && !c.IsSet("format") {
		cfg.Output.Format = string(output.FormatPath)
	}
	if c.IsSet("color") {
		cfg.Output.Color = c.String("color")
	}
	if c.IsSet("io") {
		cfg.Search.IO = c.String("io")
	}
	if c.IsSet("parallel") {
		cfg.Search.Parallel = c.Int("parallel")
	}
	if c.IsSet("max-nodes") {
		cfg.Search.MaxNodes = c.Int("max-nodes")
	}
}

// prepare loads, overrides and validates the configuration.
func prepare(c *cli.Context, apply func(*cli.Context, *config.Config)) (*config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	apply(c, cfg)
	if err := cfg.EnrichExclusions(); err != nil {
		return nil, err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func grepAction(c *cli.Context) error {
	cfg, err := prepare(c, applyGrepFlags)
	if err != nil {
		return err
	}
	if c.Bool("files-with-matches") && cfg.Output.Format != string(output.FormatPath) {
		return gxerrors.NewConfigError("format", cfg.Output.Format,
			errors.New("--files-with-matches only prints paths"))
	}

	raw := append(c.StringSlice("patterns"), c.Args().Slice()...)
	words := fgrep.ParseWords(strings.Join(raw, "\n"))
	automaton, err := fgrep.Build(words, fgrep.Options{
		CaseInsensitive: cfg.Search.IgnoreCase,
		MaxNodes:        cfg.Search.MaxNodes,
	})
	if err != nil {
		return err
	}
	patterns := make([]string, len(words))
	for i, w := range words {
		patterns[i] = string(w)
	}
	debug.LogSearch("%d patterns, %d states\n", automaton.Words(), automaton.Len())

	// validated above
	target, _ := search.ParseTarget(cfg.Search.Target)
	strategy, _ := content.ParseStrategy(cfg.Search.IO)
	format, _ := output.ParseFormat(cfg.Output.Format)
	colorMode, _ := output.ParseColorMode(cfg.Output.Color)

	paths, err := pathConverter(cfg)
	if err != nil {
		return err
	}
	src, err := openSource(c, cfg)
	if err != nil {
		return err
	}

	stderr := c.App.ErrWriter
	driver := search.New(automaton, search.Options{
		Patterns:        patterns,
		CaseInsensitive: cfg.Search.IgnoreCase,
		InvertMatch:     c.Bool("invert-match"),
		PathOnly:        c.Bool("files-with-matches"),
		Target:          target,
		Strategy:        strategy,
		MapThreshold:    cfg.Search.MapThreshold,
		Parallel:        cfg.Search.Parallel,
		OnWarning: func(err error) {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		},
	})
	out := output.New(c.App.Writer, output.Options{
		Format:     format,
		Color:      output.ResolveColor(colorMode, c.App.Writer),
		Paths:      paths,
		Highlight:  patterns,
		IgnoreCase: cfg.Search.IgnoreCase,
	})

	stats, err := driver.Run(c.Context, src, out)
	if flushErr := out.Flush(); err == nil {
		err = flushErr
	}
	debug.LogSearch("files=%d scanned=%d matches=%d warnings=%d\n",
		stats.Files, stats.Scanned, stats.Matches, stats.Warnings)
	if werr := stats.Err(); werr != nil {
		debug.LogSearch("skipped: %v\n", werr)
	}
	if err != nil {
		return err
	}
	if stats.Matches == 0 {
		return errNoMatch
	}
	return nil
}

func listAction(c *cli.Context) error {
	cfg, err := prepare(c, applyCandidateFlags)
	if err != nil {
		return err
	}
	target, _ := search.ParseTarget(cfg.Search.Target)
	paths, err := pathConverter(cfg)
	if err != nil {
		return err
	}
	src, err := openSource(c, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	w := bufio.NewWriter(c.App.Writer)
	defer w.Flush()
	for cand, err := range walk.All(src) {
		if err != nil {
			return err
		}
		if !target.Accepts(cand.Class) {
			continue
		}
		if c.Bool("long") {
			fmt.Fprintf(w, "%-6s %s\n", cand.Class, paths.Convert(cand.Path))
		} else {
			fmt.Fprintln(w, paths.Convert(cand.Path))
		}
	}
	return w.Flush()
}

// openSource builds the skip policy and language map and opens either the
// tree walker or the file list reader.
func openSource(c *cli.Context, cfg *config.Config) (walk.Source, error) {
	m, err := skip.Compile(cfg.Skip, cfg.SkipOptions())
	if err != nil {
		return nil, err
	}
	lm, err := langmap.Parse(cfg.Langmap)
	if err != nil {
		return nil, err
	}
	opts := walk.Options{
		AcceptDotfiles: cfg.Walk.AcceptDotfiles,
		SkipUnreadable: cfg.Walk.SkipUnreadable,
		Verbose:        c.Bool("verbose"),
		Classifier:     lm.Classify,
		OnDiagnostic:   diagnosticPrinter(c.App.ErrWriter),
	}

	switch list := c.String("file-list"); list {
	case "":
		w, err := walk.Open(cfg.Project.Root, m, opts)
		if err != nil {
			return nil, err
		}
		return w, nil
	case "-":
		lr, err := walk.ReplayFileList(c.App.Reader, cfg.Project.Root, m, opts)
		if err != nil {
			return nil, err
		}
		return lr, nil
	default:
		lr, err := walk.OpenFileList(list, cfg.Project.Root, m, opts)
		if err != nil {
			return nil, err
		}
		return lr, nil
	}
}

func pathConverter(cfg *config.Config) (*pathutil.Converter, error) {
	style, err := pathutil.ParseStyle(cfg.Output.PathStyle)
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return pathutil.NewConverter(style, cfg.Project.Root, cwd)
}

func diagnosticPrinter(w io.Writer) walk.DiagnosticFunc {
	return func(d walk.Diagnostic) {
		if d.Severity == walk.SeverityWarning {
			fmt.Fprintf(w, "Warning: %s: %s\n", d.Path, d.Message)
			return
		}
		fmt.Fprintf(w, "%s: %s\n", d.Path, d.Message)
	}
}
