package config

import (
	"fmt"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/gxref/internal/debug"
)

// parseKDL applies a KDL document onto cfg. Nodes that are absent leave the
// existing values alone, so files can be layered.
//
//	project { root "." }
//	skip "HTML/,tags,*.o"
//	langmap "c:.c.h,go:.go"
//	walk { accept_dotfiles false; skip_unreadable true }
//	search { ignore_case true; parallel 4; io "mmap"; map_threshold "64KB" }
//	output { format "ctags-x"; color "never"; path_style "relative" }
//	exclude { "**/testdata/**" }
func parseKDL(content string, cfg *Config) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
			}
		case "skip":
			if args := collectStringArgs(n); len(args) > 0 {
				cfg.Skip = strings.Join(args, ",")
			}
		case "langmap":
			if args := collectStringArgs(n); len(args) > 0 {
				cfg.Langmap = strings.Join(args, ",")
			}
		case "walk":
			for _, cn := range n.Children {
				b, ok := firstBoolArg(cn)
				if !ok {
					continue
				}
				switch nodeName(cn) {
				case "accept_dotfiles":
					cfg.Walk.AcceptDotfiles = b
				case "skip_unreadable":
					cfg.Walk.SkipUnreadable = b
				case "respect_gitignore":
					cfg.Walk.RespectGitignore = b
				case "detect_build_artifacts":
					cfg.Walk.DetectBuildArtifacts = b
				}
			}
		case "search":
			if err := parseSearchSection(cfg, n); err != nil {
				return err
			}
		case "output":
			for _, cn := range n.Children {
				assignSimpleString(cn, "format", func(v string) { cfg.Output.Format = v })
				assignSimpleString(cn, "color", func(v string) { cfg.Output.Color = v })
				assignSimpleString(cn, "path_style", func(v string) { cfg.Output.PathStyle = v })
			}
		case "exclude":
			cfg.Exclude = append(cfg.Exclude, collectStringArgs(n)...)
		default:
			debug.LogConfig("ignoring unknown node %q\n", nodeName(n))
		}
	}
	return nil
}

func parseSearchSection(cfg *Config, n *document.Node) error {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "ignore_case":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Search.IgnoreCase = b
			}
		case "max_nodes":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.MaxNodes = v
			}
		case "parallel":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.Parallel = v
			}
		case "target":
			if s, ok := firstStringArg(cn); ok {
				cfg.Search.Target = s
			}
		case "io":
			if s, ok := firstStringArg(cn); ok {
				cfg.Search.IO = s
			}
		case "map_threshold":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.MapThreshold = int64(v)
			}
			if s, ok := firstStringArg(cn); ok {
				sz, err := parseSize(s)
				if err != nil {
					return fmt.Errorf("search.map_threshold: invalid size %q", s)
				}
				cfg.Search.MapThreshold = sz
			}
		}
	}
	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case bool:
		return v, true
	case string:
		return parseBool(v), true
	}
	return false, false
}

// collectStringArgs reads inline arguments, or the children of a block
// (exclude { "a" "b" }) when there are none.
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				// a bare block entry is a node whose name is the string
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}
	return num * multiplier, nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}
