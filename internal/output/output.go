// Package output renders search matches in the tag tool's wire formats.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/standardbeagle/gxref/internal/errors"
	"github.com/standardbeagle/gxref/internal/gpath"
	"github.com/standardbeagle/gxref/internal/search"
	"github.com/standardbeagle/gxref/pkg/pathutil"
)

// Format is an output format.
type Format string

const (
	FormatGrep     Format = "grep"      // path:line:text
	FormatCtags    Format = "ctags"     // tag<TAB>path<TAB>line
	FormatCtagsX   Format = "ctags-x"   // tag line path text
	FormatCtagsXID Format = "ctags-xid" // fid tag line path text
	FormatCscope   Format = "cscope"    // path tag line text
	FormatPath     Format = "path"      // path, once per file
	FormatJSON     Format = "json"      // one object per line
)

// Formats lists every format in help order.
var Formats = []Format{FormatGrep, FormatCtags, FormatCtagsX, FormatCtagsXID, FormatCscope, FormatPath, FormatJSON}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	if s == "" {
		return FormatGrep, nil
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", errors.NewConfigError("format", s, fmt.Errorf("expected one of %s", strings.Join(names, ", ")))
}

// ColorMode is the user's color preference.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a color mode name.
func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(strings.ToLower(s)) {
	case "", ColorAuto:
		return ColorAuto, nil
	case ColorAlways:
		return ColorAlways, nil
	case ColorNever:
		return ColorNever, nil
	}
	return ColorAuto, errors.NewConfigError("color", s, fmt.Errorf("expected auto, always or never"))
}

// ResolveColor decides whether to color output written to w. Auto colors
// terminals unless NO_COLOR is set.
func ResolveColor(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Options controls rendering.
type Options struct {
	Format Format
	Color  bool
	// Paths converts candidate paths; nil prints them unchanged.
	Paths *pathutil.Converter
	// IDs numbers files for FormatCtagsXID. A fresh table is used when nil.
	IDs *gpath.Table
	// Highlight lists the words to mark in colored line text.
	Highlight  []string
	IgnoreCase bool
}

// Writer renders matches. It implements search.Sink and is not safe for
// concurrent use.
type Writer struct {
	w        *bufio.Writer
	opts     Options
	lastPath string
	enc      *json.Encoder

	pathColor  *color.Color
	lineColor  *color.Color
	sepColor   *color.Color
	matchColor *color.Color
}

var _ search.Sink = (*Writer)(nil)

// New creates a Writer. Call Flush when done.
func New(w io.Writer, opts Options) *Writer {
	if opts.Format == "" {
		opts.Format = FormatGrep
	}
	if opts.IDs == nil {
		opts.IDs = gpath.NewTable()
	}
	out := &Writer{w: bufio.NewWriter(w), opts: opts}
	if opts.Format == FormatJSON {
		out.enc = json.NewEncoder(out.w)
		out.enc.SetEscapeHTML(false)
	}
	if opts.Color {
		out.pathColor = forced(color.FgMagenta)
		out.lineColor = forced(color.FgGreen)
		out.sepColor = forced(color.FgCyan)
		out.matchColor = forced(color.FgRed, color.Bold)
	}
	return out
}

func forced(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

type jsonMatch struct {
	Tag  string `json:"tag,omitempty"`
	Path string `json:"path"`
	Line int    `json:"line,omitempty"`
	Text string `json:"text,omitempty"`
}

// Emit writes one match.
func (o *Writer) Emit(m search.Match) error {
	path := o.opts.Paths.Convert(m.Path)
	var err error

	switch o.opts.Format {
	case FormatPath:
		if m.Path == o.lastPath {
			return nil
		}
		_, err = fmt.Fprintln(o.w, o.paint(o.pathColor, path))
	case FormatCtags:
		_, err = fmt.Fprintf(o.w, "%s\t%s\t%d\n", m.Tag, path, m.Line)
	case FormatCtagsX:
		_, err = fmt.Fprintf(o.w, "%-16s %4d %-16s %s\n", m.Tag, m.Line, path, o.highlight(m.Text))
	case FormatCtagsXID:
		id := o.opts.IDs.ID(m.Path)
		_, err = fmt.Fprintf(o.w, "%d %-16s %4d %-16s %s\n", id, m.Tag, m.Line, path, o.highlight(m.Text))
	case FormatCscope:
		tag := m.Tag
		if tag == "" {
			tag = "<unknown>"
		}
		_, err = fmt.Fprintf(o.w, "%s %s %d %s\n", path, tag, m.Line, m.Text)
	case FormatJSON:
		err = o.enc.Encode(jsonMatch{Tag: m.Tag, Path: path, Line: m.Line, Text: m.Text})
	default:
		sep := o.paint(o.sepColor, ":")
		_, err = fmt.Fprintf(o.w, "%s%s%s%s%s\n",
			o.paint(o.pathColor, path), sep,
			o.paint(o.lineColor, fmt.Sprint(m.Line)), sep,
			o.highlight(m.Text))
	}
	o.lastPath = m.Path
	return err
}

// Flush writes buffered output.
func (o *Writer) Flush() error {
	return o.w.Flush()
}

func (o *Writer) paint(c *color.Color, s string) string {
	if c == nil {
		return s
	}
	return c.Sprint(s)
}

// highlight marks every occurrence of the highlight words in text, longest
// word first at each position.
func (o *Writer) highlight(text string) string {
	if o.matchColor == nil || len(o.opts.Highlight) == 0 {
		return text
	}
	var b strings.Builder
	plain := 0
	for i := 0; i < len(text); {
		n := o.longestWordAt(text, i)
		if n == 0 {
			i++
			continue
		}
		b.WriteString(text[plain:i])
		b.WriteString(o.matchColor.Sprint(text[i : i+n]))
		i += n
		plain = i
	}
	if plain == 0 {
		return text
	}
	b.WriteString(text[plain:])
	return b.String()
}

func (o *Writer) longestWordAt(text string, i int) int {
	best := 0
	for _, w := range o.opts.Highlight {
		if len(w) <= best || i+len(w) > len(text) {
			continue
		}
		seg := text[i : i+len(w)]
		if seg == w || (o.opts.IgnoreCase && strings.EqualFold(seg, w)) {
			best = len(w)
		}
	}
	return best
}
